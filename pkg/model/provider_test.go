package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubProvider_GenerateUsesPrompt(t *testing.T) {
	p := NewStubProvider()
	out, err := p.Generate(context.Background(), Request{Prompt: "hello"})
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
}

func TestStubProvider_GenerateFallsBackToLastMessage(t *testing.T) {
	p := NewStubProvider()
	out, err := p.Generate(context.Background(), Request{Messages: []Message{
		{Role: "user", Content: "first"},
		{Role: "user", Content: "second"},
	}})
	require.NoError(t, err)
	assert.Contains(t, out, "second")
}

func TestStubProvider_GenerateStreamEndsWithDoneChunk(t *testing.T) {
	p := NewStubProvider()
	var chunks []Chunk
	err := p.GenerateStream(context.Background(), Request{Prompt: "x"}, func(c Chunk) {
		chunks = append(chunks, c)
	})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.True(t, chunks[1].Done)
}
