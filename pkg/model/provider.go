// Package model declares the pipeline's Model Provider collaborator
// interface (spec §6) and a deterministic stub implementation for tests
// and the demo binary — real inference is an explicit non-goal. The
// interface shape (context-first, options struct, streaming callback)
// follows the teacher's core.AIClient (core/interfaces.go).
package model

import "context"

// Request is one generation request.
type Request struct {
	Prompt   string
	Messages []Message
	Mode     string
}

// Message is one turn of a chat-style request.
type Message struct {
	Role    string
	Content string
}

// Chunk is one fragment of a streamed generation.
type Chunk struct {
	Text string
	Done bool
}

// Provider is the pipeline's Model Provider collaborator (spec §6).
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	GenerateStream(ctx context.Context, req Request, onChunk func(Chunk)) error
}

// StubProvider is a deterministic, dependency-free Provider used by
// tests and the demo binary. It never calls out to a real model.
type StubProvider struct{}

// NewStubProvider builds a StubProvider.
func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

// Generate echoes a deterministic acknowledgement of the request.
func (s *StubProvider) Generate(ctx context.Context, req Request) (string, error) {
	prompt := req.Prompt
	if prompt == "" && len(req.Messages) > 0 {
		prompt = req.Messages[len(req.Messages)-1].Content
	}
	return "Here is a response to: " + prompt, nil
}

// GenerateStream delivers the same text as Generate in one chunk,
// followed by an empty Done chunk.
func (s *StubProvider) GenerateStream(ctx context.Context, req Request, onChunk func(Chunk)) error {
	text, err := s.Generate(ctx, req)
	if err != nil {
		return err
	}
	onChunk(Chunk{Text: text})
	onChunk(Chunk{Done: true})
	return nil
}
