package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecall_MatchesOnContent(t *testing.T) {
	s := NewInMemoryStore(0)
	require.NoError(t, s.SaveTask(context.Background(), TaskRecord{ID: "t1", Input: "read config.yaml", Output: "contents of config.yaml"}))

	items, err := s.Recall(context.Background(), "config.yaml")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "t1", items[0].Source)
	assert.Equal(t, 1.0, items[0].Relevance)
}

func TestRecall_PartialTermOverlapScoresLower(t *testing.T) {
	s := NewInMemoryStore(0)
	require.NoError(t, s.SaveTask(context.Background(), TaskRecord{ID: "t1", Input: "read the build log"}))

	items, err := s.Recall(context.Background(), "build log missing")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Less(t, items[0].Relevance, 1.0)
	assert.Greater(t, items[0].Relevance, 0.0)
}

func TestRecall_NoMatchReturnsEmpty(t *testing.T) {
	s := NewInMemoryStore(0)
	require.NoError(t, s.SaveTask(context.Background(), TaskRecord{ID: "t1", Input: "unrelated"}))

	items, err := s.Recall(context.Background(), "nothing in common")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSaveTask_EvictsExpiredEntries(t *testing.T) {
	s := NewInMemoryStore(10 * time.Millisecond)
	require.NoError(t, s.SaveTask(context.Background(), TaskRecord{ID: "old", Input: "config.yaml"}))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.SaveTask(context.Background(), TaskRecord{ID: "new", Input: "config.yaml"}))

	items, err := s.Recall(context.Background(), "config.yaml")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "new", items[0].Source)
}
