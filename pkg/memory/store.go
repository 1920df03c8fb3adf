// Package memory implements the pipeline's Memory collaborator (spec
// §6): recall-by-query and task-result persistence. The TTL-entry /
// RWMutex-guarded-map shape is adapted from the teacher's
// core.MemoryStore (core/memory_store.go), generalized from a plain
// string cache to structured task records with relevance-scored recall.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cogpipe/core/pkg/types"
)

// TaskRecord is what the pipeline saves after each completed run
// (spec §6's saveTask payload).
type TaskRecord struct {
	ID            string
	Input         string
	Output        string
	Success       bool
	Steps         int
	ExecutionTime time.Duration
	Timestamp     time.Time
	UserID        string
	SessionID     string
}

// Store is the pipeline's Memory collaborator.
type Store interface {
	Recall(ctx context.Context, query string) ([]types.MemoryItem, error)
	SaveTask(ctx context.Context, record TaskRecord) error
}

type entry struct {
	record    TaskRecord
	expiresAt time.Time
}

// InMemoryStore is a TTL-bounded, process-local Store.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []entry
	ttl     time.Duration
}

// NewInMemoryStore builds a Store retaining entries for ttl (0 means
// entries never expire).
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{ttl: ttl}
}

// SaveTask appends record, evicting anything already past its TTL.
func (s *InMemoryStore) SaveTask(ctx context.Context, record TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked()

	e := entry{record: record}
	if s.ttl > 0 {
		e.expiresAt = time.Now().Add(s.ttl)
	}
	s.entries = append(s.entries, e)
	return nil
}

// Recall returns every non-expired record whose input or output shares
// at least one query term, each with a term-overlap relevance score
// (1.0 when the whole query appears). Results keep insertion order and
// are not sorted by relevance.
func (s *InMemoryStore) Recall(ctx context.Context, query string) ([]types.MemoryItem, error) {
	s.mu.Lock()
	s.evictExpiredLocked()
	records := make([]TaskRecord, len(s.entries))
	for i, e := range s.entries {
		records[i] = e.record
	}
	s.mu.Unlock()

	lowerQuery := strings.ToLower(query)
	var items []types.MemoryItem
	for _, r := range records {
		relevance := relevanceScore(lowerQuery, r)
		if relevance <= 0 {
			continue
		}
		content := r.Output
		if content == "" {
			content = r.Input
		}
		items = append(items, types.MemoryItem{
			Content:   content,
			Relevance: relevance,
			Source:    r.ID,
		})
	}
	return items, nil
}

func relevanceScore(lowerQuery string, r TaskRecord) float64 {
	haystack := strings.ToLower(r.Input + " " + r.Output)
	if lowerQuery == "" || haystack == "" {
		return 0
	}
	if strings.Contains(haystack, lowerQuery) {
		return 1.0
	}

	terms := strings.Fields(lowerQuery)
	if len(terms) == 0 {
		return 0
	}
	matched := 0
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func (s *InMemoryStore) evictExpiredLocked() {
	if s.ttl <= 0 {
		return
	}
	now := time.Now()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.expiresAt.IsZero() || now.Before(e.expiresAt) {
			kept = append(kept, e)
		}
	}
	s.entries = kept
}
