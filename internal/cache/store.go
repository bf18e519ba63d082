// Package cache implements the in-process knowledge-vector cache: a
// memory-bounded record store with cosine-similarity search, load-time
// admission, and per-scope orchestration.
package cache

import (
	"time"

	"github.com/cloo-solutions/veccache/internal/domain"
)

// Store is the associative container mapping a knowledge-item ID to its
// cached vector record. Insertion order is preserved so the admission
// policy and diagnostics have a deterministic iteration order.
// A Store is exclusively owned by one Orchestrator; it does no locking.
type Store struct {
	records map[string]*domain.CachedVectorRecord
	order   []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*domain.CachedVectorRecord),
	}
}

// Put inserts or replaces the record for entry's item ID.
func (s *Store) Put(entry domain.VectorEntry, now time.Time) {
	id := entry.Item.ID
	if _, exists := s.records[id]; !exists {
		s.order = append(s.order, id)
	}
	s.records[id] = domain.NewCachedVectorRecord(entry, now)
}

// Get returns the record for id, or nil when absent.
func (s *Store) Get(id string) *domain.CachedVectorRecord {
	return s.records[id]
}

// Len returns the number of resident records.
func (s *Store) Len() int {
	return len(s.records)
}

// Records returns all resident records in insertion order.
func (s *Store) Records() []*domain.CachedVectorRecord {
	out := make([]*domain.CachedVectorRecord, 0, len(s.order))
	for _, id := range s.order {
		if rec, ok := s.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Clear removes every record and returns how many were removed.
func (s *Store) Clear() int {
	n := len(s.records)
	s.records = make(map[string]*domain.CachedVectorRecord)
	s.order = nil
	return n
}
