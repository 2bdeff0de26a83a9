// Package store keeps every bounty seen during the life of the process.
package store

import (
	"sync"

	"github.com/law-makers/bounty/pkg/models"
	"github.com/rs/zerolog/log"
)

// BountyStore accumulates bounty records keyed by title.
// It only grows: nothing is evicted and stored records are never rewritten.
type BountyStore struct {
	mu      sync.RWMutex
	records []models.BountyRecord
	titles  map[string]struct{}
}

// New creates an empty store
func New() *BountyStore {
	return &BountyStore{
		records: []models.BountyRecord{},
		titles:  make(map[string]struct{}),
	}
}

// DiffAndMerge returns the records of batch whose title is not stored yet, in
// batch order, and appends them to the store. Diff and merge happen under one
// lock so concurrent scrapes never both report the same title as new.
func (s *BountyStore) DiffAndMerge(batch []models.BountyRecord) []models.BountyRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]models.BountyRecord, 0)
	for _, rec := range batch {
		if _, seen := s.titles[rec.Title]; seen {
			continue
		}
		s.titles[rec.Title] = struct{}{}
		s.records = append(s.records, rec)
		added = append(added, rec)
	}

	log.Debug().
		Int("batch", len(batch)).
		Int("added", len(added)).
		Int("total", len(s.records)).
		Msg("Store merged batch")

	return added
}

// Contains reports whether a record with title is stored
func (s *BountyStore) Contains(title string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.titles[title]
	return ok
}

// All returns a copy of the stored records in first-seen order
func (s *BountyStore) All() []models.BountyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.BountyRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of stored records
func (s *BountyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
