package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

const (
	// DefaultCleanupInterval is how often MemoryStore drops expired records.
	DefaultCleanupInterval = 5 * time.Minute

	// DefaultRetention applies when a store is opened with a non-positive
	// retention.
	DefaultRetention = 24 * time.Hour
)

// MemoryStore is an in-memory Store with a retention window.
type MemoryStore struct {
	records   []UsageRecord
	mu        sync.RWMutex
	retention time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	stopped   bool
}

// NewMemoryStore creates an in-memory ledger keeping records for retention.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	return newMemoryStore(retention, DefaultCleanupInterval, time.Now)
}

func newMemoryStore(retention, interval time.Duration, now func() time.Time) *MemoryStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	s := &MemoryStore{
		retention: retention,
		now:       now,
		stopChan:  make(chan struct{}),
	}

	go s.cleanup(interval)

	return s
}

// Record appends rec.
func (s *MemoryStore) Record(_ context.Context, rec UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrClosed
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	s.records = append(s.records, rec)
	return nil
}

// Recent returns up to limit unexpired records, newest first.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]UsageRecord, error) {
	live := s.live()
	sort.SliceStable(live, func(i, j int) bool { return live[i].CreatedAt.After(live[j].CreatedAt) })
	if limit > 0 && len(live) > limit {
		live = live[:limit]
	}
	return live, nil
}

// Summaries aggregates unexpired records per model.
func (s *MemoryStore) Summaries(_ context.Context) ([]Summary, error) {
	return summarize(s.live()), nil
}

// live copies the unexpired records in insertion order.
func (s *MemoryStore) live() []UsageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.now().Add(-s.retention)
	out := make([]UsageRecord, 0, len(s.records))
	for _, r := range s.records {
		if r.CreatedAt.After(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// Close stops the cleanup goroutine and clears data.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stopped {
		s.stopped = true
		close(s.stopChan)
		s.records = nil
	}
	return nil
}

// cleanup periodically removes expired records.
func (s *MemoryStore) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.prune()
		}
	}
}

func (s *MemoryStore) prune() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	cutoff := s.now().Add(-s.retention)
	kept := s.records[:0]
	for _, r := range s.records {
		if r.CreatedAt.After(cutoff) {
			kept = append(kept, r)
		}
	}
	s.records = kept
}

var _ Store = (*MemoryStore)(nil)
