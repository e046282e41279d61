// Package results keeps recently computed evaluations in a bounded cache so
// the report for a result page can be downloaded after the page renders.
package results

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"

	"retortweb/internal/extract"
	"retortweb/internal/lethality"
)

// Evaluation is one uploaded run together with everything computed from it.
type Evaluation struct {
	ID         string
	SourceName string
	CreatedAt  time.Time

	Config     lethality.Config
	Extraction *extract.Extraction
	Result     lethality.Result
}

// Passed reports whether the run met its holding-time requirement.
func (e *Evaluation) Passed() bool { return e.Result.HoldingTimeMet }

// NewID returns a fresh evaluation identifier.
func NewID() string { return uuid.NewString() }

// Store is a bounded, concurrency-safe evaluation cache.
type Store struct {
	cache *ristretto.Cache
}

// NewStore returns a Store holding roughly maxEntries evaluations.
func NewStore(maxEntries int) (*Store, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("results: maxEntries must be positive, got %d", maxEntries)
	}
	// Every entry costs 1, so MaxCost counts evaluations.
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        int64(maxEntries) * 10,
		MaxCost:            int64(maxEntries),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("results: new cache: %w", err)
	}
	return &Store{cache: c}, nil
}

// Put stores ev under ev.ID and reports whether the cache accepted it. The
// cache may drop or later evict the entry; callers treat a miss as "expired".
func (s *Store) Put(ev *Evaluation) bool {
	ok := s.cache.Set(ev.ID, ev, 1)
	s.cache.Wait()
	if !ok {
		slog.Warn("evaluation dropped by result cache", "id", ev.ID, "source", ev.SourceName)
	}
	return ok
}

// Get returns the evaluation for id.
func (s *Store) Get(id string) (*Evaluation, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	ev, ok := v.(*Evaluation)
	return ev, ok
}

// Close releases the cache's background goroutines.
func (s *Store) Close() {
	s.cache.Close()
}
