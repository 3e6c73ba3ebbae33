package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"bilancio/internal/core"
)

// MemoryStore backs the aggregate cache with go-cache. Expiry handles the
// freshness window; per-subject invalidation scans the item map, which go-cache
// exposes as a snapshot safe for concurrent use.
type MemoryStore struct {
	entries   *gocache.Cache
	freshness time.Duration
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store with the given freshness window. A zero
// or negative freshness falls back to DefaultFreshness.
func NewMemoryStore(freshness time.Duration) *MemoryStore {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &MemoryStore{
		entries:   gocache.New(freshness, 2*freshness),
		freshness: freshness,
	}
}

func (s *MemoryStore) GetOrCompute(ctx context.Context, key core.PeriodKey, fn ComputeFunc) (Entry, bool, error) {
	if v, ok := s.entries.Get(key.String()); ok {
		if entry, ok := v.(Entry); ok {
			return entry, true, nil
		}
	}
	entry, err := s.compute(ctx, key, fn)
	return entry, false, err
}

func (s *MemoryStore) Refresh(ctx context.Context, key core.PeriodKey, fn ComputeFunc) (Entry, error) {
	return s.compute(ctx, key, fn)
}

func (s *MemoryStore) compute(ctx context.Context, key core.PeriodKey, fn ComputeFunc) (Entry, error) {
	agg, err := fn(ctx)
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{Aggregate: agg, ComputedAt: time.Now()}
	s.entries.Set(key.String(), entry, gocache.DefaultExpiration)
	slog.DebugContext(ctx, "Aggregate cached", "key", key.String(), "freshness", s.freshness)
	return entry, nil
}

func (s *MemoryStore) Invalidate(key core.PeriodKey) {
	s.entries.Delete(key.String())
}

func (s *MemoryStore) InvalidateSubject(subjectID string) {
	prefix := core.SubjectPrefix(subjectID)
	removed := 0
	for k := range s.entries.Items() {
		if strings.HasPrefix(k, prefix) {
			s.entries.Delete(k)
			removed++
		}
	}
	slog.Debug("Subject cache invalidated", "subject_id", subjectID, "removed", removed)
}

// Size returns the number of live entries, expired ones included until the
// janitor sweeps them.
func (s *MemoryStore) Size() int {
	return s.entries.ItemCount()
}
