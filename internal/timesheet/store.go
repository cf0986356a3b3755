// Package timesheet holds the month-keyed entry cache, the optimistic
// synchronization engine and the summary aggregator.
package timesheet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hourgrid/internal/calendar"
	"hourgrid/internal/core"
	"hourgrid/internal/harvest"
)

// MonthKey addresses one cached month. Month is zero-based (0 = January),
// matching the month index the grid UI navigates with. Two different keys
// never share mutable state.
type MonthKey struct {
	Year  int
	Month int
}

// KeyForDate derives the month key owning a "YYYY-MM-DD" date.
func KeyForDate(spentDate string) (MonthKey, error) {
	d, err := core.ParseSpentDate(spentDate)
	if err != nil {
		return MonthKey{}, err
	}
	return MonthKey{Year: d.Year(), Month: int(d.Month()) - 1}, nil
}

// Bounds returns the first and last calendar date of the keyed month.
func (k MonthKey) Bounds() (first, last time.Time) {
	return calendar.MonthBounds(k.Year, k.Month)
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month+1)
}

// monthCache is the mutable slice for one month. loaded distinguishes "no
// entries" from "never fetched".
type monthCache struct {
	loaded  bool
	entries []core.TimeEntry
}

// Store is the per-month entry cache. All mutation funnels through ApplyLocal
// and Revalidate; readers always see either the last server truth or the
// result of the most recent local transform, never a torn mix.
type Store struct {
	source harvest.EntrySource

	mu     sync.Mutex
	months map[MonthKey]*monthCache
}

func NewStore(source harvest.EntrySource) *Store {
	return &Store{source: source, months: make(map[MonthKey]*monthCache)}
}

func (s *Store) cacheFor(key MonthKey) *monthCache {
	if c, ok := s.months[key]; ok {
		return c
	}
	c := &monthCache{}
	s.months[key] = c
	return c
}

// Snapshot returns a copy of the cached list and whether the month has been
// loaded at all.
func (s *Store) Snapshot(key MonthKey) ([]core.TimeEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cacheFor(key)
	if !c.loaded {
		return nil, false
	}
	out := make([]core.TimeEntry, len(c.entries))
	copy(out, c.entries)
	return out, true
}

// ApplyLocal replaces the cached list with transform applied to the current
// one. The transform runs synchronously under the cache lock and receives nil
// when the month was never loaded; in that case its result is discarded, so
// an optimistic guess cannot fabricate a month that was never fetched.
// ApplyLocal never contacts the network and never represents final truth: a
// commit or a revalidation always follows.
func (s *Store) ApplyLocal(key MonthKey, transform func(entries []core.TimeEntry) []core.TimeEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cacheFor(key)
	if !c.loaded {
		transform(nil)
		return
	}
	c.entries = transform(c.entries)
}

// Revalidate refetches the month from upstream and replaces the cache
// unconditionally, discarding any local-only state. It is the single
// recovery mechanism for any inconsistency. On fetch failure the cache is
// left as it was, stale; there is no further fallback layer.
func (s *Store) Revalidate(ctx context.Context, key MonthKey) error {
	first, last := key.Bounds()
	entries, err := s.source.ListEntries(ctx, first, last)
	if err != nil {
		return fmt.Errorf("revalidate %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cacheFor(key)
	c.loaded = true
	c.entries = entries
	return nil
}

// Ensure loads the month if it was never fetched and returns a snapshot.
func (s *Store) Ensure(ctx context.Context, key MonthKey) ([]core.TimeEntry, error) {
	if entries, ok := s.Snapshot(key); ok {
		return entries, nil
	}
	if err := s.Revalidate(ctx, key); err != nil {
		return nil, err
	}
	entries, _ := s.Snapshot(key)
	return entries, nil
}
