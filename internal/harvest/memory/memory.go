// Package memory is an in-memory stand-in for the upstream provider. It backs
// the mock login flow and lets the service run without Harvest credentials.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hourgrid/internal/core"
	"hourgrid/internal/harvest"
)

type Store struct {
	mu      sync.Mutex
	nextID  int64
	entries []core.TimeEntry
}

var _ harvest.EntrySource = (*Store)(nil)

func New() *Store {
	return &Store{nextID: 1}
}

// Seed inserts an entry as-is, assigning an id when absent. Intended for
// startup fixtures and tests.
func (s *Store) Seed(entry core.TimeEntry) core.TimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == 0 {
		entry.ID = s.nextID
	}
	if entry.ID >= s.nextID {
		s.nextID = entry.ID + 1
	}
	s.entries = append(s.entries, entry)
	return entry
}

// ListEntries returns entries with spent dates inside [from, to].
func (s *Store) ListEntries(_ context.Context, from, to time.Time) ([]core.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.TimeEntry
	for _, e := range s.entries {
		d, err := core.ParseSpentDate(e.SpentDate)
		if err != nil {
			continue
		}
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) CreateEntry(_ context.Context, req harvest.CreateEntryRequest) harvest.Outcome {
	hours := decimal.Zero
	if req.Hours != nil {
		hours = *req.Hours
	}
	entry := core.TimeEntry{
		SpentDate: req.SpentDate,
		Hours:     hours,
		Notes:     req.Notes,
		Task:      core.TaskRef{ID: req.TaskID},
		Project:   core.ProjectRef{ID: req.ProjectID},
	}
	if err := entry.Validate(); err != nil {
		return harvest.Rejected(fmt.Sprintf("create entry: %v", err))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, entry)
	return harvest.Confirmed(entry)
}

func (s *Store) UpdateEntryNotes(_ context.Context, entryID int64, notes string) harvest.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID != entryID {
			continue
		}
		if e.IsLocked {
			return harvest.Rejected(fmt.Sprintf("update entry %d: %v", entryID, core.ErrEntryLocked))
		}
		s.entries[i].Notes = notes
		return harvest.Confirmed(s.entries[i])
	}
	return harvest.Rejected(fmt.Sprintf("update entry %d: %v", entryID, core.ErrEntryNotFound))
}

func (s *Store) DeleteEntry(_ context.Context, entryID int64) harvest.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID != entryID {
			continue
		}
		if e.IsLocked {
			return harvest.Rejected(fmt.Sprintf("delete entry %d: %v", entryID, core.ErrEntryLocked))
		}
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
		return harvest.Outcome{OK: true}
	}
	return harvest.Rejected(fmt.Sprintf("delete entry %d: %v", entryID, core.ErrEntryNotFound))
}
