package timesheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"hourgrid/internal/core"
	"hourgrid/internal/harvest"
	"hourgrid/internal/tasks"
)

// ErrSyncFailed marks an upstream rejection. By the time callers see it the
// cache has already been revalidated; no optimistic state survives.
var ErrSyncFailed = errors.New("upstream sync failed")

// ErrNotMonday rejects week creation from any other starting day.
var ErrNotMonday = errors.New("week creation must start on a Monday")

// Engine orchestrates mutations against the upstream system following the
// optimistic-commit-or-revalidate protocol: apply or withhold a local guess,
// run exactly one network call, then either commit the server's authoritative
// response or discard everything local and refetch.
type Engine struct {
	source harvest.EntrySource
	store  *Store
	table  *tasks.Table
}

func NewEngine(source harvest.EntrySource, table *tasks.Table) *Engine {
	return &Engine{source: source, store: NewStore(source), table: table}
}

// Store exposes the underlying month cache for read-side consumers.
func (e *Engine) Store() *Store { return e.store }

// Table returns the rule table the engine classifies entries with.
func (e *Engine) Table() *tasks.Table { return e.table }

// MonthEntries returns the reconciled entry list for a month, fetching it on
// first access.
func (e *Engine) MonthEntries(ctx context.Context, key MonthKey) ([]core.TimeEntry, error) {
	return e.store.Ensure(ctx, key)
}

// CreateEntry creates one entry for the given day. The entry is inserted
// locally only once the server confirms it exists; repeated retries therefore
// never produce duplicate-looking rows. When hours is nil the rule's default
// hours apply (or the generic fallback for unclassified tasks).
func (e *Engine) CreateEntry(ctx context.Context, date string, projectID, taskID int64, hours *decimal.Decimal) (core.TimeEntry, error) {
	key, err := KeyForDate(date)
	if err != nil {
		return core.TimeEntry{}, err
	}
	req := harvest.CreateEntryRequest{
		SpentDate: date,
		ProjectID: projectID,
		TaskID:    taskID,
		Hours:     hours,
	}
	if req.Hours == nil {
		h := e.defaultHours(taskID)
		req.Hours = &h
	}

	out := e.source.CreateEntry(ctx, req)
	if !out.OK {
		e.recover(ctx, key, "create", out.Reason)
		return core.TimeEntry{}, fmt.Errorf("%w: %s", ErrSyncFailed, out.Reason)
	}
	e.store.ApplyLocal(key, func(entries []core.TimeEntry) []core.TimeEntry {
		return sortedAppend(entries, out.Entry)
	})
	return out.Entry, nil
}

// UpdateEntryNote replaces the notes of an entry. Saving an unchanged note is
// a silent no-op: zero network calls, cache untouched.
func (e *Engine) UpdateEntryNote(ctx context.Context, key MonthKey, entryID int64, notes string) (core.TimeEntry, error) {
	current, err := e.findEntry(ctx, key, entryID)
	if err != nil {
		return core.TimeEntry{}, err
	}
	if current.IsLocked {
		return core.TimeEntry{}, core.ErrEntryLocked
	}
	if current.Notes == notes {
		return current, nil
	}

	out := e.source.UpdateEntryNotes(ctx, entryID, notes)
	if !out.OK {
		e.recover(ctx, key, "update", out.Reason)
		return core.TimeEntry{}, fmt.Errorf("%w: %s", ErrSyncFailed, out.Reason)
	}
	e.store.ApplyLocal(key, func(entries []core.TimeEntry) []core.TimeEntry {
		for i := range entries {
			if entries[i].ID == out.Entry.ID {
				entries[i] = out.Entry
				break
			}
		}
		return entries
	})
	return out.Entry, nil
}

// DeleteEntry removes an entry. The optimistic removal is applied immediately
// and unconditionally since deletion has no ambiguous local representation;
// a failed network call restores truth through revalidation.
func (e *Engine) DeleteEntry(ctx context.Context, key MonthKey, entryID int64) error {
	current, err := e.findEntry(ctx, key, entryID)
	if err != nil {
		return err
	}
	if current.IsLocked {
		return core.ErrEntryLocked
	}

	e.store.ApplyLocal(key, func(entries []core.TimeEntry) []core.TimeEntry {
		kept := entries[:0]
		for _, entry := range entries {
			if entry.ID != entryID {
				kept = append(kept, entry)
			}
		}
		return kept
	})

	out := e.source.DeleteEntry(ctx, entryID)
	if !out.OK {
		e.recover(ctx, key, "delete", out.Reason)
		return fmt.Errorf("%w: %s", ErrSyncFailed, out.Reason)
	}
	return nil
}

// CreateWeek creates batch-fill entries for Monday through Friday of the week
// starting at monday. The five upstream calls run concurrently and the commit
// is all-or-nothing at the list level: unless every call succeeds, nothing is
// appended and a single revalidation restores truth, so a partial batch is
// never presented as success.
func (e *Engine) CreateWeek(ctx context.Context, monday string) ([]core.TimeEntry, error) {
	start, err := core.ParseSpentDate(monday)
	if err != nil {
		return nil, err
	}
	if start.Weekday() != time.Monday {
		return nil, ErrNotMonday
	}
	key, _ := KeyForDate(monday)

	rule := e.table.BatchFill()
	outcomes := make([]harvest.Outcome, 5)
	var g errgroup.Group
	for i := 0; i < 5; i++ {
		i := i
		date := core.FormatSpentDate(start.AddDate(0, 0, i))
		g.Go(func() error {
			hours := rule.DefaultHours
			outcomes[i] = e.source.CreateEntry(ctx, harvest.CreateEntryRequest{
				SpentDate: date,
				ProjectID: rule.HarvestProjectID,
				TaskID:    rule.HarvestTaskID,
				Hours:     &hours,
			})
			return nil
		})
	}
	_ = g.Wait()

	created := make([]core.TimeEntry, 0, len(outcomes))
	for _, out := range outcomes {
		if !out.OK {
			e.recover(ctx, key, "create week", out.Reason)
			return nil, fmt.Errorf("%w: %s", ErrSyncFailed, out.Reason)
		}
		created = append(created, out.Entry)
	}
	e.store.ApplyLocal(key, func(entries []core.TimeEntry) []core.TimeEntry {
		return sortedAppend(entries, created...)
	})
	return created, nil
}

// findEntry loads the month if needed and locates the entry by id.
func (e *Engine) findEntry(ctx context.Context, key MonthKey, entryID int64) (core.TimeEntry, error) {
	entries, err := e.store.Ensure(ctx, key)
	if err != nil {
		return core.TimeEntry{}, err
	}
	for _, entry := range entries {
		if entry.ID == entryID {
			return entry, nil
		}
	}
	return core.TimeEntry{}, core.ErrEntryNotFound
}

// recover discards local guesses after a failed call. Revalidation is
// best-effort: if it also fails the cache stays stale and the error is only
// logged.
func (e *Engine) recover(ctx context.Context, key MonthKey, op, reason string) {
	slog.WarnContext(ctx, "Upstream call failed, revalidating month",
		"operation", op, "month", key.String(), "reason", reason)
	if err := e.store.Revalidate(ctx, key); err != nil {
		slog.ErrorContext(ctx, "Revalidation failed, cache left stale",
			"operation", op, "month", key.String(), "error", err)
	}
}

func (e *Engine) defaultHours(taskID int64) decimal.Decimal {
	if rule, ok := e.table.RuleForTask(taskID); ok {
		return rule.DefaultHours
	}
	return decimal.NewFromInt(tasks.FallbackHours)
}

// sortedAppend appends entries and re-sorts by spent date descending. The
// sort is stable: entries sharing a date keep their arrival order.
func sortedAppend(entries []core.TimeEntry, add ...core.TimeEntry) []core.TimeEntry {
	entries = append(entries, add...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SpentDate > entries[j].SpentDate
	})
	return entries
}
