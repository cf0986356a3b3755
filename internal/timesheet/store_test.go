package timesheet

import (
	"context"
	"errors"
	"testing"

	"hourgrid/internal/core"
)

func TestSnapshotUnloadedMonth(t *testing.T) {
	s := NewStore(newFakeSource())
	if entries, loaded := s.Snapshot(feb2024()); loaded || entries != nil {
		t.Fatalf("expected unloaded month, got %v %v", entries, loaded)
	}
}

func TestApplyLocalOnUnloadedMonthIsNoOp(t *testing.T) {
	s := NewStore(newFakeSource())
	var sawNil bool
	s.ApplyLocal(feb2024(), func(entries []core.TimeEntry) []core.TimeEntry {
		sawNil = entries == nil
		return []core.TimeEntry{entry(9, "2024-02-01", "fabricated", 8)}
	})
	if !sawNil {
		t.Fatalf("transform should receive nil for an unloaded month")
	}
	if _, loaded := s.Snapshot(feb2024()); loaded {
		t.Fatalf("a local transform must not fabricate a never-fetched month")
	}
}

func TestApplyLocalVisibleToReaders(t *testing.T) {
	s := NewStore(newFakeSource(entry(1, "2024-02-02", "a", 8)))
	if err := s.Revalidate(context.Background(), feb2024()); err != nil {
		t.Fatalf("Revalidate: %v", err)
	}
	s.ApplyLocal(feb2024(), func(entries []core.TimeEntry) []core.TimeEntry {
		entries[0].Notes = "local guess"
		return entries
	})
	entries, loaded := s.Snapshot(feb2024())
	if !loaded || entries[0].Notes != "local guess" {
		t.Fatalf("local transform not visible: %+v", entries)
	}
}

func TestRevalidateDiscardsLocalState(t *testing.T) {
	src := newFakeSource(entry(1, "2024-02-02", "server", 8))
	s := NewStore(src)
	if err := s.Revalidate(context.Background(), feb2024()); err != nil {
		t.Fatalf("Revalidate: %v", err)
	}
	s.ApplyLocal(feb2024(), func(entries []core.TimeEntry) []core.TimeEntry {
		return append(entries, entry(99, "2024-02-09", "speculative", 8))
	})
	if err := s.Revalidate(context.Background(), feb2024()); err != nil {
		t.Fatalf("Revalidate: %v", err)
	}
	entries, _ := s.Snapshot(feb2024())
	if len(entries) != 1 || entries[0].Notes != "server" {
		t.Fatalf("revalidation must replace the cache wholesale: %+v", entries)
	}
}

func TestRevalidateFailureKeepsStaleCache(t *testing.T) {
	src := newFakeSource(entry(1, "2024-02-02", "stale but present", 8))
	s := NewStore(src)
	if err := s.Revalidate(context.Background(), feb2024()); err != nil {
		t.Fatalf("Revalidate: %v", err)
	}
	src.mu.Lock()
	src.listErr = errors.New("upstream down")
	src.mu.Unlock()
	if err := s.Revalidate(context.Background(), feb2024()); err == nil {
		t.Fatalf("expected revalidation error")
	}
	entries, loaded := s.Snapshot(feb2024())
	if !loaded || len(entries) != 1 {
		t.Fatalf("failed revalidation must not clobber the cache: %+v", entries)
	}
}

func TestMonthsDoNotShareState(t *testing.T) {
	src := newFakeSource(entry(1, "2024-02-02", "feb", 8))
	s := NewStore(src)
	if err := s.Revalidate(context.Background(), feb2024()); err != nil {
		t.Fatalf("Revalidate: %v", err)
	}
	march := MonthKey{Year: 2024, Month: 2}
	s.ApplyLocal(march, func(entries []core.TimeEntry) []core.TimeEntry {
		return append(entries, entry(2, "2024-03-01", "mar", 8))
	})
	febEntries, _ := s.Snapshot(feb2024())
	if len(febEntries) != 1 || febEntries[0].Notes != "feb" {
		t.Fatalf("months leaked state: %+v", febEntries)
	}
	if _, loaded := s.Snapshot(march); loaded {
		t.Fatalf("march was never fetched and must stay unloaded")
	}
}

func TestEnsureFetchesOnce(t *testing.T) {
	src := newFakeSource(entry(1, "2024-02-02", "a", 8))
	s := NewStore(src)
	for i := 0; i < 3; i++ {
		if _, err := s.Ensure(context.Background(), feb2024()); err != nil {
			t.Fatalf("Ensure: %v", err)
		}
	}
	if src.listCalls != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", src.listCalls)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore(newFakeSource(entry(1, "2024-02-02", "a", 8)))
	if err := s.Revalidate(context.Background(), feb2024()); err != nil {
		t.Fatalf("Revalidate: %v", err)
	}
	first, _ := s.Snapshot(feb2024())
	first[0].Notes = "mutated by reader"
	second, _ := s.Snapshot(feb2024())
	if second[0].Notes != "a" {
		t.Fatalf("snapshot aliases the cache")
	}
}

func TestMonthKeyString(t *testing.T) {
	if got := feb2024().String(); got != "2024-02" {
		t.Fatalf("MonthKey.String() = %q", got)
	}
	key, err := KeyForDate("2024-12-31")
	if err != nil {
		t.Fatalf("KeyForDate: %v", err)
	}
	if key.Year != 2024 || key.Month != 11 {
		t.Fatalf("KeyForDate = %+v", key)
	}
}
