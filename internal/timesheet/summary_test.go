package timesheet

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"hourgrid/internal/core"
)

func TestSummarizeMissingNotes(t *testing.T) {
	tbl := testTable(t)
	entries := []core.TimeEntry{
		// Billable project requires notes; this one is missing them.
		{ID: 1, SpentDate: "2024-02-01", Hours: decimal.NewFromInt(8), Task: core.TaskRef{ID: 100}, Project: core.ProjectRef{ID: 10}},
		// Vacation project does not require notes.
		{ID: 2, SpentDate: "2024-02-02", Hours: decimal.NewFromInt(8), Task: core.TaskRef{ID: 200}, Project: core.ProjectRef{ID: 20}},
	}
	s := Summarize(tbl, entries, feb2024())
	if s.MissingNotes != 1 {
		t.Fatalf("MissingNotes = %d, want 1", s.MissingNotes)
	}
}

func TestSummarizeHours(t *testing.T) {
	tbl := testTable(t)
	entries := []core.TimeEntry{
		{ID: 1, SpentDate: "2024-02-01", Hours: decimal.NewFromFloat(7.5), Notes: "x", Task: core.TaskRef{ID: 100}, Project: core.ProjectRef{ID: 10}},
		{ID: 2, SpentDate: "2024-02-02", Hours: decimal.NewFromFloat(0.5), Notes: "y", Task: core.TaskRef{ID: 100}, Project: core.ProjectRef{ID: 10}},
		{ID: 3, SpentDate: "2024-02-05", Hours: decimal.NewFromInt(8), Task: core.TaskRef{ID: 200}, Project: core.ProjectRef{ID: 20}},
	}
	s := Summarize(tbl, entries, feb2024())
	if !s.TrackedHours.Equal(decimal.NewFromInt(16)) {
		t.Fatalf("TrackedHours = %s, want 16", s.TrackedHours)
	}
	// Task 100 is the primary task in the test table.
	if !s.PrimaryTaskHours.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("PrimaryTaskHours = %s, want 8", s.PrimaryTaskHours)
	}
	// February 2024 has 21 business days.
	if !s.ExpectedHours.Equal(decimal.NewFromInt(168)) {
		t.Fatalf("ExpectedHours = %s, want 168", s.ExpectedHours)
	}
}

func TestSummarizeEmptyMonth(t *testing.T) {
	s := Summarize(testTable(t), nil, feb2024())
	if s.MissingNotes != 0 || !s.TrackedHours.IsZero() || !s.PrimaryTaskHours.IsZero() {
		t.Fatalf("unexpected summary for empty month: %+v", s)
	}
}

func TestMonthViewRowsDescendingWithEmptyDays(t *testing.T) {
	src := newFakeSource(
		entry(1, "2024-02-02", "a", 8),
		entry(2, "2024-02-02", "b", 8),
		entry(3, "2024-02-15", "c", 8),
	)
	e := NewEngine(src, testTable(t))

	view, err := e.MonthView(context.Background(), feb2024())
	if err != nil {
		t.Fatalf("MonthView: %v", err)
	}
	if len(view.Days) != 29 {
		t.Fatalf("expected 29 rows, got %d", len(view.Days))
	}
	if view.Days[0].Date != "2024-02-29" || view.Days[28].Date != "2024-02-01" {
		t.Fatalf("rows not newest-first: %s .. %s", view.Days[0].Date, view.Days[28].Date)
	}
	var feb2 DayRow
	for _, row := range view.Days {
		if row.Date == "2024-02-02" {
			feb2 = row
		}
	}
	if len(feb2.Entries) != 2 {
		t.Fatalf("expected both entries on 2024-02-02, got %+v", feb2.Entries)
	}
	if len(view.Options) == 0 {
		t.Fatalf("creation options missing")
	}
	if !view.Summary.TrackedHours.Equal(decimal.NewFromInt(24)) {
		t.Fatalf("summary not derived from entries: %+v", view.Summary)
	}
}
