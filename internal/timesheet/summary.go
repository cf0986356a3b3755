package timesheet

import (
	"github.com/shopspring/decimal"

	"hourgrid/internal/calendar"
	"hourgrid/internal/core"
	"hourgrid/internal/tasks"
)

// Summary is the derived month-level metric set. It is recomputed from the
// current cache snapshot on every read, never cached: the store exposes no
// torn state, so recomputation is always consistent with the last committed
// or revalidated list.
type Summary struct {
	MissingNotes     int             `json:"missing_notes"`
	TrackedHours     decimal.Decimal `json:"tracked_hours"`
	ExpectedHours    decimal.Decimal `json:"expected_hours"`
	PrimaryTaskHours decimal.Decimal `json:"primary_task_hours"`
}

// Summarize scans the reconciled entry set for one month.
func Summarize(table *tasks.Table, entries []core.TimeEntry, key MonthKey) Summary {
	s := Summary{
		TrackedHours:     decimal.Zero,
		PrimaryTaskHours: decimal.Zero,
		ExpectedHours: decimal.NewFromInt(
			int64(calendar.WeekdayCount(key.Year, key.Month)) * calendar.StandardWorkdayHours),
	}
	primaryTaskID := table.Primary().HarvestTaskID
	for _, entry := range entries {
		s.TrackedHours = s.TrackedHours.Add(entry.Hours)
		if entry.Task.ID == primaryTaskID {
			s.PrimaryTaskHours = s.PrimaryTaskHours.Add(entry.Hours)
		}
		// Note requirements are matched by project: every task of a
		// note-requiring project counts when its note is empty.
		if entry.Notes == "" {
			if rule, ok := table.RuleForProject(entry.Project.ID); ok && rule.NoteRequired {
				s.MissingNotes++
			}
		}
	}
	return s
}
