package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SpentDateLayout is the calendar date format used by Harvest ("YYYY-MM-DD").
const SpentDateLayout = "2006-01-02"

func init() {
	// Harvest sends hours as bare JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type (
	// TaskRef identifies the task a time entry is booked against.
	TaskRef struct {
		ID   int64  `json:"id"`
		Name string `json:"name,omitempty"`
	}

	// ProjectRef identifies the project a time entry belongs to.
	ProjectRef struct {
		ID int64 `json:"id"`
	}

	// TimeEntry is one unit of logged work. The upstream system assigns
	// the ID; entries that have not been created yet carry a zero ID.
	TimeEntry struct {
		ID           int64           `json:"id"`
		SpentDate    string          `json:"spent_date"`
		Hours        decimal.Decimal `json:"hours"`
		Notes        string          `json:"notes"`
		Task         TaskRef         `json:"task"`
		Project      ProjectRef      `json:"project"`
		IsLocked     bool            `json:"is_locked"`
		LockedReason string          `json:"locked_reason,omitempty"`
	}
)

var (
	ErrInvalidSpentDate = errors.New("invalid spent date")
	ErrNegativeHours    = errors.New("hours cannot be negative")
	ErrMissingTask      = errors.New("missing task reference")
	ErrMissingProject   = errors.New("missing project reference")
	ErrEntryLocked      = errors.New("entry is locked")
	ErrEntryNotFound    = errors.New("entry not found")
)

// ParseSpentDate parses a "YYYY-MM-DD" date string into a UTC time.
func ParseSpentDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(SpentDateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidSpentDate
	}
	return t, nil
}

// FormatSpentDate renders t in the upstream date format.
func FormatSpentDate(t time.Time) string {
	return t.Format(SpentDateLayout)
}

func (e TimeEntry) Validate() error {
	if _, err := ParseSpentDate(e.SpentDate); err != nil {
		return err
	}
	if e.Hours.IsNegative() {
		return ErrNegativeHours
	}
	if e.Task.ID == 0 {
		return ErrMissingTask
	}
	if e.Project.ID == 0 {
		return ErrMissingProject
	}
	return nil
}

// HasNotes reports whether the entry carries a non-empty note.
func (e TimeEntry) HasNotes() bool {
	return strings.TrimSpace(e.Notes) != ""
}
