// Package harvest is the boundary to the upstream time-tracking provider.
package harvest

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"hourgrid/internal/core"
)

// Credentials authorize requests against one upstream account.
type Credentials struct {
	AccessToken string
	AccountID   string
}

// CreateEntryRequest is the payload for creating one time entry. Hours is
// optional; the upstream default applies when nil.
type CreateEntryRequest struct {
	SpentDate string           `json:"spent_date"`
	ProjectID int64            `json:"project_id"`
	TaskID    int64            `json:"task_id"`
	Hours     *decimal.Decimal `json:"hours,omitempty"`
	Notes     string           `json:"notes,omitempty"`
}

// Outcome is the result of one mutating upstream call. A transport failure
// and an application-level rejection are deliberately indistinguishable:
// both recover through full revalidation, never through retry.
type Outcome struct {
	OK     bool
	Entry  core.TimeEntry
	Reason string
}

// Confirmed wraps the authoritative entry the upstream returned.
func Confirmed(entry core.TimeEntry) Outcome {
	return Outcome{OK: true, Entry: entry}
}

// Rejected marks the call as failed with a human-readable reason.
func Rejected(reason string) Outcome {
	return Outcome{Reason: reason}
}

// EntrySource is the port every upstream backend implements.
type EntrySource interface {
	// ListEntries returns all entries with spent dates in [from, to].
	ListEntries(ctx context.Context, from, to time.Time) ([]core.TimeEntry, error)

	// CreateEntry asks the upstream to create an entry and reports the
	// authoritative copy on success.
	CreateEntry(ctx context.Context, req CreateEntryRequest) Outcome

	// UpdateEntryNotes replaces the notes of an existing entry.
	UpdateEntryNotes(ctx context.Context, entryID int64, notes string) Outcome

	// DeleteEntry removes an entry. The returned outcome carries no payload.
	DeleteEntry(ctx context.Context, entryID int64) Outcome
}
