package harvest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testCreds() Credentials {
	return Credentials{AccessToken: "token-123", AccountID: "999"}
}

func TestListEntriesPagingAndHeaders(t *testing.T) {
	var sawAuth, sawAccount string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		sawAccount = r.Header.Get("Harvest-Account-Id")
		if r.URL.Path != "/time_entries" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(`{"time_entries":[{"id":1,"spent_date":"2024-02-02","hours":8,"task":{"id":5},"project":{"id":6}}],"next_page":2}`))
		case "2":
			w.Write([]byte(`{"time_entries":[{"id":2,"spent_date":"2024-02-01","hours":7.5,"task":{"id":5},"project":{"id":6}}],"next_page":null}`))
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testCreds())
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	entries, err := c.ListEntries(context.Background(), from, to)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries across pages, got %d", len(entries))
	}
	if sawAuth != "Bearer token-123" {
		t.Fatalf("missing bearer header, got %q", sawAuth)
	}
	if sawAccount != "999" {
		t.Fatalf("missing account header, got %q", sawAccount)
	}
	if !entries[1].Hours.Equal(decimal.NewFromFloat(7.5)) {
		t.Fatalf("hours decoded wrong: %s", entries[1].Hours)
	}
}

func TestCreateEntryOutcomes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":42,"spent_date":"2024-02-05","hours":8,"task":{"id":5},"project":{"id":6}}`))
	}))
	defer srv.Close()

	hours := decimal.NewFromInt(8)
	out := NewClient(srv.URL, testCreds()).CreateEntry(context.Background(), CreateEntryRequest{
		SpentDate: "2024-02-05", ProjectID: 6, TaskID: 5, Hours: &hours,
	})
	if !out.OK {
		t.Fatalf("expected confirmed outcome, got %+v", out)
	}
	if out.Entry.ID != 42 {
		t.Fatalf("expected server-assigned id 42, got %d", out.Entry.ID)
	}
}

func TestCreateEntryRejectedOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid task"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	out := NewClient(srv.URL, testCreds()).CreateEntry(context.Background(), CreateEntryRequest{
		SpentDate: "2024-02-05", ProjectID: 6, TaskID: 5,
	})
	if out.OK {
		t.Fatalf("expected rejection")
	}
	if !strings.Contains(out.Reason, "422") {
		t.Fatalf("reason should carry the status, got %q", out.Reason)
	}
}

func TestCreateEntryRejectedOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	out := NewClient(srv.URL, testCreds()).CreateEntry(context.Background(), CreateEntryRequest{
		SpentDate: "2024-02-05", ProjectID: 6, TaskID: 5,
	})
	if out.OK {
		t.Fatalf("expected rejection on transport failure")
	}
}

func TestUpdateAndDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			if r.URL.Path != "/time_entries/7" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"id":7,"spent_date":"2024-02-05","hours":8,"notes":"updated","task":{"id":5},"project":{"id":6}}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testCreds())
	out := c.UpdateEntryNotes(context.Background(), 7, "updated")
	if !out.OK || out.Entry.Notes != "updated" {
		t.Fatalf("update outcome: %+v", out)
	}
	if out := c.DeleteEntry(context.Background(), 7); !out.OK {
		t.Fatalf("delete outcome: %+v", out)
	}
}
