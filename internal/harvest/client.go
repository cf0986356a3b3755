package harvest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hourgrid/internal/core"
)

// DefaultBaseURL is the Harvest v2 API root.
const DefaultBaseURL = "https://api.harvestapp.com/v2"

const userAgent = "hourgrid (timesheet grid)"

// Client talks to the Harvest v2 REST API on behalf of one account.
type Client struct {
	baseURL string
	creds   Credentials
	httpc   *http.Client
}

var _ EntrySource = (*Client)(nil)

// NewClient returns a client bound to the given credentials. baseURL may be
// empty to use the production API.
func NewClient(baseURL string, creds Credentials) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		creds:   creds,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// timeEntriesPage is the upstream paging envelope for entry listings.
type timeEntriesPage struct {
	TimeEntries []core.TimeEntry `json:"time_entries"`
	NextPage    *int             `json:"next_page"`
}

// ListEntries fetches every entry in [from, to], following pagination.
func (c *Client) ListEntries(ctx context.Context, from, to time.Time) ([]core.TimeEntry, error) {
	var all []core.TimeEntry
	page := 1
	for {
		q := url.Values{
			"from": {core.FormatSpentDate(from)},
			"to":   {core.FormatSpentDate(to)},
			"page": {strconv.Itoa(page)},
		}
		body, status, err := c.do(ctx, http.MethodGet, "/time_entries?"+q.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("list time entries: %w", err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("list time entries: upstream status %d: %s", status, truncate(body))
		}
		var pg timeEntriesPage
		if err := json.Unmarshal(body, &pg); err != nil {
			return nil, fmt.Errorf("decode time entries page: %w", err)
		}
		all = append(all, pg.TimeEntries...)
		if pg.NextPage == nil {
			return all, nil
		}
		page = *pg.NextPage
	}
}

// CreateEntry posts a new entry. The upstream confirms creation with 201 and
// the authoritative entry, id included.
func (c *Client) CreateEntry(ctx context.Context, req CreateEntryRequest) Outcome {
	payload, err := json.Marshal(req)
	if err != nil {
		return Rejected(fmt.Sprintf("encode create request: %v", err))
	}
	body, status, err := c.do(ctx, http.MethodPost, "/time_entries", payload)
	if err != nil {
		return Rejected(fmt.Sprintf("create entry: %v", err))
	}
	if status != http.StatusCreated {
		return Rejected(fmt.Sprintf("create entry: upstream status %d: %s", status, truncate(body)))
	}
	return decodeEntryOutcome(body)
}

// UpdateEntryNotes patches the notes field of an existing entry.
func (c *Client) UpdateEntryNotes(ctx context.Context, entryID int64, notes string) Outcome {
	payload, err := json.Marshal(map[string]string{"notes": notes})
	if err != nil {
		return Rejected(fmt.Sprintf("encode update request: %v", err))
	}
	body, status, err := c.do(ctx, http.MethodPatch, "/time_entries/"+strconv.FormatInt(entryID, 10), payload)
	if err != nil {
		return Rejected(fmt.Sprintf("update entry %d: %v", entryID, err))
	}
	if status != http.StatusOK {
		return Rejected(fmt.Sprintf("update entry %d: upstream status %d: %s", entryID, status, truncate(body)))
	}
	return decodeEntryOutcome(body)
}

// DeleteEntry removes an entry upstream.
func (c *Client) DeleteEntry(ctx context.Context, entryID int64) Outcome {
	body, status, err := c.do(ctx, http.MethodDelete, "/time_entries/"+strconv.FormatInt(entryID, 10), nil)
	if err != nil {
		return Rejected(fmt.Sprintf("delete entry %d: %v", entryID, err))
	}
	if status != http.StatusOK {
		return Rejected(fmt.Sprintf("delete entry %d: upstream status %d: %s", entryID, status, truncate(body)))
	}
	return Outcome{OK: true}
}

// do sends one request with auth headers and returns the raw body and status.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.AccessToken)
	req.Header.Set("Harvest-Account-Id", c.creds.AccountID)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}
	slog.DebugContext(ctx, "Harvest call", "method", method, "path", path, "status", resp.StatusCode)
	return body, resp.StatusCode, nil
}

func decodeEntryOutcome(body []byte) Outcome {
	var entry core.TimeEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return Rejected(fmt.Sprintf("decode entry response: %v", err))
	}
	return Confirmed(entry)
}

func truncate(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
