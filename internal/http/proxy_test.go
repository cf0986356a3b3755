package http

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hourgrid/internal/log"
	"hourgrid/internal/session"
)

func newProxyTestStack(t *testing.T) (*proxyHandler, *httptest.Server, *int64) {
	t.Helper()
	var hits int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		if r.Header.Get("Authorization") != "Bearer token-1" {
			t.Errorf("Authorization = %q, want bearer token", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Harvest-Account-Id") != "42" {
			t.Errorf("Harvest-Account-Id = %q, want 42", r.Header.Get("Harvest-Account-Id"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":7}`))
	}))
	t.Cleanup(upstream.Close)

	p := newProxyHandler(upstream.URL, 16, time.Minute, log.New(log.DefaultConfig()))
	return p, upstream, &hits
}

func proxyRequest(p *proxyHandler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	ctx := session.WithSession(req.Context(), session.Session{AccessToken: "token-1", AccountID: "42"})
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func TestProxyForwardsWithCredentials(t *testing.T) {
	p, _, hits := newProxyTestStack(t)

	rec := proxyRequest(p, "/time_entries?from=2024-02-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != `{"id":7}` {
		t.Fatalf("body = %s, want upstream body", got)
	}
	if *hits != 1 {
		t.Fatalf("upstream hits = %d, want 1", *hits)
	}
}

func TestProxyCachesSlowMovingLookups(t *testing.T) {
	p, _, hits := newProxyTestStack(t)

	for i := 0; i < 3; i++ {
		rec := proxyRequest(p, "/users/me/project_assignments")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want %d", i, rec.Code, http.StatusOK)
		}
	}
	if *hits != 1 {
		t.Fatalf("upstream hits = %d, want 1 (cached)", *hits)
	}

	// Other paths bypass the cache entirely.
	proxyRequest(p, "/time_entries")
	proxyRequest(p, "/time_entries")
	if *hits != 3 {
		t.Fatalf("upstream hits = %d, want 3", *hits)
	}
}

func TestProxyCacheIsPerAccount(t *testing.T) {
	var hits int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	p := newProxyHandler(upstream.URL, 16, time.Minute, log.New(log.DefaultConfig()))

	for _, account := range []string{"1", "2"} {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		ctx := session.WithSession(req.Context(), session.Session{AccessToken: "t", AccountID: account})
		rec := httptest.NewRecorder()
		p.ServeHTTP(rec, req.WithContext(ctx))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	}
	if hits != 2 {
		t.Fatalf("upstream hits = %d, want 2 (one per account)", hits)
	}
}

func TestProxyRejectsMissingSession(t *testing.T) {
	p := newProxyHandler("http://upstream.invalid", 16, time.Minute, log.New(log.DefaultConfig()))

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestProxyUpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	p := newProxyHandler(upstream.URL, 16, time.Minute, log.New(log.DefaultConfig()))
	rec := proxyRequest(p, "/users/me")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}
