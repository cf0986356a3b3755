package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := FromRequest(r); ok {
		t.Fatalf("expected no session without cookies")
	}

	r.AddCookie(&http.Cookie{Name: "HARVEST_ACCESS_TOKEN", Value: "tok"})
	if _, ok := FromRequest(r); ok {
		t.Fatalf("token alone is not a session")
	}

	r.AddCookie(&http.Cookie{Name: "HARVEST_ACCOUNT_ID", Value: "42"})
	s, ok := FromRequest(r)
	if !ok || s.AccessToken != "tok" || s.AccountID != "42" {
		t.Fatalf("unexpected session: %+v %v", s, ok)
	}
}

func TestWriteThenRead(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, Session{AccessToken: "tok", AccountID: "42"})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	s, ok := FromRequest(r)
	if !ok || s.AccessToken != "tok" || s.AccountID != "42" {
		t.Fatalf("round trip failed: %+v %v", s, ok)
	}
}

func TestRequireAuth(t *testing.T) {
	var sawSession Session
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawSession, _ = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "HARVEST_ACCESS_TOKEN", Value: "tok"})
	r.AddCookie(&http.Cookie{Name: "HARVEST_ACCOUNT_ID", Value: "42"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d", rec.Code)
	}
	if sawSession.AccountID != "42" {
		t.Fatalf("session not propagated to context: %+v", sawSession)
	}
}

func TestMockSession(t *testing.T) {
	rec := httptest.NewRecorder()
	MockLoginHandler()(rec, httptest.NewRequest(http.MethodGet, "/auth/mock", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	s, ok := FromRequest(r)
	if !ok || !s.IsMock() {
		t.Fatalf("mock login should establish a mock session: %+v %v", s, ok)
	}
}
