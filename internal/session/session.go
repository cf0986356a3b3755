// Package session holds the cookie-based auth state: an upstream access
// token and account id, populated by the OAuth handshake or the mock login.
package session

import (
	"net/http"

	"hourgrid/internal/harvest"
)

const (
	cookieAccessToken = "HARVEST_ACCESS_TOKEN"
	cookieAccountID   = "HARVEST_ACCOUNT_ID"
)

// MockAccessToken is the fixed token the mock login issues. Requests carrying
// it are served from the in-memory backend instead of the real upstream.
const MockAccessToken = "hourgrid-mock-token"

// Session is the auth state of one request.
type Session struct {
	AccessToken string
	AccountID   string
}

// IsMock reports whether this session came from the mock login.
func (s Session) IsMock() bool {
	return s.AccessToken == MockAccessToken
}

// Credentials converts the session into upstream credentials.
func (s Session) Credentials() harvest.Credentials {
	return harvest.Credentials{AccessToken: s.AccessToken, AccountID: s.AccountID}
}

// FromRequest reads the session cookies. ok is false when either cookie is
// missing or empty; such requests never reach a mutating operation.
func FromRequest(r *http.Request) (Session, bool) {
	token, err := r.Cookie(cookieAccessToken)
	if err != nil || token.Value == "" {
		return Session{}, false
	}
	account, err := r.Cookie(cookieAccountID)
	if err != nil || account.Value == "" {
		return Session{}, false
	}
	return Session{AccessToken: token.Value, AccountID: account.Value}, true
}

// Write sets the session cookies on the response.
func Write(w http.ResponseWriter, s Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieAccessToken,
		Value:    s.AccessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     cookieAccountID,
		Value:    s.AccountID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookies.
func Clear(w http.ResponseWriter) {
	for _, name := range []string{cookieAccessToken, cookieAccountID} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
}

// RequireAuth rejects requests without a session before they reach any
// operation. The session lands in the request context via WithSession.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := FromRequest(r)
		if !ok {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}
