package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	harvestAuthURL     = "https://id.getharvest.com/oauth2/authorize"
	harvestTokenURL    = "https://id.getharvest.com/api/v2/oauth2/token"
	harvestAccountsURL = "https://id.getharvest.com/api/v2/accounts"

	stateCookie = "OAUTH_STATE"
)

// OAuth runs the authorization-code handshake against the upstream identity
// service and turns the granted token into session cookies.
type OAuth struct {
	cfg         *oauth2.Config
	accountsURL string
}

// NewOAuth configures the handshake. accountsURL may be empty to use the
// production identity service.
func NewOAuth(clientID, clientSecret, redirectURL, accountsURL string) *OAuth {
	if accountsURL == "" {
		accountsURL = harvestAccountsURL
	}
	return &OAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  harvestAuthURL,
				TokenURL: harvestTokenURL,
			},
		},
		accountsURL: accountsURL,
	}
}

// LoginHandler redirects the browser to the upstream consent page.
func (o *OAuth) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Path:     "/",
			HttpOnly: true,
			MaxAge:   300,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, o.cfg.AuthCodeURL(state), http.StatusFound)
	}
}

// CallbackHandler exchanges the authorization code, resolves the account id
// and establishes the session.
func (o *OAuth) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stateC, err := r.Cookie(stateCookie)
		if err != nil || stateC.Value == "" || stateC.Value != r.URL.Query().Get("state") {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		tok, err := o.cfg.Exchange(r.Context(), code)
		if err != nil {
			slog.ErrorContext(r.Context(), "OAuth code exchange failed", "error", err)
			http.Error(w, "code exchange failed", http.StatusBadGateway)
			return
		}

		accountID, err := o.resolveAccountID(r.Context(), tok.AccessToken)
		if err != nil {
			slog.ErrorContext(r.Context(), "Account resolution failed", "error", err)
			http.Error(w, "account resolution failed", http.StatusBadGateway)
			return
		}

		Write(w, Session{AccessToken: tok.AccessToken, AccountID: accountID})
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// MockLoginHandler establishes a session against the in-memory backend.
// Intended for end-to-end tests and credential-less local runs.
func MockLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		Write(w, Session{AccessToken: MockAccessToken, AccountID: "0"})
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// accountsResponse is the identity service's account listing.
type accountsResponse struct {
	Accounts []struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Product string `json:"product"`
	} `json:"accounts"`
}

// resolveAccountID picks the first time-tracking account the token grants.
func (o *OAuth) resolveAccountID(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.accountsURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("list accounts: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read accounts response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("list accounts: status %d", resp.StatusCode)
	}
	var accounts accountsResponse
	if err := json.Unmarshal(body, &accounts); err != nil {
		return "", fmt.Errorf("decode accounts response: %w", err)
	}
	for _, a := range accounts.Accounts {
		if a.Product == "harvest" {
			return strconv.FormatInt(a.ID, 10), nil
		}
	}
	return "", fmt.Errorf("token grants no time-tracking account")
}
