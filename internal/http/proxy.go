package http

import (
	"io"
	"net/http"
	"strings"
	"time"

	"hourgrid/internal/cache"
	"hourgrid/internal/log"
	"hourgrid/internal/session"
)

// cachedResponse is a proxied upstream response small enough to keep around.
type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

// proxyHandler forwards requests to the upstream API with the caller's
// credentials attached. Slow-moving lookups (the current user and their
// project assignments) are cached per account so grid reloads do not hammer
// the upstream.
type proxyHandler struct {
	baseURL   string
	client    *http.Client
	responses *cache.LRUCache[cachedResponse]
	logger    *log.Logger
}

func newProxyHandler(baseURL string, cacheSize int, cacheTTL time.Duration, logger *log.Logger) *proxyHandler {
	return &proxyHandler{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		client:    &http.Client{Timeout: 15 * time.Second},
		responses: cache.NewLRUCache[cachedResponse](cacheSize, cacheTTL),
		logger:    logger.WithComponent(log.ComponentProxy),
	}
}

// cacheable reports whether a GET to this path may be served from cache.
func cacheable(path string) bool {
	switch strings.Trim(path, "/") {
	case "users/me", "users/me/project_assignments":
		return true
	}
	return false
}

func (p *proxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	path := r.URL.Path
	target := p.baseURL + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	useCache := r.Method == http.MethodGet && cacheable(path)
	cacheKey := sess.AccountID + " " + target
	if useCache {
		if cached, hit := p.responses.Get(cacheKey); hit {
			writeCached(w, cached)
			return
		}
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		http.Error(w, "bad upstream request", http.StatusBadRequest)
		return
	}
	creds := sess.Credentials()
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Harvest-Account-Id", creds.AccountID)
	req.Header.Set("Accept", "application/json")
	if ct := r.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.ErrorContext(r.Context(), "Upstream proxy request failed",
			log.FieldError, err, log.FieldPath, path)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		http.Error(w, "upstream read failed", http.StatusBadGateway)
		return
	}

	cached := cachedResponse{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
	}
	if useCache && resp.StatusCode == http.StatusOK {
		p.responses.Set(cacheKey, cached)
	}
	writeCached(w, cached)
}

func writeCached(w http.ResponseWriter, resp cachedResponse) {
	if resp.contentType != "" {
		w.Header().Set("Content-Type", resp.contentType)
	}
	w.WriteHeader(resp.status)
	_, _ = w.Write(resp.body)
}
