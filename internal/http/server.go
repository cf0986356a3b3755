// Package http exposes the timesheet grid over a JSON API. Handlers stay
// thin: they parse, call the engine for the caller's account and map errors
// to status codes.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"hourgrid/internal/cache"
	"hourgrid/internal/harvest"
	"hourgrid/internal/harvest/memory"
	"hourgrid/internal/log"
	"hourgrid/internal/middleware/ratelimit"
	"hourgrid/internal/middleware/security"
	"hourgrid/internal/middleware/trace"
	"hourgrid/internal/session"
	"hourgrid/internal/tasks"
	"hourgrid/internal/timesheet"
)

// Options configures the server.
type Options struct {
	Addr           string
	HarvestBaseURL string
	Table          *tasks.Table

	// DataBackend selects where non-mock sessions read and write:
	// "harvest" talks to the upstream API, "memory" keeps everything
	// in process.
	DataBackend string

	// OAuth may be nil; the login routes then 404 and only the mock
	// login (when enabled) can establish a session.
	OAuth     *session.OAuth
	MockLogin bool

	// Source overrides the shared entry source used for mock sessions
	// and the memory backend. Defaults to a fresh in-memory store.
	Source harvest.EntrySource

	ProxyCacheSize int
	ProxyCacheTTL  time.Duration

	Logger *log.Logger
}

type Server struct {
	http.Server

	engines *engineRegistry
	limiter *ratelimit.Limiter
	caches  *cache.Manager
	logger  *log.Logger

	shutdownOnce sync.Once
}

// NewServer wires routes, middleware and the per-account engine registry.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.ProxyCacheSize <= 0 {
		opts.ProxyCacheSize = 256
	}
	if opts.ProxyCacheTTL <= 0 {
		opts.ProxyCacheTTL = 5 * time.Minute
	}

	s := &Server{
		engines: newEngineRegistry(opts.Table, opts.DataBackend, opts.HarvestBaseURL, opts.Source),
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		caches:  cache.NewManager(),
		logger:  logger.WithComponent(log.ComponentHTTP),
	}

	proxy := newProxyHandler(opts.HarvestBaseURL, opts.ProxyCacheSize, opts.ProxyCacheTTL, logger)
	s.caches.Register(proxy.responses)
	s.caches.StartCleanup(10 * time.Minute)

	r := chi.NewRouter()
	r.Use(trace.RequestID)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(log.Middleware(logger))
	r.Use(log.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", trace.Header},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady)

	if opts.OAuth != nil {
		r.Get("/auth/login", opts.OAuth.LoginHandler())
		r.Get("/auth/callback", opts.OAuth.CallbackHandler())
	}
	if opts.MockLogin {
		r.Get("/auth/mock", session.MockLoginHandler())
	}
	r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		session.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(session.RequireAuth)
		api.Use(s.limiter.Middleware)

		api.Get("/months/{year}/{month}", s.handleMonthView)
		api.Post("/entries", s.handleCreateEntry)
		api.Post("/entries/week", s.handleCreateWeek)
		api.Patch("/entries/{entryID}/notes", s.handleUpdateNote)
		api.Delete("/entries/{entryID}", s.handleDeleteEntry)

		api.Handle("/harvest/*", http.StripPrefix("/api/harvest", proxy))
	})

	s.Server.Addr = opts.Addr
	s.Server.Handler = r
	return s
}

// engine resolves the timesheet engine serving the given session.
func (s *Server) engine(sess session.Session) *timesheet.Engine {
	return s.engines.engine(sess)
}

// Shutdown stops background cleanup goroutines and the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Info("Stopping HTTP server", log.FieldOperation, log.OpShutdown)
		s.limiter.Stop()
		s.caches.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// engineRegistry keeps one engine per set of upstream credentials so month
// caches survive across requests of the same account. Mock sessions and the
// memory backend share a single in-process store.
type engineRegistry struct {
	mu      sync.Mutex
	table   *tasks.Table
	backend string
	baseURL string

	engines map[harvest.Credentials]*timesheet.Engine
	source  harvest.EntrySource
	shared  *timesheet.Engine
}

func newEngineRegistry(table *tasks.Table, backend, baseURL string, source harvest.EntrySource) *engineRegistry {
	return &engineRegistry{
		table:   table,
		backend: backend,
		baseURL: baseURL,
		source:  source,
		engines: make(map[harvest.Credentials]*timesheet.Engine),
	}
}

func (r *engineRegistry) engine(sess session.Session) *timesheet.Engine {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess.IsMock() || r.backend == "memory" {
		if r.shared == nil {
			if r.source == nil {
				r.source = memory.New()
			}
			r.shared = timesheet.NewEngine(r.source, r.table)
		}
		return r.shared
	}

	creds := sess.Credentials()
	if eng, ok := r.engines[creds]; ok {
		return eng
	}
	eng := timesheet.NewEngine(harvest.NewClient(r.baseURL, creds), r.table)
	r.engines[creds] = eng
	return eng
}
