package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"hourgrid/internal/config"
	"hourgrid/internal/core"
	"hourgrid/internal/harvest"
	"hourgrid/internal/harvest/memory"
	apphttp "hourgrid/internal/http"
	"hourgrid/internal/log"
	"hourgrid/internal/session"
	"hourgrid/internal/tasks"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	var oauth *session.OAuth
	if cfg.OAuthClientID != "" {
		oauth = session.NewOAuth(cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthRedirectURL, "")
	}

	var source harvest.EntrySource
	if cfg.DataBackend == "memory" {
		source = seededStore()
		logger.Info("Initialized memory backend", "backend", cfg.DataBackend)
	} else {
		logger.Info("Initialized harvest backend", "backend", cfg.DataBackend, "base_url", cfg.HarvestBaseURL)
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		HarvestBaseURL: cfg.HarvestBaseURL,
		Table:          tasks.Default(),
		DataBackend:    cfg.DataBackend,
		OAuth:          oauth,
		MockLogin:      cfg.MockLogin,
		Source:         source,
		ProxyCacheSize: cfg.ProxyCacheSize,
		ProxyCacheTTL:  cfg.ProxyCacheTTL,
		Logger:         logger,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting hourgrid server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// seededStore returns an in-memory source with a few entries in the current
// month so a credential-less run shows a populated grid.
func seededStore() *memory.Store {
	store := memory.New()
	now := time.Now()
	monday := now.AddDate(0, 0, -int((now.Weekday()+6)%7))
	for i := 0; i < 3; i++ {
		store.Seed(core.TimeEntry{
			SpentDate: core.FormatSpentDate(monday.AddDate(0, 0, i)),
			Hours:     decimal.NewFromInt(8),
			Notes:     "sample entry",
			Task:      core.TaskRef{ID: 8041094, Name: "Client work"},
			Project:   core.ProjectRef{ID: 1371301},
		})
	}
	return store
}
