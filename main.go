package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/icco/backlog/handlers"
	"github.com/icco/backlog/lib/catalog"
	"github.com/icco/backlog/lib/config"
	"github.com/icco/backlog/lib/db"
	"github.com/icco/backlog/lib/health"
	"github.com/icco/backlog/lib/images"
	"github.com/icco/backlog/lib/lock"
	"github.com/icco/backlog/lib/lookup"
	"github.com/icco/backlog/lib/rawg"
)

const storeLockKey = "store"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger = slog.New(handler)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Fatal error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The catalog assumes one logical writer. Refuse to start a second
	// copy against the same store.
	storeLock := lock.NewFileLock(logger)
	locked, err := storeLock.TryLock(ctx, storeLockKey, 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to acquire store lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another instance already owns the store")
	}
	defer func() {
		if err := storeLock.Unlock(context.Background(), storeLockKey); err != nil {
			logger.Error("Failed to release store lock", slog.Any("error", err))
		}
	}()

	gdb, err := db.Open(cfg.DatabasePath, logger)
	if err != nil {
		return err
	}

	covers := images.NewStore(cfg.ImageDir, cfg.ImageCacheSize, logger)
	cat := catalog.New(gdb, covers, logger)
	client := rawg.NewClient(cfg.RawgAPIKey, cfg.RawgBaseURL, logger)
	resolver := lookup.New(client, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", health.Check(gdb))
	r.Get("/stats", handlers.HandleStats(cat))
	r.Get("/export", handlers.HandleExport(cat))
	r.Post("/import", handlers.HandleImport(cat))
	r.Get("/candidates", handlers.HandleCandidates(resolver))

	r.Route("/games", func(r chi.Router) {
		r.Get("/", handlers.HandleList(cat))
		r.Post("/", handlers.HandleAdd(cat, resolver))
		r.Get("/search", handlers.HandleSearch(cat))
		r.Get("/{id}", handlers.HandleGet(cat))
		r.Put("/{id}", handlers.HandleEdit(cat))
		r.Delete("/{id}", handlers.HandleDelete(cat))
		r.Post("/{id}/status", handlers.HandleSetStatus(cat))
		r.Post("/{id}/playtime", handlers.HandleAddPlaytime(cat))
		r.Get("/{id}/cover", handlers.HandleCover(cat, covers))
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", slog.Int("port", cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
	}

	return nil
}
