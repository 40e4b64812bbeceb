// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/logpress/internal/api"
	"github.com/starford/logpress/internal/catalog"
	"github.com/starford/logpress/internal/convert"
	"github.com/starford/logpress/internal/mcpserver"
	"github.com/starford/logpress/internal/siteservice"
	"github.com/starford/logpress/internal/sse"
	"github.com/starford/logpress/internal/storage"
	"github.com/starford/logpress/internal/watch"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{mode: ModeConvert, version: "dev", logOut: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("mode", string(app.mode)),
		slog.Bool("watch", app.watch),
		slog.String("graph_path", cfg.Graph.Path),
		slog.String("output_path", cfg.Output.Path),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	input, err := storage.NewFS(cfg.Graph.Path)
	if err != nil {
		return fmt.Errorf("init graph storage: %w", err)
	}
	output, err := storage.OpenFS(cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("init output storage: %w", err)
	}

	db, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}
	defer db.Close()

	conv := convert.New(input, output, convert.Options{
		PagesDir:       cfg.Graph.PagesDir,
		JournalsDir:    cfg.Graph.JournalsDir,
		AssetsDir:      cfg.Graph.AssetsDir,
		IncludePrivate: cfg.Convert.IncludePrivate,
		CreateStubs:    cfg.Convert.CreateStubs,
		GitDates:       cfg.Convert.GitDates,
		JournalIndex:   cfg.Convert.JournalIndex,
		Workers:        cfg.Convert.Workers,
	}, logger, convert.WithCatalog(db))
	svc := siteservice.NewService(output, db)

	longRunning := app.mode != ModeConvert || app.watch
	res, err := conv.Run(ctx)
	switch {
	case err == nil:
		svc.Publish(res.Snapshot)
	case convert.IsEmpty(err) && longRunning:
		logger.Warn("graph is empty, waiting for pages", slog.String("path", cfg.Graph.Path))
	default:
		return fmt.Errorf("convert: %w", err)
	}
	if !longRunning {
		return nil
	}

	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	rebuild := func(ctx context.Context, changed []string) error {
		broker.PublishChanges(changed)
		res, err := conv.Run(ctx)
		if err != nil {
			broker.PublishBuild(sse.BuildSummary{Error: err.Error()})
			if convert.IsEmpty(err) {
				logger.Warn("graph is empty", slog.String("path", cfg.Graph.Path))
				return nil
			}
			return err
		}
		svc.Publish(res.Snapshot)
		broker.PublishBuild(sse.BuildSummary{
			Published: res.Published,
			Stubs:     res.Stubs,
			Unchanged: res.Unchanged,
			Removed:   res.Removed,
			Duration:  res.Duration,
		})
		return nil
	}

	gCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gCtx := errgroup.WithContext(gCtx)

	if app.watch || app.mode == ModeServe {
		outAbs, err := filepath.Abs(cfg.Output.Path)
		if err != nil {
			return fmt.Errorf("resolve output path: %w", err)
		}
		g.Go(func() error {
			return watch.Watch(gCtx, cfg.Graph.Path, logger, watch.Options{Ignore: []string{outAbs}}, rebuild)
		})
	}

	switch app.mode {
	case ModeServe:
		serveHTTP(gCtx, g, cfg, svc, broker, logger)
	case ModeMCP:
		mcpCtx, cancel := context.WithCancel(gCtx)
		srv := mcpserver.New(svc, app.version)
		g.Go(func() error {
			defer cancel()
			logger.Info("Starting MCP server on stdio")
			return srv.ServeStdio()
		})
		g.Go(func() error {
			<-mcpCtx.Done()
			stop()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Stopped")
	return nil
}

// serveHTTP starts the API server on g and shuts it down when ctx ends.
func serveHTTP(ctx context.Context, g *errgroup.Group, cfg *Config, svc *siteservice.Service, broker *sse.Broker, logger *slog.Logger) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if svc.Snapshot() == nil {
			writeStatus(w, http.StatusServiceUnavailable, "building")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))
	r.Handle("/site/*", http.StripPrefix("/site/", http.FileServer(http.Dir(cfg.Output.Path))))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		// Event streams only end when their channel closes.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})
}

func writeStatus(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, msg)
}
