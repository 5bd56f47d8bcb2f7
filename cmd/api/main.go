package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/bryanwahyu/auditlens/internal/application"
	appai "github.com/bryanwahyu/auditlens/internal/application/ai"
	appbugs "github.com/bryanwahyu/auditlens/internal/application/bugs"
	appreports "github.com/bryanwahyu/auditlens/internal/application/reports"
	"github.com/bryanwahyu/auditlens/internal/config"
	dombugs "github.com/bryanwahyu/auditlens/internal/domain/bugs"
	"github.com/bryanwahyu/auditlens/internal/infra/ai/openai"
	"github.com/bryanwahyu/auditlens/internal/infra/db/jsonfile"
	mysqlp "github.com/bryanwahyu/auditlens/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/auditlens/internal/infra/db/postgres"
	"github.com/bryanwahyu/auditlens/internal/infra/httpserver"
	"github.com/bryanwahyu/auditlens/internal/infra/records"
	minioStore "github.com/bryanwahyu/auditlens/internal/infra/storage"
	"github.com/bryanwahyu/auditlens/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("config load error", "path", path, "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()
	checks := map[string]middleware.Check{}

	repo, db, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		checks["database"] = db.PingContext
	}

	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
		cfg.Minio.SpoolDir,
	)
	if err != nil {
		return fmt.Errorf("minio init: %w", err)
	}
	checks["blobstore"] = store.Check

	reportsSvc := appreports.NewService(
		records.NewFileSource(cfg.Reports.RecordsPath),
		cfg.Reports.DocsDir,
		logger.With("component", "reports"),
	)
	bugsSvc := &appbugs.Service{
		Repo:   repo,
		Blobs:  store,
		Clock:  application.SystemClock{},
		Logger: logger.With("component", "bugs"),
	}

	var aiSvc *appai.Service
	if cfg.OpenAI.APIKey != "" {
		aiSvc = appai.NewService(openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
	} else {
		logger.Info("openai api key not set, summaries disabled")
	}

	var ready atomic.Bool
	go func() {
		reportsSvc.Warm(ctx)
		ready.Store(true)
		logger.Info("warmup finished",
			"reports", len(reportsSvc.Reports(ctx)),
			"documents", reportsSvc.DocumentCount(ctx))
	}()

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
	defer limiter.Stop()

	handler := httpserver.NewRouter(reportsSvc, bugsSvc, aiSvc, httpserver.Options{
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimiter: limiter,
		Checks:      checks,
		Ready:       ready.Load,
	})
	srv := newHTTPServer(cfg.Server.Port, handler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-stop:
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newHTTPServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// openRepository picks the bug repository for database.driver. The returned
// *sql.DB is nil for the json driver.
func openRepository(ctx context.Context, cfg *config.Config) (dombugs.Repository, *sql.DB, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		repo := mysqlp.NewBugRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("mysql migrate: %w", err)
		}
		return repo, db, nil
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		repo := pgp.NewBugRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return repo, db, nil
	default:
		return jsonfile.NewBugRepository(cfg.Database.Path), nil, nil
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
