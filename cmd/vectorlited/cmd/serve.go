package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/vectorlite/vectorlite/internal/embed"
	"github.com/vectorlite/vectorlite/internal/httpapi"
	"github.com/vectorlite/vectorlite/internal/lifecycle"
	"github.com/vectorlite/vectorlite/internal/preflight"
	"github.com/vectorlite/vectorlite/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var (
		addr             string
		embedderProvider string
		embedderModel    string
		offline          bool
		skipCheck        bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `serve starts the HTTP shell over the vector database: one JSON
route per library/document/chunk/index/search operation, plus the
admin-gated snapshot routes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), serveOpts{
				addr:             addr,
				embedderProvider: embedderProvider,
				embedderModel:    embedderModel,
				offline:          offline,
				skipCheck:        skipCheck,
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Override the configured listen address (e.g. :8080)")
	cmd.Flags().StringVar(&embedderProvider, "embedder", "ollama", "Embedding provider to verify at startup: ollama or static")
	cmd.Flags().StringVar(&embedderModel, "embedder-model", "", "Embedding model name, passed through to the provider")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the Ollama readiness check and serve with the static embedder assumed client-side")
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Skip preflight environment checks")

	return cmd
}

type serveOpts struct {
	addr             string
	embedderProvider string
	embedderModel    string
	offline          bool
	skipCheck        bool
}

func runServe(ctx context.Context, opts serveOpts) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.ListenAddr = opts.addr
	}

	logger := slog.Default()

	if !opts.skipCheck {
		checker := preflight.New(preflight.WithOffline(opts.offline))
		results := checker.RunAll(ctx, cfg.DataDir)
		checker.PrintResults(results)
		if checker.HasCriticalFailures(results) {
			return fmt.Errorf("preflight checks failed, run 'vectorlited doctor' for details")
		}
	}

	if !opts.offline && embed.ParseProvider(opts.embedderProvider) == embed.ProviderOllama {
		manager := lifecycle.NewOllamaManager()
		ensureOpts := lifecycle.DefaultEnsureOpts()
		ensureOpts.Stdout = os.Stdout
		ensureOpts.Stderr = os.Stderr
		if err := manager.EnsureReady(ctx, opts.embedderModel, ensureOpts); err != nil {
			return fmt.Errorf("embedding backend not ready: %w", err)
		}
	}

	db, err := openVectorDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to open vector database: %w", err)
	}
	defer db.Close()

	metrics, closeMetrics, err := openSearchMetrics(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open telemetry store: %w", err)
	}
	defer closeMetrics()

	server := httpapi.New(db, httpapi.Config{
		CORSOrigins: cfg.Server.CORSOrigins,
		Metrics:     metrics,
	}, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: server,
	}

	serveCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("vectorlited serving", slog.String("addr", cfg.Server.ListenAddr), slog.String("data_dir", cfg.DataDir))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-serveCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

// openSearchMetrics opens the telemetry SQLite store under dataDir and
// wraps it in a SearchMetrics recorder. The returned cleanup closes both
// the recorder's flush loop and the underlying database.
func openSearchMetrics(dataDir string) (*telemetry.SearchMetrics, func(), error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, err
	}

	dbPath := filepath.Join(dataDir, "telemetry.db")
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := telemetry.InitTelemetrySchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	store, err := telemetry.NewSQLiteMetricsStore(sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	metrics := telemetry.NewSearchMetrics(store)
	cleanup := func() {
		_ = metrics.Close()
		_ = sqlDB.Close()
	}
	return metrics, cleanup, nil
}
