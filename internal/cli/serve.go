package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovokpus/PostAssist/internal/config"
	"github.com/ovokpus/PostAssist/internal/governor"
	"github.com/ovokpus/PostAssist/internal/httpapi"
	"github.com/ovokpus/PostAssist/internal/llmclient"
	"github.com/ovokpus/PostAssist/internal/orchestrator"
	"github.com/ovokpus/PostAssist/internal/otel"
	"github.com/ovokpus/PostAssist/internal/roles"
	"github.com/ovokpus/PostAssist/internal/searchclient"
	"github.com/ovokpus/PostAssist/internal/store"
	"github.com/ovokpus/PostAssist/internal/tools"
)

func newServeCmd() *cobra.Command {
	var rolesPath string
	var dev bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP orchestrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rolesPath, dev, cmd.Version)
		},
	}
	cmd.Flags().StringVar(&rolesPath, "roles", "", "Path to a YAML role catalog (default: built-in)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable permissive CORS for a local frontend dev server")
	return cmd
}

func runServe(ctx context.Context, rolesPath string, dev bool, version string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	metricsHandler, err := otel.InitMeterProvider(ctx, "postassist")
	if err != nil {
		logger.Warn("metrics init failed, continuing without /metrics", "error", err)
		metricsHandler = nil
	} else if err := otel.InitMetrics(ctx); err != nil {
		logger.Warn("metrics instrument registration failed", "error", err)
	}

	catalog, err := loadRoles(rolesPath)
	if err != nil {
		return fmt.Errorf("load roles: %w", err)
	}

	remote, err := store.OpenRedis(cfg.StoreURL)
	if err != nil {
		logger.Warn("redis backend unavailable, degrading to in-memory store", "error", err)
	}
	var st *store.AdaptiveStore
	if remote != nil {
		st = store.New(remote, logger)
	} else {
		st = store.New(nil, logger)
	}

	gov := governor.New(cfg.MaxConcurrentGenerations, cfg.MaxConcurrentVerifications)
	otel.RegisterGovernorOccupancy(func() (int, int) { return gov.InUse() })

	llm := llmclient.Client(llmclient.Retrying{Client: llmclient.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey)})
	search := searchclient.NewHTTPClient(cfg.SearchBaseURL, cfg.SearchAPIKey)
	toolCatalog := tools.New(search)

	orchCfg := orchestrator.Config{
		MaxToolRounds:            cfg.MaxToolRounds,
		TeamRecursionLimit:       cfg.TeamRecursionLimit,
		MetaRecursionLimit:       cfg.MetaRecursionLimit,
		TaskTTL:                  time.Duration(cfg.StoreTTLSeconds) * time.Second,
		VerificationTimeout:      time.Duration(cfg.VerificationTimeoutSeconds) * time.Second,
		MaxConcurrentGenerations: cfg.MaxConcurrentGenerations,
	}

	hub := httpapi.NewSSEHub()
	orch := orchestrator.New(st, gov, catalog, llm, toolCatalog, orchCfg, logger, hub.Publish)

	app := httpapi.NewApp(orch, httpapi.ServerOptions{
		Addr:           cfg.HTTPAddr,
		Dev:            dev,
		MetricsHandler: metricsHandler,
		UseOtelHTTP:    true,
		Version:        version,
		LLM:            llm,
		Search:         search,
	})
	app.Hub = hub

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	case <-sigCtx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := orch.Shutdown(shutdownCtx); err != nil {
		logger.Warn("orchestrator shutdown did not drain cleanly", "error", err)
	}
	return app.Server.Shutdown(shutdownCtx)
}

func loadRoles(path string) (*roles.Catalog, error) {
	if path == "" {
		return roles.Default(), nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("roles file %s: %w", path, err)
	}
	return roles.Load(path)
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
