package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gradelens/gradelens/internal/api"
	"github.com/gradelens/gradelens/internal/audit"
	s3audit "github.com/gradelens/gradelens/internal/audit/s3"
	"github.com/gradelens/gradelens/internal/auth"
	"github.com/gradelens/gradelens/internal/config"
	"github.com/gradelens/gradelens/internal/llm"
	"github.com/gradelens/gradelens/internal/nlq"
	"github.com/gradelens/gradelens/internal/observability"
	"github.com/gradelens/gradelens/internal/store"
	duckdbstore "github.com/gradelens/gradelens/internal/store/duckdb"
	pgstore "github.com/gradelens/gradelens/internal/store/postgres"
)

func main() {
	cfg, err := config.LoadFromEnv("gradelens-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	schoolStore, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open school store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = schoolStore.Close() }()

	modelClient, err := llm.New(llm.Config{
		Provider:    cfg.AI.Provider,
		APIKey:      cfg.AI.APIKey,
		BaseURL:     cfg.AI.BaseURL,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	switch {
	case errors.Is(err, llm.ErrNoCredential):
		logger.Warn("no model credential configured, running in fallback mode")
		modelClient = nil
	case err != nil:
		logger.Error("failed to initialize model client", slog.Any("error", err))
		os.Exit(1)
	default:
		logger.Info("model client ready",
			slog.String("provider", modelClient.Provider()),
			slog.String("model", modelClient.Model()),
		)
	}

	var recorder audit.Recorder
	if cfg.Audit.Enabled {
		recorder, err = s3audit.New(context.Background(), s3audit.Config{
			Endpoint:         cfg.Audit.Endpoint,
			Region:           cfg.Audit.Region,
			Bucket:           cfg.Audit.Bucket,
			AccessKeyID:      cfg.Audit.AccessKeyID,
			SecretAccessKey:  cfg.Audit.SecretAccessKey,
			UseSSL:           cfg.Audit.UseSSL,
			Prefix:           cfg.Audit.Prefix,
			AutoCreateBucket: cfg.Audit.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize audit recorder", slog.Any("error", err))
			os.Exit(1)
		}
	}

	pipeline := nlq.NewPipeline(schoolStore, nlq.Options{
		Client:     modelClient,
		Tables:     cfg.Pipeline.Tables,
		RowLimit:   cfg.Pipeline.RowLimit,
		RunTimeout: cfg.Pipeline.RunTimeout,
		Logger:     logger,
		Recorder:   recorder,
	})

	deps := api.Dependencies{
		Logger:   logger,
		Pipeline: pipeline,
		Store:    schoolStore,
		Tables:   cfg.Pipeline.Tables,
		Readiness: api.CombineReadinessChecks(
			api.CheckStore(schoolStore),
			api.CheckAuditConfig(cfg),
		),
		DependencyTimeout: time.Second,
		ExportRowLimit:    cfg.Pipeline.RowLimit,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.Bool("fallback_mode", pipeline.FallbackMode()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.Database.Driver == "duckdb" {
		return duckdbstore.Open(context.Background())
	}
	return pgstore.Open(context.Background(), pgstore.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
}
