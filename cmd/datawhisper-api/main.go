package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/datawhisper/datawhisper/internal/api"
	"github.com/datawhisper/datawhisper/internal/auth"
	"github.com/datawhisper/datawhisper/internal/config"
	"github.com/datawhisper/datawhisper/internal/nl2sql"
	"github.com/datawhisper/datawhisper/internal/observability"
	"github.com/datawhisper/datawhisper/internal/query"
	duckdbengine "github.com/datawhisper/datawhisper/internal/query/duckdb"
	postgresengine "github.com/datawhisper/datawhisper/internal/query/postgres"
	"github.com/datawhisper/datawhisper/internal/snapshot"
	s3store "github.com/datawhisper/datawhisper/internal/storage/s3"
)

type engine interface {
	query.Engine
	api.Pinger
}

func main() {
	cfg, err := config.LoadFromEnv("datawhisper-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	queryEngine, closeEngine, err := openEngine(startupCtx, cfg, logger)
	cancelStartup()
	if err != nil {
		// The service keeps running without a database so /query can report
		// it the same way every time.
		logger.Error("failed to open query engine", slog.String("driver", cfg.Database.Driver), slog.Any("error", err))
	}
	defer closeEngine()

	var translator nl2sql.Translator
	if cfg.AI.APIKey != "" {
		translator, err = nl2sql.NewOpenAITranslator(nl2sql.OpenAIConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		})
		if err != nil {
			logger.Error("failed to initialize query translator", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		logger.Warn("DATAWHISPER_AI_API_KEY is not set; translations will fail")
	}

	deps := api.Dependencies{
		Logger:          logger,
		QueryTranslator: translator,
		MaxRows:         cfg.Database.MaxRows,
		Readiness: api.CombineReadinessChecks(
			api.CheckPing("database", pinger(queryEngine)),
			api.CheckTranslatorConfig(cfg),
		),
		DependencyTimeout: time.Second,
	}
	if queryEngine != nil {
		deps.QueryEngine = queryEngine
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		if validator.Len() == 0 {
			logger.Warn("auth is required but no keys are configured; every query will be rejected")
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
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address), slog.String("driver", cfg.Database.Driver))
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

func openEngine(ctx context.Context, cfg config.Config, logger *slog.Logger) (engine, func(), error) {
	noop := func() {}
	switch cfg.Database.Driver {
	case config.DriverDuckDB:
		opts := duckdbengine.Options{Path: cfg.Database.DuckDBPath, Timeout: cfg.Database.QueryTimeout}
		cleanup := noop
		if cfg.Snapshot.Enabled {
			dir, err := os.MkdirTemp("", "datawhisper-snapshot-")
			if err != nil {
				return nil, noop, fmt.Errorf("create snapshot dir: %w", err)
			}
			cleanup = func() { _ = os.RemoveAll(dir) }
			local, err := fetchSnapshot(ctx, cfg, dir)
			if err != nil {
				cleanup()
				return nil, noop, err
			}
			logger.Info("loaded customer snapshot",
				slog.String("path", local.Path),
				slog.Int64("bytes", local.Size),
				slog.Time("last_modified", local.LastModified),
				slog.Duration("age", time.Since(local.LastModified).Round(time.Second)),
			)
			opts.Tables = []duckdbengine.Table{{Name: snapshot.TableName, Path: local.Path}}
		}
		eng, err := duckdbengine.Open(ctx, opts)
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		return eng, func() { _ = eng.Close(); cleanup() }, nil
	default:
		db, err := postgresengine.Connect(postgresengine.DBConfig{
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, noop, err
		}
		// An unreachable database is reported by /v1/ready; the pool reconnects
		// on its own once it comes up.
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("database not reachable yet", slog.Any("error", err))
		}
		cancel()
		return postgresengine.NewEngine(db, cfg.Database.QueryTimeout), func() { _ = db.Close() }, nil
	}
}

func fetchSnapshot(ctx context.Context, cfg config.Config, dir string) (snapshot.Local, error) {
	store, err := s3store.New(ctx, s3store.Config{
		Endpoint:         cfg.ObjectStore.Endpoint,
		Region:           cfg.ObjectStore.Region,
		Bucket:           cfg.ObjectStore.Bucket,
		AccessKeyID:      cfg.ObjectStore.AccessKeyID,
		SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
		UseSSL:           cfg.ObjectStore.UseSSL,
		Prefix:           cfg.ObjectStore.Prefix,
		AutoCreateBucket: false,
	})
	if err != nil {
		return snapshot.Local{}, fmt.Errorf("initialize object store: %w", err)
	}
	return snapshot.Fetch(ctx, store, dir)
}

// pinger keeps a nil engine from turning into a non-nil interface value.
func pinger(e engine) api.Pinger {
	if e == nil {
		return nil
	}
	return e
}
