package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	ftpadapter "github.com/couchcryptid/station-monitor-service/internal/adapter/ftp"
	httpadapter "github.com/couchcryptid/station-monitor-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/station-monitor-service/internal/adapter/kafka"
	"github.com/couchcryptid/station-monitor-service/internal/config"
	"github.com/couchcryptid/station-monitor-service/internal/domain"
	"github.com/couchcryptid/station-monitor-service/internal/observability"
	"github.com/couchcryptid/station-monitor-service/internal/pipeline"
	"github.com/couchcryptid/station-monitor-service/internal/thresholds"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := domain.ValidateStations(); err != nil {
		logger.Error("invalid station table", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, db, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Error("failed to open threshold backend", "backend", cfg.ThresholdBackend, "error", err)
		os.Exit(1)
	}
	store := thresholds.NewStore(backend, logger, metrics)
	store.Load(ctx)
	logger.Info("thresholds loaded", "backend", cfg.ThresholdBackend)

	fetcher := ftpadapter.NewClient(cfg, logger)
	p := pipeline.New(fetcher, store, logger, metrics, pipeline.Options{
		Clock:        clockwork.NewRealClock(),
		Location:     cfg.StationTimezone,
		FetchTimeout: cfg.FTPTimeout,
	})

	// Publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var (
		sink   pipeline.ResultSink
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sink = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaResultTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	monitor := pipeline.NewMonitor(p, sink, cfg.RefreshInterval, clockwork.NewRealClock(), logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, monitor, p, store, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh loop.
	go func() {
		if err := monitor.Run(ctx); err != nil {
			logger.Error("monitor error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("sqlite close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// openBackend returns the configured threshold backend. The returned db is
// non-nil only for the sqlite backend and must be closed by the caller.
func openBackend(ctx context.Context, cfg *config.Config) (thresholds.Backend, *sql.DB, error) {
	if cfg.ThresholdBackend == config.BackendSQLite {
		db, err := thresholds.OpenSQLite(ctx, cfg.ThresholdSQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return thresholds.NewSQLiteBackend(db), db, nil
	}
	return thresholds.NewFileBackend(cfg.ThresholdFile), nil, nil
}
