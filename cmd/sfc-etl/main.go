package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"

	"github.com/weatherlab/sfc-etl/internal/adapter/filestore"
	"github.com/weatherlab/sfc-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/weatherlab/sfc-etl/internal/adapter/kafka"
	"github.com/weatherlab/sfc-etl/internal/adapter/kma"
	"github.com/weatherlab/sfc-etl/internal/config"
	"github.com/weatherlab/sfc-etl/internal/observability"
	"github.com/weatherlab/sfc-etl/internal/pipeline"
)

// alwaysReady backs /readyz when no schedule is configured: the report API
// needs nothing external to serve.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	ext := filestore.CompressionExt(cfg.RawCompression)

	// Report publishing is feature-flagged via KAFKA_ENABLED.
	var (
		publisher pipeline.ReportPublisher
		writer    *kafkaadapter.ReportWriter
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewReportWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka report publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportTopic)
	} else {
		logger.Info("kafka report publishing disabled")
	}

	cleaner := pipeline.NewCleaner(pipeline.CleanOptions{
		Schema:         cfg.Schema(),
		Malformed:      cfg.MalformedRows,
		Workers:        cfg.CoerceWorkers,
		Location:       cfg.StationTimezone,
		CleanDir:       cfg.CleanDir,
		ReportDir:      cfg.ReportDir,
		MissingValues:  cfg.MissingValues,
		CompressionExt: ext,
	}, filestore.Sink{}, publisher, logger, metrics)

	var (
		ready     sharedobs.ReadinessChecker = alwaysReady{}
		scheduler *pipeline.Scheduler
	)
	if cfg.IngestSchedule != "" {
		client := kma.NewClient(cfg.KMAAuthKey, cfg.KMABaseURL, cfg.KMATimeout, logger)
		ingester := pipeline.NewIngester(client, pipeline.IngestOptions{
			Schema:         cfg.Schema(),
			Malformed:      cfg.MalformedRows,
			OutDir:         cfg.RawDir,
			CompressionExt: ext,
			Location:       cfg.StationTimezone,
		}, logger, metrics)

		scheduler, err = pipeline.NewScheduler(cfg.IngestSchedule, ingester, cleaner, cfg.IngestStation, cfg.StationTimezone, logger, metrics)
		if err != nil {
			logger.Error("failed to create scheduler", "error", err)
			os.Exit(1)
		}
		ready = scheduler
	} else {
		logger.Info("scheduled ingest disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, cleaner, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if scheduler != nil {
		scheduler.Start(ctx)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Error("scheduler shutdown error", "error", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
