// Command sfc-clean cleans a parsed sfctm2 CSV: sentinel values become nulls,
// columns are typed, and a quality report is written beside the cleaned table.
//
// Usage:
//
//	go run ./cmd/sfc-clean -input-dir data_raw
//	go run ./cmd/sfc-clean -input-file data_raw/x.csv -missing-values=-9,-99,-999
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/weatherlab/sfc-etl/internal/adapter/filestore"
	"github.com/weatherlab/sfc-etl/internal/adapter/kafka"
	"github.com/weatherlab/sfc-etl/internal/config"
	"github.com/weatherlab/sfc-etl/internal/observability"
	"github.com/weatherlab/sfc-etl/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	inputDir := flag.String("input-dir", cfg.RawDir, "directory holding parsed CSVs; the newest is cleaned")
	inputFile := flag.String("input-file", "", "specific CSV to clean; overrides -input-dir")
	outputDir := flag.String("output-dir", cfg.CleanDir, "output directory for cleaned tables")
	reportDir := flag.String("report-dir", cfg.ReportDir, "output directory for quality reports")
	missingValues := flag.String("missing-values", "", "comma-separated sentinel values, e.g. -9,-99,-999")
	flag.Parse()

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var publisher pipeline.ReportPublisher
	if cfg.KafkaEnabled {
		w := kafka.NewReportWriter(cfg, logger)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = w
	}

	cleaner := pipeline.NewCleaner(pipeline.CleanOptions{
		Schema:         cfg.Schema(),
		Workers:        cfg.CoerceWorkers,
		Location:       cfg.StationTimezone,
		CleanDir:       *outputDir,
		ReportDir:      *reportDir,
		MissingValues:  cfg.MissingValues,
		CompressionExt: filestore.CompressionExt(cfg.RawCompression),
	}, filestore.Sink{}, publisher, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err = cleaner.Run(ctx, pipeline.CleanRequest{
		InputDir:      *inputDir,
		InputFile:     *inputFile,
		MissingValues: *missingValues,
	})
	if err != nil {
		logger.Error("clean failed", "error", err, "no_input", errors.Is(err, pipeline.ErrNoInput))
		os.Exit(1) //nolint:gocritic // nothing was published, the writer has nothing to flush
	}
}
