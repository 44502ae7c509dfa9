// Command sfc-dataset builds the hourly base dataset (TM STN TA WS HM PA PS)
// from a cleaned table and writes it as Parquet.
//
// Usage:
//
//	go run ./cmd/sfc-dataset -input-clean data_clean/x__clean__20240301_120000.csv
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/weatherlab/sfc-etl/internal/adapter/parquet"
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

	inputClean := flag.String("input-clean", "", "cleaned CSV to project (required)")
	outputDir := flag.String("output-dir", cfg.DatasetDir, "output directory for the dataset")
	flag.Parse()

	if *inputClean == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := observability.NewLogger(cfg)
	builder := pipeline.NewDatasetBuilder(parquet.NewWriter(logger), *outputDir, cfg.StationTimezone, logger, observability.NewMetrics())

	if _, err := builder.Run(context.Background(), *inputClean); err != nil {
		logger.Error("dataset build failed", "error", err)
		os.Exit(1)
	}
}
