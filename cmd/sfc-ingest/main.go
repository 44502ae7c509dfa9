// Command sfc-ingest fetches one hour of KMA sfctm2 surface observations,
// saves the raw text body and optionally a parsed CSV.
//
// Usage:
//
//	go run ./cmd/sfc-ingest -tm 202211300900 -stn 0 -save-csv
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/weatherlab/sfc-etl/internal/adapter/filestore"
	"github.com/weatherlab/sfc-etl/internal/adapter/kma"
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

	tm := flag.String("tm", "", "observation time YYYYMMDDHHMI, e.g. 202211300900 (required)")
	stn := flag.Int("stn", 0, "station id, 0 for all stations")
	helpFlag := flag.Bool("help-flag", true, "ask the feed to include its column description header")
	authKey := flag.String("auth-key", "", "API key; defaults to KMA_AUTH_KEY")
	outDir := flag.String("out-dir", cfg.RawDir, "output directory for raw and parsed files")
	saveCSV := flag.Bool("save-csv", false, "also save the parsed CSV")
	flag.Parse()

	if *tm == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	key := *authKey
	if key == "" {
		key = cfg.KMAAuthKey
	}
	if key == "" {
		logger.Error("missing API key", "error", kma.ErrNoAuthKey)
		os.Exit(1)
	}

	client := kma.NewClient(key, cfg.KMABaseURL, cfg.KMATimeout, logger)
	ingester := pipeline.NewIngester(client, pipeline.IngestOptions{
		Schema:         cfg.Schema(),
		Malformed:      cfg.MalformedRows,
		OutDir:         *outDir,
		CompressionExt: filestore.CompressionExt(cfg.RawCompression),
		Location:       cfg.StationTimezone,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := ingester.Run(ctx, pipeline.IngestRequest{TM: *tm, Station: *stn, Help: *helpFlag, SaveCSV: *saveCSV})
	if err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
	logger.Info("ingest complete", "raw_file", res.RawPath, "csv_file", res.CSVPath, "rows", res.Rows)
}
