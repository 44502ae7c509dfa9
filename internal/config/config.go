package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // STATION_TIMEZONE must resolve on hosts without zoneinfo

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/robfig/cron/v3"

	"github.com/weatherlab/sfc-etl/internal/domain"
)

// Compression values accepted by RAW_COMPRESSION.
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
)

// Config holds all settings, populated from environment variables.
type Config struct {
	// KMA feed.
	KMAAuthKey string
	KMABaseURL string
	KMATimeout time.Duration

	// Artifact locations.
	RawDir     string
	CleanDir   string
	ReportDir  string
	DatasetDir string

	// Cleaning policy.
	MissingValues   string
	SchemaVersion   string
	MalformedRows   domain.MalformedPolicy
	CoerceWorkers   int
	StationTimezone *time.Location
	RawCompression  string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaReportTopic string

	// Scheduled ingest; an empty schedule disables it.
	IngestSchedule string
	IngestStation  int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	kmaTimeout, err := parsePositiveDuration("KMA_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	schemaVersion := sharedcfg.EnvOrDefault("SCHEMA_VERSION", domain.SchemaV1)
	if _, err := domain.LookupSchema(schemaVersion); err != nil {
		return nil, fmt.Errorf("invalid SCHEMA_VERSION: %w", err)
	}

	malformed, err := domain.ParseMalformedPolicy(sharedcfg.EnvOrDefault("MALFORMED_ROWS", "drop"))
	if err != nil {
		return nil, fmt.Errorf("invalid MALFORMED_ROWS: %w", err)
	}

	workers, err := parsePositiveInt("COERCE_WORKERS", 1)
	if err != nil {
		return nil, err
	}

	tzName := sharedcfg.EnvOrDefault("STATION_TIMEZONE", "Asia/Seoul")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid STATION_TIMEZONE %q: %w", tzName, err)
	}

	compression := strings.ToLower(sharedcfg.EnvOrDefault("RAW_COMPRESSION", CompressionNone))
	switch compression {
	case CompressionNone, CompressionGzip, CompressionZstd:
	default:
		return nil, fmt.Errorf("invalid RAW_COMPRESSION %q: want none, gzip or zstd", compression)
	}

	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	schedule := strings.TrimSpace(os.Getenv("INGEST_SCHEDULE"))
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid INGEST_SCHEDULE %q: %w", schedule, err)
		}
	}

	station, err := parseNonNegativeInt("INGEST_STATION", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KMAAuthKey: os.Getenv("KMA_AUTH_KEY"),
		KMABaseURL: sharedcfg.EnvOrDefault("KMA_BASE_URL", "https://apihub.kma.go.kr/api/typ01/url/kma_sfctm2.php"),
		KMATimeout: kmaTimeout,

		RawDir:     sharedcfg.EnvOrDefault("DATA_RAW_DIR", "data_raw"),
		CleanDir:   sharedcfg.EnvOrDefault("DATA_CLEAN_DIR", "data_clean"),
		ReportDir:  sharedcfg.EnvOrDefault("REPORT_DIR", "reports"),
		DatasetDir: sharedcfg.EnvOrDefault("DATASET_DIR", "datasets"),

		MissingValues:   os.Getenv("MISSING_VALUES"),
		SchemaVersion:   schemaVersion,
		MalformedRows:   malformed,
		CoerceWorkers:   workers,
		StationTimezone: loc,
		RawCompression:  compression,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:     kafkaEnabled,
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "sfc-quality-reports"),

		IngestSchedule: schedule,
		IngestStation:  station,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaReportTopic == "" {
		return nil, errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_ENABLED is true")
	}
	if cfg.IngestSchedule != "" && cfg.KMAAuthKey == "" {
		return nil, errors.New("INGEST_SCHEDULE is set but KMA_AUTH_KEY is not")
	}

	return cfg, nil
}

// Schema returns the configured schema descriptor. Load has already
// validated the version.
func (c *Config) Schema() *domain.Schema {
	s, err := domain.LookupSchema(c.SchemaVersion)
	if err != nil {
		return domain.DefaultSchema()
	}
	return s
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, s)
	}
	return n, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", key, s)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, s)
	}
	return b, nil
}
