package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/weatherlab/sfc-etl/internal/domain"
	"github.com/weatherlab/sfc-etl/internal/observability"
)

// Scheduler runs ingest then clean for the current observation hour on a
// cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	ingester *Ingester
	cleaner  *Cleaner
	station  int
	location *time.Location
	logger   *slog.Logger
	metrics  *observability.Metrics

	ready  atomic.Bool
	mu     sync.Mutex
	runCtx context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a Scheduler for a standard five-field cron spec
// evaluated in loc.
func NewScheduler(spec string, ingester *Ingester, cleaner *Cleaner, station int, loc *time.Location, logger *slog.Logger, metrics *observability.Metrics) (*Scheduler, error) {
	if loc == nil {
		loc = domain.KST
	}
	cronLog := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(
				cron.SkipIfStillRunning(cronLog),
				cron.Recover(cronLog),
			),
		),
		ingester: ingester,
		cleaner:  cleaner,
		station:  station,
		location: loc,
		logger:   logger,
		metrics:  metrics,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins firing jobs. Jobs run with a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.runCtx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	s.metrics.SchedulerRunning.Set(1)
	s.logger.Info("scheduler started", "entries", len(s.cron.Entries()), "station", s.station)
}

// Stop halts the schedule and waits for a running job, up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	done := s.cron.Stop()
	defer s.metrics.SchedulerRunning.Set(0)
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// CheckReadiness returns nil once a scheduled run has completed successfully.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no scheduled run has completed yet")
	}
	return nil
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
	}
}

// RunOnce ingests and cleans the current hour, truncated in station local
// time.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	tm := observationHour(domain.Now(), s.location).Format(domain.TimeLayout)

	ing, err := s.ingester.Run(ctx, IngestRequest{TM: tm, Station: s.station, SaveCSV: true})
	if err != nil {
		return fmt.Errorf("ingest %s: %w", tm, err)
	}
	res, err := s.cleaner.Run(ctx, CleanRequest{InputFile: ing.CSVPath})
	if err != nil {
		return fmt.Errorf("clean %s: %w", ing.CSVPath, err)
	}

	s.ready.Store(true)
	s.logger.Info("scheduled run complete", "tm", tm, "rows_clean", res.Report.RowsClean, "report_file", res.ReportPath)
	return nil
}

// observationHour is the top of the current wall-clock hour in loc.
// time.Truncate works on absolute time and would land on :30 in zones with
// half-hour offsets.
func observationHour(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
}
