// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SnapshotRefresher is the nightly job target. Implemented by the
// transactions snapshot cache.
type SnapshotRefresher interface {
	RefreshAll(ctx context.Context) error
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	refresher SnapshotRefresher
	schedule  string
	logger    *slog.Logger
}

// NewScheduler creates a new job scheduler. schedule is a standard 5-field
// cron expression.
func NewScheduler(refresher SnapshotRefresher, schedule string, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		refresher: refresher,
		schedule:  schedule,
		logger:    logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.refreshSnapshots)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("schedule", s.schedule),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the snapshot refresh (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.refreshSnapshots()
}

func (s *Scheduler) refreshSnapshots() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s.logger.Info("starting snapshot cache refresh")
	if err := s.refresher.RefreshAll(ctx); err != nil {
		s.logger.Error("snapshot cache refresh finished with errors", slog.Any("error", err))
		return
	}
	s.logger.Info("snapshot cache refresh completed")
}
