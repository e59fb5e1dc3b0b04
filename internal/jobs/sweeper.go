// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepTimeout = time.Minute

// NoShowMarker marks scheduled shifts that ended without a check-in
type NoShowMarker interface {
	MarkNoShows(ctx context.Context, asOf time.Time) (int, error)
}

// OpenCounter counts check-ins still waiting for a check-out
type OpenCounter interface {
	CountOpen(ctx context.Context) (int, error)
}

// Sweeper periodically marks no-shows and refreshes the open check-in gauge
type Sweeper struct {
	cron     *cron.Cron
	shifts   NoShowMarker
	checkIns OpenCounter
	now      func() time.Time
	logger   *zap.Logger
}

// NewSweeper schedules the sweep at spec, a standard five-field cron expression
func NewSweeper(spec string, shifts NoShowMarker, checkIns OpenCounter, logger *zap.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Sweeper{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		shifts:   shifts,
		checkIns: checkIns,
		now:      time.Now,
		logger:   logger,
	}

	if _, err := s.cron.AddFunc(spec, func() { s.Sweep(context.Background()) }); err != nil {
		return nil, fmt.Errorf("failed to schedule no-show sweep %q: %w", spec, err)
	}

	return s, nil
}

// Start runs the scheduler in its own goroutine
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("No-show sweep scheduled", zap.Int("entries", len(s.cron.Entries())))
}

// Stop stops the scheduler and waits for a running sweep to finish or ctx to expire
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("No-show sweep still running at shutdown")
	}
}

// Sweep runs one pass
func (s *Sweeper) Sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	started := s.now()
	marked, err := s.shifts.MarkNoShows(ctx, started)
	if err != nil {
		s.logger.Error("No-show sweep failed", zap.Error(err))
	} else if marked > 0 {
		s.logger.Info("Shifts marked as no-show", zap.Int("count", marked))
	}

	open, err := s.checkIns.CountOpen(ctx)
	if err != nil {
		s.logger.Error("Failed to count open check-ins", zap.Error(err))
		return
	}

	s.logger.Debug("Sweep completed",
		zap.Int("no_shows", marked),
		zap.Int("open_check_ins", open),
		zap.Duration("duration", s.now().Sub(started)),
	)
}
