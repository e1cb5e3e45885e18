package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/k2nservice/console/internal/config"
	"github.com/k2nservice/console/internal/domain/models"
	"github.com/k2nservice/console/internal/service/notify"
	"github.com/k2nservice/console/internal/service/reporting"
	"github.com/k2nservice/console/internal/session"
)

const jobTimeout = 2 * time.Minute

// Reporter produces the data pushed by the scheduled jobs.
type Reporter interface {
	ArchiveDailySnapshot(ctx context.Context) (models.DailySnapshot, error)
	WeeklyDigest(ctx context.Context) (string, error)
	StockAlerts(ctx context.Context) (string, int, error)
}

// SessionState exposes the operator session to the jobs.
type SessionState interface {
	State() session.State
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	reporting Reporter
	notifier  notify.Notifier
	session   SessionState
	cfg       config.ReportingConfig
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler running in loc.
func NewScheduler(cfg config.ReportingConfig, loc *time.Location, reporter Reporter, notifier notify.Notifier, sess SessionState, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	// Standard 5-field parser: min, hour, dom, month, dow.
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:      c,
		reporting: reporter,
		notifier:  notifier,
		session:   sess,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start registers the jobs and starts the scheduler. An invalid schedule
// aborts the start.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	jobs := []struct {
		name     string
		schedule string
		run      func()
	}{
		{"daily snapshot", s.cfg.SnapshotSchedule, s.archiveSnapshot},
		{"weekly digest", s.cfg.DigestSchedule, s.sendWeeklyDigest},
		{"stock alerts", s.cfg.StockAlertSchedule, s.sendStockAlerts},
	}
	for _, job := range jobs {
		if job.schedule == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.schedule, job.run); err != nil {
			return fmt.Errorf("schedule %s %q: %w", job.name, job.schedule, err)
		}
		s.logger.Info("job scheduled", zap.String("job", job.name), zap.String("schedule", job.schedule))
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// signedIn reports whether the jobs can reach the backend.
func (s *Scheduler) signedIn(job string) bool {
	if s.session != nil && s.session.State().Authenticated() {
		return true
	}
	s.logger.Debug("job skipped without session", zap.String("job", job))
	return false
}

func (s *Scheduler) archiveSnapshot() {
	if !s.signedIn("daily snapshot") {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.reporting.ArchiveDailySnapshot(ctx); err != nil {
		if errors.Is(err, reporting.ErrNoArchive) {
			s.logger.Debug("snapshot archive not configured")
			return
		}
		s.logger.Error("failed to archive daily snapshot", zap.Error(err))
	}
}

func (s *Scheduler) sendWeeklyDigest() {
	if !s.signedIn("weekly digest") || !s.notifier.Enabled() {
		return
	}
	s.logger.Info("generating weekly digest")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	digest, err := s.reporting.WeeklyDigest(ctx)
	if err != nil {
		s.logger.Error("failed to generate weekly digest", zap.Error(err))
		return
	}

	if err := s.notifier.Broadcast(ctx, digest); err != nil {
		s.logger.Error("failed to send weekly digest", zap.Error(err))
	} else {
		s.logger.Info("weekly digest sent successfully")
	}
}

func (s *Scheduler) sendStockAlerts() {
	if !s.signedIn("stock alerts") || !s.notifier.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	text, count, err := s.reporting.StockAlerts(ctx)
	if err != nil {
		s.logger.Error("failed to read stock alerts", zap.Error(err))
		return
	}
	if count == 0 {
		return
	}

	if err := s.notifier.Broadcast(ctx, text); err != nil {
		s.logger.Error("failed to send stock alerts", zap.Error(err))
		return
	}
	s.logger.Info("stock alerts sent", zap.Int("items", count))
}
