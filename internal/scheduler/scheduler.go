package scheduler

import (
	"context"
	"fmt"

	"plastikhb/pkg/logger"

	"github.com/robfig/cron/v3"
)

// SessionPurger deletes expired sessions.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron   *cron.Cron
	purger SessionPurger
}

// New creates a Scheduler.
func New(purger SessionPurger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		purger: purger,
	}
}

// Start schedules the session purge and runs it once right away.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.PurgeSessions(ctx) }); err != nil {
		return fmt.Errorf("invalid session purge schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	logger.Info().Str("schedule", schedule).Msg("cron scheduler started")

	s.PurgeSessions(ctx)
	return nil
}

// PurgeSessions runs one session purge. Failures are logged; the next run retries.
func (s *Scheduler) PurgeSessions(ctx context.Context) {
	n, err := s.purger.PurgeExpiredSessions(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to purge expired sessions")
		return
	}
	if n > 0 {
		logger.Info().Int64("sessions", n).Msg("expired sessions purged")
	}
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info().Msg("cron scheduler stopped")
}

// Entries reports the scheduled jobs.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}
