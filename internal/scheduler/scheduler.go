// Package scheduler runs periodic housekeeping jobs.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/paresh-singh/Vehicle-parking/internal/logging"
)

// TokenPurger removes revocation records of tokens that have expired.
type TokenPurger interface {
	PurgeRevokedTokens(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron   *cron.Cron
	purger TokenPurger
}

func New(purger TokenPurger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		purger: purger,
	}
}

// Start registers the purge job on schedule (standard cron spec or
// "@every <duration>") and starts the scheduler.
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.purgeRevokedTokens); err != nil {
		return fmt.Errorf("scheduling token purge %q: %w", schedule, err)
	}
	s.cron.Start()
	logging.Logger().WithField("schedule", schedule).Info("scheduler started")
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logging.Logger().Info("scheduler stopped")
}

func (s *Scheduler) purgeRevokedTokens() {
	ctx := context.Background()
	if _, err := s.purger.PurgeRevokedTokens(ctx); err != nil {
		logging.Errorf(ctx, "purging revoked tokens: %v", err)
	}
}
