package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const staleReason = "Generation timed out"

type StaleSweeper interface {
	FailStaleGenerations(ctx context.Context, maxAge time.Duration, reason string) (int64, error)
}

// Scheduler settles projects whose generation never finished so pollers
// see a terminal error instead of waiting forever.
type Scheduler struct {
	cron   *cron.Cron
	store  StaleSweeper
	maxAge time.Duration
	log    zerolog.Logger
}

func NewScheduler(store StaleSweeper, maxAge time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		store:  store,
		maxAge: maxAge,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if s.store == nil || s.maxAge <= 0 {
		return nil
	}

	if _, err := s.cron.AddFunc("0 */1 * * * *", s.sweepStale); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweepStale() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.SweepStale(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("stale generation sweep failed")
		return
	}
	if n > 0 {
		s.log.Warn().Int64("projects", n).Dur("max_age", s.maxAge).Msg("failed stale generations")
	}
}

// SweepStale marks every project generating for longer than maxAge as failed.
func (s *Scheduler) SweepStale(ctx context.Context) (int64, error) {
	return s.store.FailStaleGenerations(ctx, s.maxAge, staleReason)
}
