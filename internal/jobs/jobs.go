// Package jobs runs periodic maintenance.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type Flusher interface {
	Flush(ctx context.Context) error
}

type Scheduler struct {
	quartz *cron.Cron
	cache  Flusher
}

// New registers the cache flush on schedule, in robfig/cron syntax
// ("@every 30m", "0 * * * *", ...).
func New(schedule string, cache Flusher) (*Scheduler, error) {
	s := &Scheduler{
		quartz: cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger))),
		cache:  cache,
	}

	if _, err := s.quartz.AddFunc(schedule, s.flushCache); err != nil {
		return nil, fmt.Errorf("invalid cache flush schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) flushCache() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.cache.Flush(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to flush question cache")
		return
	}
	log.Debug().Msg("Question cache flushed")
}

func (s *Scheduler) Start() {
	s.quartz.Start()
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.quartz.Stop().Done():
	case <-ctx.Done():
	}
}
