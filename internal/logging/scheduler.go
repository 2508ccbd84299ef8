package logging

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CleanupScheduler runs a Cleaner once on Start and then every interval.
type CleanupScheduler struct {
	cleaner  *Cleaner
	interval time.Duration
	logger   zerolog.Logger
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewCleanupScheduler(cleaner *Cleaner, interval time.Duration, logger zerolog.Logger) *CleanupScheduler {
	return &CleanupScheduler{
		cleaner:  cleaner,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *CleanupScheduler) Start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runCleanup()
		for {
			select {
			case <-ticker.C:
				s.runCleanup()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *CleanupScheduler) runCleanup() {
	deleted, err := s.cleaner.Cleanup()
	if err != nil {
		s.logger.Warn().Err(err).Msg("log cleanup failed")
	} else if deleted > 0 {
		s.logger.Info().Int("deleted", deleted).Msg("cleaned up old log files")
	}
}

// Stop ends the schedule and waits for a running cleanup to finish.
// It must only be called after Start.
func (s *CleanupScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}
