package correlate

import (
	"context"
	"time"

	"github.com/moolen/cascade/internal/logging"
)

// DefaultSweepInterval is how often idle incidents are closed
const DefaultSweepInterval = 30 * time.Second

// Sweeper periodically closes incidents whose correlation window has
// expired with no new events. Implements lifecycle.Component.
type Sweeper struct {
	correlator *Correlator
	interval   time.Duration
	logger     *logging.Logger
	stop       chan struct{}
	done       chan struct{}
}

// NewSweeper creates a sweeper over the correlator
func NewSweeper(correlator *Correlator, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		correlator: correlator,
		interval:   interval,
		logger:     logging.GetLogger("sweeper"),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start implements lifecycle.Component
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info("Starting incident sweeper with interval %v", s.interval)

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if closed := s.correlator.Sweep(time.Now().UTC()); closed > 0 {
					s.logger.InfoWithFields("closed idle incidents", logging.Field("count", closed))
				}
			case <-s.stop:
				return
			}
		}
	}()
	return nil
}

// Stop implements lifecycle.Component
func (s *Sweeper) Stop(ctx context.Context) error {
	close(s.stop)
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.logger.Info("Incident sweeper stopped")
	return nil
}

// Name implements lifecycle.Component
func (s *Sweeper) Name() string {
	return "Incident Sweeper"
}
