package engine

import (
	"context"
	"time"

	"github.com/moolen/cascade/internal/logging"
	"github.com/moolen/cascade/internal/store"
)

// DefaultRunInterval is how often scheduled clustering runs fire
const DefaultRunInterval = time.Minute

// Scheduler periodically executes a clustering run for every tenant known
// to the store. Implements lifecycle.Component. On-demand runs through the
// API are unaffected.
type Scheduler struct {
	engine   *Engine
	store    *store.Store
	interval time.Duration
	logger   *logging.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewScheduler creates a run scheduler
func NewScheduler(eng *Engine, st *store.Store, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultRunInterval
	}
	return &Scheduler{
		engine:   eng,
		store:    st,
		interval: interval,
		logger:   logging.GetLogger("scheduler"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start implements lifecycle.Component
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting run scheduler with interval %v", s.interval)

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runAll()
			case <-s.stop:
				return
			}
		}
	}()
	return nil
}

// runAll executes one run per known tenant. A failed tenant does not
// block the others.
func (s *Scheduler) runAll() {
	for _, tenant := range s.store.Tenants() {
		if _, err := s.engine.Run(context.Background(), tenant); err != nil {
			s.logger.ErrorWithErr("scheduled clustering run failed", err, "tenant=%s", tenant)
		}
	}
}

// Stop implements lifecycle.Component
func (s *Scheduler) Stop(ctx context.Context) error {
	close(s.stop)
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.logger.Info("Run scheduler stopped")
	return nil
}

// Name implements lifecycle.Component
func (s *Scheduler) Name() string {
	return "Run Scheduler"
}
