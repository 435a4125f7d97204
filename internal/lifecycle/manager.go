package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/moolen/cascade/internal/logging"
)

// Manager orchestrates component startup and shutdown. Components start
// in registration order and stop in reverse, each with its own shutdown
// timeout so one hung component cannot stall the rest.
type Manager struct {
	mu              sync.Mutex
	components      []Component
	started         []Component
	shutdownTimeout time.Duration
	logger          *logging.Logger
}

// NewManager creates a lifecycle manager with a 30 second per-component
// shutdown timeout
func NewManager() *Manager {
	return &Manager{
		shutdownTimeout: 30 * time.Second,
		logger:          logging.GetLogger("lifecycle"),
	}
}

// Register adds a component. Registration order is startup order, so
// dependencies must be registered before their dependents.
func (m *Manager) Register(component Component) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if component == nil {
		return fmt.Errorf("cannot register nil component")
	}
	if component.Name() == "" {
		return fmt.Errorf("component must have a non-empty name")
	}
	for _, c := range m.components {
		if c == component {
			return fmt.Errorf("component %s is already registered", component.Name())
		}
	}

	m.components = append(m.components, component)
	m.logger.Debug("Registered component %s", component.Name())
	return nil
}

// Start starts all components in registration order. If one fails, the
// components started so far are stopped in reverse order and the error
// is returned.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.started = nil
	for _, component := range m.components {
		m.logger.Info("Starting %s", component.Name())
		startTime := time.Now()

		if err := component.Start(ctx); err != nil {
			m.logger.Error("Failed to start %s: %v", component.Name(), err)
			m.rollbackLocked()
			return fmt.Errorf("initialization failed for %s: %w", component.Name(), err)
		}

		m.started = append(m.started, component)
		m.logger.Info("%s started (took %dms)", component.Name(), time.Since(startTime).Milliseconds())
	}

	m.logger.Info("All components started")
	return nil
}

// rollbackLocked stops already-started components after a failed startup
func (m *Manager) rollbackLocked() {
	for i := len(m.started) - 1; i >= 0; i-- {
		component := m.started[i]
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := component.Stop(ctx); err != nil {
			m.logger.Warn("Error stopping %s during rollback: %v", component.Name(), err)
		}
		cancel()
	}
	m.started = nil
}

// Stop stops all started components in reverse order. Each component gets
// its own timeout; errors are logged and do not abort the shutdown.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Stopping all components")
	for i := len(m.started) - 1; i >= 0; i-- {
		component := m.started[i]
		m.logger.Info("Stopping %s", component.Name())
		startTime := time.Now()

		componentCtx, cancel := context.WithTimeout(ctx, m.shutdownTimeout)
		err := component.Stop(componentCtx)
		cancel()

		if err != nil {
			if err == context.DeadlineExceeded {
				m.logger.Warn("Component %s exceeded grace period (%dms), forcing termination",
					component.Name(), m.shutdownTimeout.Milliseconds())
			} else {
				m.logger.Error("Error stopping %s: %v", component.Name(), err)
			}
			continue
		}
		m.logger.Info("%s stopped (took %dms)", component.Name(), time.Since(startTime).Milliseconds())
	}

	m.started = nil
	m.logger.Info("All components stopped")
	return nil
}

// SetShutdownTimeout sets the per-component grace period for shutdown
func (m *Manager) SetShutdownTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownTimeout = timeout
}
