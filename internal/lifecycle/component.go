package lifecycle

import "context"

// Component is the lifecycle interface all managed components implement.
// The manager starts components in registration order and stops them in
// reverse order.
type Component interface {
	// Start initializes and starts the component. The context can signal
	// shutdown or carry a deadline. Must be safe to call once per manager
	// run. Returns an error if initialization fails.
	Start(ctx context.Context) error

	// Stop gracefully stops the component, letting in-flight work finish
	// within the context deadline. An error is logged but does not
	// prevent other components from stopping.
	Stop(ctx context.Context) error

	// Name returns the human-readable component name used in logs
	Name() string
}
