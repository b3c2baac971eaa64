// Package lifecycle starts and stops long-running components in dependency
// order. The server command registers its pieces (tracing, service, config
// watcher, API) here and hands control to the manager.
package lifecycle

import "context"

// Component is anything the manager can start and stop.
type Component interface {
	// Start initializes the component. It must be safe to call once per
	// process; errors abort startup and roll back already-started
	// components.
	Start(ctx context.Context) error

	// Stop shuts the component down, honoring the context deadline for
	// draining in-flight work. Errors are logged but do not block other
	// components from stopping.
	Stop(ctx context.Context) error

	// Name identifies the component in logs and errors. Must be non-empty.
	Name() string
}
