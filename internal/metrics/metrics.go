// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Backend client metrics
	ObserveBackendCall(operation string, status int, duration time.Duration)

	// Session cache metrics
	IncSessionCacheHit()
	IncSessionCacheMiss()

	// Checkout metrics
	IncCheckout(result string) // result: "approved", "declined", "invalid", "error"

	// Page-local mutations
	IncAPIKeyRegenerated()
	AddNotificationsRead(n int)
	IncInstanceTransition(action string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
