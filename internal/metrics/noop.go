package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// ObserveBackendCall is a no-op.
func (n *NoopRecorder) ObserveBackendCall(operation string, status int, duration time.Duration) {}

// IncSessionCacheHit is a no-op.
func (n *NoopRecorder) IncSessionCacheHit() {}

// IncSessionCacheMiss is a no-op.
func (n *NoopRecorder) IncSessionCacheMiss() {}

// IncCheckout is a no-op.
func (n *NoopRecorder) IncCheckout(result string) {}

// IncAPIKeyRegenerated is a no-op.
func (n *NoopRecorder) IncAPIKeyRegenerated() {}

// AddNotificationsRead is a no-op.
func (n *NoopRecorder) AddNotificationsRead(count int) {}

// IncInstanceTransition is a no-op.
func (n *NoopRecorder) IncInstanceTransition(action string) {}
