package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	BackendCalls           uint64
	BackendErrors          uint64
	BackendDurationTotalNs int64
	SessionCacheHits       uint64
	SessionCacheMisses     uint64
	Checkouts              map[string]uint64
	APIKeysRegenerated     uint64
	NotificationsRead      uint64
	InstanceTransitions    map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	backendCalls           uint64
	backendErrors          uint64
	backendDurationTotalNs int64
	sessionCacheHits       uint64
	sessionCacheMisses     uint64
	apiKeysRegenerated     uint64
	notificationsRead      uint64

	mu                  sync.Mutex
	checkouts           map[string]uint64
	instanceTransitions map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		checkouts:           make(map[string]uint64),
		instanceTransitions: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	checkouts := make(map[string]uint64, len(m.checkouts))
	for k, v := range m.checkouts {
		checkouts[k] = v
	}
	transitions := make(map[string]uint64, len(m.instanceTransitions))
	for k, v := range m.instanceTransitions {
		transitions[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		BackendCalls:           atomic.LoadUint64(&m.backendCalls),
		BackendErrors:          atomic.LoadUint64(&m.backendErrors),
		BackendDurationTotalNs: atomic.LoadInt64(&m.backendDurationTotalNs),
		SessionCacheHits:       atomic.LoadUint64(&m.sessionCacheHits),
		SessionCacheMisses:     atomic.LoadUint64(&m.sessionCacheMisses),
		Checkouts:              checkouts,
		APIKeysRegenerated:     atomic.LoadUint64(&m.apiKeysRegenerated),
		NotificationsRead:      atomic.LoadUint64(&m.notificationsRead),
		InstanceTransitions:    transitions,
	}
}

// ObserveBackendCall records a backend round trip. Status 0 or >= 400 counts as an error.
func (m *InMemoryRecorder) ObserveBackendCall(operation string, status int, duration time.Duration) {
	atomic.AddUint64(&m.backendCalls, 1)
	atomic.AddInt64(&m.backendDurationTotalNs, duration.Nanoseconds())
	if status == 0 || status >= 400 {
		atomic.AddUint64(&m.backendErrors, 1)
	}
}

// IncSessionCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncSessionCacheHit() {
	atomic.AddUint64(&m.sessionCacheHits, 1)
}

// IncSessionCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncSessionCacheMiss() {
	atomic.AddUint64(&m.sessionCacheMisses, 1)
}

// IncCheckout counts a checkout attempt by result.
func (m *InMemoryRecorder) IncCheckout(result string) {
	m.mu.Lock()
	m.checkouts[result]++
	m.mu.Unlock()
}

// IncAPIKeyRegenerated increments the regenerated key counter.
func (m *InMemoryRecorder) IncAPIKeyRegenerated() {
	atomic.AddUint64(&m.apiKeysRegenerated, 1)
}

// AddNotificationsRead adds to the read notifications counter.
func (m *InMemoryRecorder) AddNotificationsRead(n int) {
	if n > 0 {
		atomic.AddUint64(&m.notificationsRead, uint64(n))
	}
}

// IncInstanceTransition counts an instance action.
func (m *InMemoryRecorder) IncInstanceTransition(action string) {
	m.mu.Lock()
	m.instanceTransitions[action]++
	m.mu.Unlock()
}
