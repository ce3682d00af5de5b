package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// localIdle is how long an unused bucket is kept by LocalLimiter.
const localIdle = 10 * time.Minute

// LocalLimiter is an in-process rate limiter used when Redis is not
// configured. Limits are per process, not shared between replicas.
type LocalLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*localBucket
	lastSweep time.Time
	now       func() time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter creates an empty limiter.
func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{
		buckets: make(map[string]*localBucket),
		now:     time.Now,
	}
}

// Allow has the same contract as Cache.Allow.
func (l *LocalLimiter) Allow(ctx context.Context, key string, ratePerMinute, burst int) (*RateLimitResult, error) {
	if ratePerMinute <= 0 {
		return unlimited(burst), nil
	}

	now := l.now()
	perSecond := rate.Limit(float64(ratePerMinute) / 60.0)

	l.mu.Lock()
	l.sweep(now)
	b, ok := l.buckets[key]
	if !ok || b.limiter.Limit() != perSecond || b.limiter.Burst() != burst {
		b = &localBucket{limiter: rate.NewLimiter(perSecond, burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	res := &RateLimitResult{
		Limit:   burst,
		ResetAt: now.Add(time.Duration(float64(time.Second) / float64(perSecond))),
	}

	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		res.RetryAfter = delay
		return res, nil
	}

	res.Allowed = true
	remaining := int64(b.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	res.Remaining = remaining
	return res, nil
}

// sweep drops idle buckets at most once a minute. Callers hold l.mu.
func (l *LocalLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > localIdle {
			delete(l.buckets, k)
		}
	}
}
