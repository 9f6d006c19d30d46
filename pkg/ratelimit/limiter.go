// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var _ LimiterInterface = (*Limiter)(nil)

// Limiter throttles per client key with token buckets. Idle buckets are
// evicted after ttl to bound memory.
type Limiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a limiter for the provided requests-per-minute budget.
func NewLimiter(requestsPerMinute, burst int, ttl time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limit:   rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
		ttl:     ttl,
		clients: make(map[string]*clientBucket),
	}
}

// Consume attempts to take cost tokens for key. A cost above the burst
// ceiling can never succeed and is rejected with a full-window hint.
func (l *Limiter) Consume(key string, cost int) Decision {
	now := time.Now()
	bucket := l.bucketFor(key, now)

	reservation := bucket.ReserveN(now, cost)
	if !reservation.OK() {
		return Decision{OK: false, RetryAfter: l.ttl}
	}

	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return Decision{OK: false, RetryAfter: delay}
	}

	return Decision{OK: true}
}

func (l *Limiter) bucketFor(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.clients[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	entry := &clientBucket{
		limiter:  rate.NewLimiter(l.limit, l.burst),
		lastSeen: now,
	}
	l.clients[key] = entry
	l.evictLocked(now)

	return entry.limiter
}

func (l *Limiter) evictLocked(now time.Time) {
	for key, entry := range l.clients {
		if now.Sub(entry.lastSeen) > l.ttl {
			delete(l.clients, key)
		}
	}
}

// NoopLimiter admits everything. Used outside production-like environments
// so local testing is unaffected by throttling.
type NoopLimiter struct{}

func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

func (*NoopLimiter) Consume(string, int) Decision {
	return Decision{OK: true}
}
