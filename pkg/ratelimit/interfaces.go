// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package ratelimit

import "time"

// Decision is the outcome of a consumption attempt. RetryAfter is a hint for
// the caller; zero when the request is allowed.
type Decision struct {
	OK         bool
	RetryAfter time.Duration
}

// LimiterInterface is the injected throttling collaborator. The in-memory
// implementation is process-local; a horizontally scaled deployment would
// under-count globally unless this is swapped for a shared-store
// implementation, which this interface permits without touching call sites.
type LimiterInterface interface {
	Consume(key string, cost int) Decision
}
