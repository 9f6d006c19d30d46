// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"
	"net/http"

	"github.com/bizledger/admin-service/pkg/ratelimit"
)

type contextKey int

const metaContextKey contextKey = iota

// RequestMeta is the caller network context stamped onto audit entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

func WithMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, metaContextKey, meta)
}

// MetaFromContext returns the request metadata, zero when none was captured.
func MetaFromContext(ctx context.Context) RequestMeta {
	if meta, ok := ctx.Value(metaContextKey).(RequestMeta); ok {
		return meta
	}
	return RequestMeta{}
}

// CaptureMeta records the caller's address and user agent on the request
// context so services can stamp them onto audit entries.
func CaptureMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithMeta(r.Context(), RequestMeta{
			IPAddress: ratelimit.ClientKey(r),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
