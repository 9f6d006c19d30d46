// Copyright 2025 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import "context"

// Define a private custom type to avoid collisions
type contextKey struct{}

var identityContextKey = contextKey{}

// WithIdentity returns a new context carrying the verified caller identity.
func WithIdentity(ctx context.Context, identity *DecodedIdentity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the verified caller identity from the context.
// Returns nil and false if no identity is present.
func IdentityFromContext(ctx context.Context) (*DecodedIdentity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*DecodedIdentity)
	return identity, ok
}
