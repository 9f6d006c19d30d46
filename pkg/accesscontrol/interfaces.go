// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package accesscontrol

import (
	"context"

	"github.com/bizledger/admin-service/internal/types"
	"github.com/bizledger/admin-service/pkg/authentication"
)

// ProfileStoreInterface is the subset of the storage layer the guard needs.
type ProfileStoreInterface interface {
	GetUserProfile(ctx context.Context, uid string) (*types.UserProfile, error)
}

// AdminContext is the verified administrative caller: the decoded token, the
// profile record and the tenant id resolved from them. Downstream operations
// reuse this context instead of re-resolving the tenant on their own.
type AdminContext struct {
	Identity   *authentication.DecodedIdentity
	Profile    *types.UserProfile
	BusinessID string
}

type GuardInterface interface {
	// RequireAdmin asserts the context carries an authenticated admin with
	// a resolvable tenant, returning a classified error otherwise.
	RequireAdmin(ctx context.Context) (*AdminContext, error)
}
