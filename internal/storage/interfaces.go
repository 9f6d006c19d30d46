// Copyright 2025 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"time"

	"github.com/bizledger/admin-service/internal/types"
)

type StorageInterface interface {
	GetUserProfile(ctx context.Context, uid string) (*types.UserProfile, error)
	CreateUserProfile(ctx context.Context, profile *types.UserProfile) (*types.UserProfile, error)
	DeleteUserProfile(ctx context.Context, uid string) error
	// UpdateUserRole sets the role and, when businessID is non-empty,
	// backfills the profile's business id in the same statement.
	UpdateUserRole(ctx context.Context, uid string, role types.Role, businessID string) error
	UpdateLastLogin(ctx context.Context, uid string, at time.Time) error
	ListProfilesByBusiness(ctx context.Context, businessID string) ([]*types.UserProfile, error)

	CreateBusiness(ctx context.Context, business *types.Business) (*types.Business, error)
	GetBusinessByID(ctx context.Context, id string) (*types.Business, error)

	AppendAuditEntry(ctx context.Context, entry *types.AuditEntry) error
}
