// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"context"

	ory "github.com/ory/client-go"

	"github.com/bizledger/admin-service/internal/kratos"
	"github.com/bizledger/admin-service/internal/types"
	"github.com/bizledger/admin-service/pkg/accesscontrol"
)

//go:generate mockgen -build_flags=--mod=mod -package users -destination ./mock_users.go -source=./interfaces.go

// StorageInterface is the subset of the profile store the user operations
// need.
type StorageInterface interface {
	GetUserProfile(ctx context.Context, uid string) (*types.UserProfile, error)
	CreateUserProfile(ctx context.Context, profile *types.UserProfile) (*types.UserProfile, error)
	DeleteUserProfile(ctx context.Context, uid string) error
	UpdateUserRole(ctx context.Context, uid string, role types.Role, businessID string) error
	ListProfilesByBusiness(ctx context.Context, businessID string) ([]*types.UserProfile, error)
}

// IdentityClientInterface is the identity-provider admin surface the user
// operations need.
type IdentityClientInterface interface {
	GetIdentity(ctx context.Context, id string) (*ory.Identity, error)
	CreateIdentity(ctx context.Context, user kratos.NewUserIdentity) (*ory.Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
	UpdateIdentityClaims(ctx context.Context, identity *ory.Identity, claims map[string]any) error
	ListIdentities(ctx context.Context, pageToken string) (*kratos.IdentityPage, error)
	CreateRecoveryLink(ctx context.Context, identityID string, expiresIn string) (string, string, error)
}

type ServiceInterface interface {
	CreateUser(ctx context.Context, admin *accesscontrol.AdminContext, req CreateUserRequest) (*ProvisionResult, error)
	DeleteUser(ctx context.Context, admin *accesscontrol.AdminContext, uid string) error
	ResetPassword(ctx context.Context, admin *accesscontrol.AdminContext, uid string) (string, error)
	UpdateRole(ctx context.Context, admin *accesscontrol.AdminContext, uid string, role types.Role) (string, error)
	// ListTenantUsers returns the tenant's accounts. The message is non-empty
	// when the directory enumeration failed and the list degraded to empty.
	ListTenantUsers(ctx context.Context, admin *accesscontrol.AdminContext) ([]TenantUser, string, error)
}
