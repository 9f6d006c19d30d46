// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"time"

	"github.com/bizledger/admin-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package webhooks -destination ./mock_webhooks.go -source=./interfaces.go

// StorageInterface is the subset of the profile store the login sync needs.
type StorageInterface interface {
	GetUserProfile(ctx context.Context, uid string) (*types.UserProfile, error)
	CreateUserProfile(ctx context.Context, profile *types.UserProfile) (*types.UserProfile, error)
	UpdateLastLogin(ctx context.Context, uid string, at time.Time) error
	CreateBusiness(ctx context.Context, business *types.Business) (*types.Business, error)
	GetBusinessByID(ctx context.Context, id string) (*types.Business, error)
}

// TxRunnerInterface runs fn inside a database transaction.
type TxRunnerInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}
