// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package accesscontrol

import (
	"context"
	"errors"

	"github.com/bizledger/admin-service/internal/logging"
	"github.com/bizledger/admin-service/internal/monitoring"
	"github.com/bizledger/admin-service/internal/storage"
	"github.com/bizledger/admin-service/internal/tracing"
	"github.com/bizledger/admin-service/internal/types"
	"github.com/bizledger/admin-service/pkg/authentication"
)

var _ GuardInterface = (*Guard)(nil)

type Guard struct {
	profiles ProfileStoreInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewGuard(profiles ProfileStoreInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Guard {
	return &Guard{
		profiles: profiles,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

// RequireAdmin loads the caller's profile, asserts the ADMIN role and
// resolves the caller's tenant from profile and claims only. There is no
// backfill default here: an admin without a resolvable tenant cannot act,
// because every privileged operation is scoped by that tenant.
func (g *Guard) RequireAdmin(ctx context.Context) (*AdminContext, error) {
	ctx, span := g.tracer.Start(ctx, "accesscontrol.Guard.RequireAdmin")
	defer span.End()

	identity, ok := authentication.IdentityFromContext(ctx)
	if !ok {
		return nil, Unauthorized("authentication required")
	}

	profile, err := g.profiles.GetUserProfile(ctx, identity.UID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			g.logger.Security().AuthzFailure(identity.UID, "admin_guard_no_profile")
			return nil, Forbidden("admin access required")
		}
		g.logger.Errorf("failed to load caller profile: %v", err)
		return nil, Internal("failed to load caller profile")
	}

	if profile.Role != types.RoleAdmin {
		g.logger.Security().AuthzFailure(identity.UID, "admin_guard_role")
		return nil, Forbidden("admin access required")
	}

	resolution := ResolveTenant(ResolveInput{
		Profile: profile,
		Claims:  identity.Claims,
	})
	if resolution.BusinessID == "" {
		g.logger.Security().AuthzFailure(identity.UID, "admin_guard_no_tenant")
		return nil, Forbidden("no business assigned to this administrator")
	}

	return &AdminContext{
		Identity:   identity,
		Profile:    profile,
		BusinessID: resolution.BusinessID,
	}, nil
}
