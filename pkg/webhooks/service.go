// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bizledger/admin-service/internal/logging"
	"github.com/bizledger/admin-service/internal/monitoring"
	"github.com/bizledger/admin-service/internal/storage"
	"github.com/bizledger/admin-service/internal/tracing"
	"github.com/bizledger/admin-service/internal/types"
	"github.com/bizledger/admin-service/pkg/accesscontrol"
	"github.com/bizledger/admin-service/pkg/audit"
)

type Service struct {
	storage  StorageInterface
	tx       TxRunnerInterface
	recorder audit.RecorderInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	store StorageInterface,
	tx TxRunnerInterface,
	recorder audit.RecorderInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:  store,
		tx:       tx,
		recorder: recorder,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

// HandleLogin synchronizes the profile store after a successful login. An
// existing profile only gets its lastLogin refreshed. A first login
// synthesizes the profile from the identity's claims; when the claims carry
// no tenant at all the user is bootstrapped as the founding admin of a new
// business keyed by their own uid, so every profile ends up with a non-null
// tenant.
func (s *Service) HandleLogin(ctx context.Context, identity KratosIdentity) error {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleLogin")
	defer span.End()

	if identity.ID == "" {
		return fmt.Errorf("login event carries no identity id")
	}

	now := time.Now().UTC()

	existing, err := s.storage.GetUserProfile(ctx, identity.ID)
	if err == nil {
		if err := s.storage.UpdateLastLogin(ctx, identity.ID, now); err != nil {
			return fmt.Errorf("failed to refresh last login for %s: %w", identity.ID, err)
		}
		s.logger.Debugf("refreshed last login for %s", existing.UID)
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to load profile for %s: %w", identity.ID, err)
	}

	resolution := accesscontrol.ResolveTenant(accesscontrol.ResolveInput{
		Claims:           identity.MetadataAdmin,
		BootstrapSelfUID: identity.ID,
	})

	role := types.Role(types.ClaimString(identity.MetadataAdmin, types.ClaimRole))
	founding := resolution.BusinessID == identity.ID && resolution.CreatedBy == ""
	if !types.ValidRole(role) {
		if founding {
			role = types.RoleAdmin
		} else {
			role = types.RoleViewer
		}
	}

	profile := &types.UserProfile{
		UID:         identity.ID,
		Email:       identity.Traits.Email,
		DisplayName: identity.Traits.Name,
		Role:        role,
		Status:      types.StatusActive,
		BusinessID:  resolution.BusinessID,
		IsOwner:     founding,
		CreatedBy:   resolution.CreatedBy,
		LastLogin:   &now,
	}

	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		if founding {
			if err := s.ensureBusiness(txCtx, identity, resolution.BusinessID); err != nil {
				return err
			}
		}

		if _, err := s.storage.CreateUserProfile(txCtx, profile); err != nil {
			return fmt.Errorf("failed to create profile for %s: %w", identity.ID, err)
		}

		return s.storage.UpdateLastLogin(txCtx, identity.ID, now)
	})
	if err != nil {
		return err
	}

	s.recorder.Record(ctx, &types.AuditEntry{
		Action:    types.AuditLoginSync,
		ActorUID:  identity.ID,
		TargetUID: identity.ID,
		Details:   fmt.Sprintf("profile synthesized from %s resolution", resolution.Source),
		Success:   true,
	})

	s.logger.Infof("synthesized profile for %s in business %s", identity.ID, resolution.BusinessID)

	return nil
}

func (s *Service) ensureBusiness(ctx context.Context, identity KratosIdentity, businessID string) error {
	if _, err := s.storage.GetBusinessByID(ctx, businessID); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to check business %s: %w", businessID, err)
	}

	name := identity.Traits.Name
	if name == "" {
		name = identity.Traits.Email
	}

	_, err := s.storage.CreateBusiness(ctx, &types.Business{
		ID:      businessID,
		Name:    fmt.Sprintf("%s's business", name),
		OwnerID: identity.ID,
		Status:  types.StatusActive,
	})
	if err != nil {
		return fmt.Errorf("failed to create business for %s: %w", identity.ID, err)
	}

	return nil
}
