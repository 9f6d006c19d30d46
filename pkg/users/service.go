// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	ory "github.com/ory/client-go"

	"github.com/bizledger/admin-service/internal/kratos"
	"github.com/bizledger/admin-service/internal/logging"
	"github.com/bizledger/admin-service/internal/monitoring"
	"github.com/bizledger/admin-service/internal/storage"
	"github.com/bizledger/admin-service/internal/tracing"
	"github.com/bizledger/admin-service/internal/types"
	"github.com/bizledger/admin-service/pkg/accesscontrol"
	"github.com/bizledger/admin-service/pkg/audit"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage  StorageInterface
	identity IdentityClientInterface
	recorder audit.RecorderInterface

	recoveryLinkLifetime time.Duration

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	store StorageInterface,
	identity IdentityClientInterface,
	recorder audit.RecorderInterface,
	recoveryLinkLifetime time.Duration,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:              store,
		identity:             identity,
		recorder:             recorder,
		recoveryLinkLifetime: recoveryLinkLifetime,
		tracer:               tracer,
		monitor:              monitor,
		logger:               logger,
	}
}

// CreateUser provisions an identity-provider account and a profile record
// scoped to the admin's tenant. The two writes are sequential and not
// transactional: when the profile write fails the identity already exists,
// the operation reports failure and the result records the partial state for
// operator reconciliation. No compensating deletion is attempted.
func (s *Service) CreateUser(ctx context.Context, admin *accesscontrol.AdminContext, req CreateUserRequest) (*ProvisionResult, error) {
	ctx, span := s.tracer.Start(ctx, "users.Service.CreateUser")
	defer span.End()

	role := types.Role(req.Role)
	if !types.ValidRole(role) {
		return nil, accesscontrol.BadRequest(fmt.Sprintf("unknown role %q", req.Role))
	}

	claims := map[string]any{
		types.ClaimRole:       string(role),
		types.ClaimAdmin:      role == types.RoleAdmin,
		types.ClaimBusinessID: admin.BusinessID,
		types.ClaimCreatedBy:  admin.Identity.UID,
	}

	created, err := s.identity.CreateIdentity(ctx, kratos.NewUserIdentity{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Claims:      claims,
	})
	if err != nil {
		s.logger.Errorf("failed to create identity for %s: %v", req.Email, err)
		s.record(ctx, types.AuditCreateUser, admin, "", req.Email, "identity creation failed", false, err)
		return &ProvisionResult{}, accesscontrol.Internal("failed to create user account")
	}

	profile := &types.UserProfile{
		UID:         created.Id,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        role,
		Status:      types.StatusActive,
		BusinessID:  admin.BusinessID,
		CreatedBy:   admin.Identity.UID,
	}

	stored, err := s.storage.CreateUserProfile(ctx, profile)
	if err != nil {
		// The account exists but carries no profile. Surfaced as a failure so
		// the partial state is visible; recovery is an operator re-run, not a
		// rollback here.
		s.logger.Errorf("identity %s created but profile write failed: %v", created.Id, err)
		s.record(ctx, types.AuditCreateUser, admin, created.Id, req.Email, "profile write failed after identity creation", false, err)
		return &ProvisionResult{IdentityWriteOK: true}, accesscontrol.Internal("user account created but profile setup failed")
	}

	s.record(ctx, types.AuditCreateUser, admin, created.Id, req.Email, fmt.Sprintf("created with role %s", role), true, nil)

	return &ProvisionResult{
		IdentityWriteOK: true,
		ProfileWriteOK:  true,
		User: &TenantUser{
			UID:         stored.UID,
			Email:       stored.Email,
			DisplayName: stored.DisplayName,
			Role:        stored.Role,
			CreatedBy:   stored.CreatedBy,
			BusinessID:  stored.BusinessID,
			CreatedAt:   stored.CreatedAt,
		},
	}, nil
}

// DeleteUser removes a same-tenant user. The profile record goes first and
// best-effort; the identity-provider deletion is the one that must succeed.
func (s *Service) DeleteUser(ctx context.Context, admin *accesscontrol.AdminContext, uid string) error {
	ctx, span := s.tracer.Start(ctx, "users.Service.DeleteUser")
	defer span.End()

	if uid == admin.Identity.UID {
		return accesscontrol.BadRequest("cannot delete your own account")
	}

	target, err := s.loadTarget(ctx, uid)
	if err != nil {
		return err
	}

	if !s.sameTenant(admin, target) {
		s.logger.Security().AuthzFailure(admin.Identity.UID, "delete user outside own tenant")
		return accesscontrol.Forbidden("user does not belong to your business")
	}

	if err := s.storage.DeleteUserProfile(ctx, uid); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warnf("profile delete for %s failed, continuing with identity deletion: %v", uid, err)
	}

	if err := s.identity.DeleteIdentity(ctx, uid); err != nil {
		if errors.Is(err, kratos.ErrIdentityNotFound) {
			return accesscontrol.NotFound("user not found")
		}
		s.logger.Errorf("failed to delete identity %s: %v", uid, err)
		s.record(ctx, types.AuditDeleteUser, admin, uid, target.email, "identity deletion failed", false, err)
		return accesscontrol.Internal("failed to delete user account")
	}

	s.record(ctx, types.AuditDeleteUser, admin, uid, target.email, "", true, nil)

	return nil
}

// ResetPassword mints a recovery link for a same-tenant user. The link is
// returned to the calling admin only; delivery to the end user is outside
// this service.
func (s *Service) ResetPassword(ctx context.Context, admin *accesscontrol.AdminContext, uid string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "users.Service.ResetPassword")
	defer span.End()

	target, err := s.loadTarget(ctx, uid)
	if err != nil {
		return "", err
	}

	if target.email == "" {
		return "", accesscontrol.BadRequest("user has no email address")
	}

	if !s.sameTenant(admin, target) {
		s.logger.Security().AuthzFailure(admin.Identity.UID, "reset password outside own tenant")
		return "", accesscontrol.Forbidden("user does not belong to your business")
	}

	link, _, err := s.identity.CreateRecoveryLink(ctx, uid, s.recoveryLinkLifetime.String())
	if err != nil {
		if errors.Is(err, kratos.ErrIdentityNotFound) {
			return "", accesscontrol.NotFound("user not found")
		}
		s.logger.Errorf("failed to create recovery link for %s: %v", uid, err)
		s.record(ctx, types.AuditResetPassword, admin, uid, target.email, "recovery link creation failed", false, err)
		return "", accesscontrol.Internal("failed to create password reset link")
	}

	s.record(ctx, types.AuditResetPassword, admin, uid, target.email, "", true, nil)

	return link, nil
}

// UpdateRole changes a same-tenant user's role in both the identity
// provider's claims and the profile record. A target with no resolvable
// tenant is backfilled with the admin's tenant id; this is the single path
// where a tenant id is assigned rather than read.
func (s *Service) UpdateRole(ctx context.Context, admin *accesscontrol.AdminContext, uid string, role types.Role) (string, error) {
	ctx, span := s.tracer.Start(ctx, "users.Service.UpdateRole")
	defer span.End()

	if uid == admin.Identity.UID {
		return "", accesscontrol.BadRequest("cannot change your own role")
	}
	if !types.ValidRole(role) {
		return "", accesscontrol.BadRequest(fmt.Sprintf("unknown role %q", role))
	}

	target, err := s.loadTarget(ctx, uid)
	if err != nil {
		return "", err
	}
	if target.identity == nil {
		return "", accesscontrol.NotFound("user not found")
	}

	resolution := accesscontrol.ResolveTenant(accesscontrol.ResolveInput{
		Profile:            target.profile,
		Claims:             target.claims,
		BackfillBusinessID: admin.BusinessID,
	})

	if !accesscontrol.IsSameTenant(accesscontrol.SameTenantInput{
		AdminBusinessID:  admin.BusinessID,
		AdminUID:         admin.Identity.UID,
		TargetBusinessID: resolution.BusinessID,
		TargetCreatedBy:  resolution.CreatedBy,
	}) {
		s.logger.Security().AuthzFailure(admin.Identity.UID, "update role outside own tenant")
		return "", accesscontrol.Forbidden("user does not belong to your business")
	}

	// Merge into the existing claim set: only the access-control keys are
	// overwritten, unrelated claims survive untouched.
	merged := make(map[string]any, len(target.claims)+4)
	for k, v := range target.claims {
		merged[k] = v
	}
	merged[types.ClaimRole] = string(role)
	merged[types.ClaimAdmin] = role == types.RoleAdmin
	merged[types.ClaimBusinessID] = resolution.BusinessID
	if resolution.CreatedBy != "" {
		merged[types.ClaimCreatedBy] = resolution.CreatedBy
	}

	if err := s.identity.UpdateIdentityClaims(ctx, target.identity, merged); err != nil {
		s.logger.Errorf("failed to update claims for %s: %v", uid, err)
		s.record(ctx, types.AuditUpdateRole, admin, uid, target.email, "claims update failed", false, err)
		return "", accesscontrol.Internal("failed to update user role")
	}

	backfill := ""
	if target.profile == nil || target.profile.BusinessID == "" {
		backfill = resolution.BusinessID
	}

	if err := s.storage.UpdateUserRole(ctx, uid, role, backfill); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", accesscontrol.NotFound("user has no profile record")
		}
		s.logger.Errorf("failed to update profile role for %s: %v", uid, err)
		s.record(ctx, types.AuditUpdateRole, admin, uid, target.email, "profile role update failed", false, err)
		return "", accesscontrol.Internal("failed to update user role")
	}

	s.record(ctx, types.AuditUpdateRole, admin, uid, target.email, fmt.Sprintf("role set to %s", role), true, nil)

	return fmt.Sprintf("role updated to %s; the user must sign in again before the change takes effect", role), nil
}

// ListTenantUsers returns every account belonging to the admin's tenant,
// including accounts that never logged in and so have no profile record yet.
// Profile records are authoritative: a claims-only match is dropped when a
// profile turns out to exist and points at a different tenant.
func (s *Service) ListTenantUsers(ctx context.Context, admin *accesscontrol.AdminContext) ([]TenantUser, string, error) {
	ctx, span := s.tracer.Start(ctx, "users.Service.ListTenantUsers")
	defer span.End()

	profiles, err := s.storage.ListProfilesByBusiness(ctx, admin.BusinessID)
	if err != nil {
		s.logger.Errorf("failed to list profiles for business %s: %v", admin.BusinessID, err)
		return nil, "", accesscontrol.Internal("failed to list users")
	}

	profileByUID := make(map[string]*types.UserProfile, len(profiles))
	for _, p := range profiles {
		profileByUID[p.UID] = p
	}

	users := make([]TenantUser, 0, len(profiles))
	seen := make(map[string]bool, len(profiles))

	pageToken := ""
	for {
		page, err := s.identity.ListIdentities(ctx, pageToken)
		if err != nil {
			// Transient directory failure degrades to an empty result with a
			// message rather than failing the request.
			s.logger.Warnf("identity enumeration failed, returning empty user list: %v", err)
			return []TenantUser{}, "user directory temporarily unavailable", nil
		}

		for i := range page.Identities {
			identity := &page.Identities[i]
			if seen[identity.Id] {
				continue
			}

			if profile, ok := profileByUID[identity.Id]; ok {
				users = append(users, profileTenantUser(profile))
				seen[identity.Id] = true
				continue
			}

			claims := identityClaims(identity)
			resolution := accesscontrol.ResolveTenant(accesscontrol.ResolveInput{Claims: claims})
			if !accesscontrol.IsSameTenant(accesscontrol.SameTenantInput{
				AdminBusinessID:  admin.BusinessID,
				AdminUID:         admin.Identity.UID,
				TargetBusinessID: resolution.BusinessID,
				TargetCreatedBy:  resolution.CreatedBy,
			}) {
				continue
			}

			// Claims said same tenant, but a profile record may still exist
			// outside this business. The profile wins over stale claims.
			profile, err := s.storage.GetUserProfile(ctx, identity.Id)
			if err == nil && profile.BusinessID != "" && profile.BusinessID != admin.BusinessID {
				continue
			}
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				s.logger.Warnf("profile check for %s failed, skipping: %v", identity.Id, err)
				continue
			}

			users = append(users, claimsTenantUser(identity, claims, resolution))
			seen[identity.Id] = true
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	s.record(ctx, types.AuditListUsers, admin, "", "", fmt.Sprintf("%d users", len(users)), true, nil)

	return users, "", nil
}

// targetUser bundles everything known about an operation's target: the
// identity-provider record, its claims, the profile record (nil when the
// user never logged in) and the best-known email.
type targetUser struct {
	identity *ory.Identity
	claims   map[string]any
	profile  *types.UserProfile
	email    string
}

func (s *Service) loadTarget(ctx context.Context, uid string) (*targetUser, error) {
	profile, err := s.storage.GetUserProfile(ctx, uid)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, accesscontrol.Internal("failed to load user profile")
	}

	identity, err := s.identity.GetIdentity(ctx, uid)
	if err != nil {
		if errors.Is(err, kratos.ErrIdentityNotFound) {
			if profile == nil {
				return nil, accesscontrol.NotFound("user not found")
			}
			identity = nil
		} else {
			return nil, accesscontrol.Internal("failed to load user account")
		}
	}

	target := &targetUser{identity: identity, profile: profile}
	if identity != nil {
		target.claims = identityClaims(identity)
		target.email, _ = identityTraits(identity)
	}
	if profile != nil && profile.Email != "" {
		target.email = profile.Email
	}

	return target, nil
}

func (s *Service) sameTenant(admin *accesscontrol.AdminContext, target *targetUser) bool {
	resolution := accesscontrol.ResolveTenant(accesscontrol.ResolveInput{
		Profile: target.profile,
		Claims:  target.claims,
	})

	return accesscontrol.IsSameTenant(accesscontrol.SameTenantInput{
		AdminBusinessID:  admin.BusinessID,
		AdminUID:         admin.Identity.UID,
		TargetBusinessID: resolution.BusinessID,
		TargetCreatedBy:  resolution.CreatedBy,
	})
}

func (s *Service) record(ctx context.Context, action types.AuditAction, admin *accesscontrol.AdminContext, targetUID, targetEmail, details string, success bool, opErr error) {
	meta := audit.MetaFromContext(ctx)

	entry := &types.AuditEntry{
		Action:      action,
		ActorUID:    admin.Identity.UID,
		ActorEmail:  admin.Profile.Email,
		TargetUID:   targetUID,
		TargetEmail: targetEmail,
		Details:     details,
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
		Success:     success,
	}
	if opErr != nil {
		entry.ErrorMessage = opErr.Error()
	}

	s.recorder.Record(ctx, entry)
}

func profileTenantUser(profile *types.UserProfile) TenantUser {
	return TenantUser{
		UID:         profile.UID,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		Role:        profile.Role,
		CreatedBy:   profile.CreatedBy,
		BusinessID:  profile.BusinessID,
		CreatedAt:   profile.CreatedAt,
	}
}

func claimsTenantUser(identity *ory.Identity, claims map[string]any, resolution accesscontrol.Resolution) TenantUser {
	email, name := identityTraits(identity)

	user := TenantUser{
		UID:         identity.Id,
		Email:       email,
		DisplayName: name,
		Role:        types.Role(types.ClaimString(claims, types.ClaimRole)),
		CreatedBy:   resolution.CreatedBy,
		BusinessID:  resolution.BusinessID,
	}
	if identity.CreatedAt != nil {
		user.CreatedAt = *identity.CreatedAt
	}

	return user
}

// identityClaims extracts the admin metadata claim map, tolerating identities
// without one.
func identityClaims(identity *ory.Identity) map[string]any {
	if identity == nil || identity.MetadataAdmin == nil {
		return nil
	}
	if claims, ok := identity.MetadataAdmin.(map[string]any); ok {
		return claims
	}
	return nil
}

func identityTraits(identity *ory.Identity) (email, name string) {
	if identity == nil {
		return "", ""
	}
	traits, ok := identity.Traits.(map[string]any)
	if !ok {
		return "", ""
	}
	if v, ok := traits["email"].(string); ok {
		email = v
	}
	if v, ok := traits["name"].(string); ok {
		name = v
	}
	return email, name
}
