// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	ory "github.com/ory/client-go"
	"go.uber.org/mock/gomock"

	"github.com/bizledger/admin-service/internal/kratos"
	"github.com/bizledger/admin-service/internal/logging"
	"github.com/bizledger/admin-service/internal/monitoring"
	"github.com/bizledger/admin-service/internal/storage"
	"github.com/bizledger/admin-service/internal/tracing"
	"github.com/bizledger/admin-service/internal/types"
	"github.com/bizledger/admin-service/pkg/accesscontrol"
	"github.com/bizledger/admin-service/pkg/audit"
	"github.com/bizledger/admin-service/pkg/authentication"
)

func testAdmin() *accesscontrol.AdminContext {
	return &accesscontrol.AdminContext{
		Identity: &authentication.DecodedIdentity{
			UID:    "admin-1",
			Claims: map[string]any{"role": "ADMIN", "businessId": "biz-1"},
		},
		Profile: &types.UserProfile{
			UID:        "admin-1",
			Email:      "admin@acme.test",
			Role:       types.RoleAdmin,
			BusinessID: "biz-1",
		},
		BusinessID: "biz-1",
	}
}

func newTestService(t *testing.T) (*Service, *MockStorageInterface, *MockIdentityClientInterface, *audit.MockRecorderInterface) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockStorage := NewMockStorageInterface(ctrl)
	mockIdentity := NewMockIdentityClientInterface(ctrl)
	mockRecorder := audit.NewMockRecorderInterface(ctrl)

	service := NewService(
		mockStorage,
		mockIdentity,
		mockRecorder,
		24*time.Hour,
		tracing.NewNoopTracer(),
		monitoring.NewNoopMonitor("test"),
		logging.NewNoopLogger(),
	)

	return service, mockStorage, mockIdentity, mockRecorder
}

func TestService_CreateUser(t *testing.T) {
	req := CreateUserRequest{
		Email:       "new@acme.test",
		DisplayName: "New User",
		Role:        "SALES",
	}

	t.Run("unknown role", func(t *testing.T) {
		service, _, _, _ := newTestService(t)

		_, err := service.CreateUser(context.Background(), testAdmin(), CreateUserRequest{
			Email:       "new@acme.test",
			DisplayName: "New User",
			Role:        "SUPERUSER",
		})

		if accesscontrol.CodeOf(err) != accesscontrol.CodeBadRequest {
			t.Fatalf("expected BadRequest, got %v", err)
		}
	})

	t.Run("identity creation failure", func(t *testing.T) {
		service, _, mockIdentity, mockRecorder := newTestService(t)

		mockIdentity.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).Return(nil, errors.New("kratos down"))
		mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any())

		result, err := service.CreateUser(context.Background(), testAdmin(), req)

		if accesscontrol.CodeOf(err) != accesscontrol.CodeInternal {
			t.Fatalf("expected Internal, got %v", err)
		}
		if result.IdentityWriteOK {
			t.Error("identity write should not be marked ok")
		}
	})

	t.Run("profile write failure leaves identity standing", func(t *testing.T) {
		service, mockStorage, mockIdentity, mockRecorder := newTestService(t)

		mockIdentity.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).
			Return(&ory.Identity{Id: "new-uid"}, nil)
		mockStorage.EXPECT().CreateUserProfile(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("insert failed"))
		mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, entry *types.AuditEntry) {
			if entry.Success {
				t.Error("audit entry should record failure")
			}
			if entry.Action != types.AuditCreateUser {
				t.Errorf("expected CREATE_USER action, got %s", entry.Action)
			}
		})

		result, err := service.CreateUser(context.Background(), testAdmin(), req)

		if accesscontrol.CodeOf(err) != accesscontrol.CodeInternal {
			t.Fatalf("expected Internal, got %v", err)
		}
		if !result.IdentityWriteOK || result.ProfileWriteOK {
			t.Errorf("expected identity ok, profile not ok, got %+v", result)
		}
	})

	t.Run("success stamps tenant and author", func(t *testing.T) {
		service, mockStorage, mockIdentity, mockRecorder := newTestService(t)

		mockIdentity.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, user kratos.NewUserIdentity) (*ory.Identity, error) {
				if user.Claims[types.ClaimBusinessID] != "biz-1" {
					t.Errorf("expected businessId claim biz-1, got %v", user.Claims[types.ClaimBusinessID])
				}
				if user.Claims[types.ClaimCreatedBy] != "admin-1" {
					t.Errorf("expected createdBy claim admin-1, got %v", user.Claims[types.ClaimCreatedBy])
				}
				if user.Claims[types.ClaimAdmin] != false {
					t.Errorf("expected admin claim false for SALES, got %v", user.Claims[types.ClaimAdmin])
				}
				return &ory.Identity{Id: "new-uid"}, nil
			})
		mockStorage.EXPECT().CreateUserProfile(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, profile *types.UserProfile) (*types.UserProfile, error) {
				if profile.BusinessID != "biz-1" || profile.CreatedBy != "admin-1" {
					t.Errorf("profile not scoped to admin tenant: %+v", profile)
				}
				if profile.Status != types.StatusActive {
					t.Errorf("expected ACTIVE status, got %s", profile.Status)
				}
				out := *profile
				out.CreatedAt = time.Now()
				return &out, nil
			})
		mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, entry *types.AuditEntry) {
			if !entry.Success {
				t.Error("audit entry should record success")
			}
		})

		result, err := service.CreateUser(context.Background(), testAdmin(), req)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IdentityWriteOK || !result.ProfileWriteOK {
			t.Errorf("expected both writes ok, got %+v", result)
		}
		if result.User.UID != "new-uid" || result.User.Role != types.RoleSales {
			t.Errorf("unexpected user: %+v", result.User)
		}
	})
}

func TestService_DeleteUser(t *testing.T) {
	targetIdentity := &ory.Identity{
		Id:            "user-2",
		Traits:        map[string]any{"email": "user2@acme.test"},
		MetadataAdmin: map[string]any{"businessId": "biz-1", "createdBy": "admin-1"},
	}

	t.Run("self deletion", func(t *testing.T) {
		service, _, _, _ := newTestService(t)

		err := service.DeleteUser(context.Background(), testAdmin(), "admin-1")

		if accesscontrol.CodeOf(err) != accesscontrol.CodeBadRequest {
			t.Fatalf("expected BadRequest, got %v", err)
		}
	})

	t.Run("target not found anywhere", func(t *testing.T) {
		service, mockStorage, mockIdentity, _ := newTestService(t)

		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "ghost").Return(nil, storage.ErrNotFound)
		mockIdentity.EXPECT().GetIdentity(gomock.Any(), "ghost").Return(nil, kratos.ErrIdentityNotFound)

		err := service.DeleteUser(context.Background(), testAdmin(), "ghost")

		if accesscontrol.CodeOf(err) != accesscontrol.CodeNotFound {
			t.Fatalf("expected NotFound, got %v", err)
		}
	})

	t.Run("cross tenant", func(t *testing.T) {
		service, mockStorage, mockIdentity, _ := newTestService(t)

		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-2").Return(
			&types.UserProfile{UID: "user-2", BusinessID: "biz-other"}, nil)
		mockIdentity.EXPECT().GetIdentity(gomock.Any(), "user-2").Return(targetIdentity, nil)

		err := service.DeleteUser(context.Background(), testAdmin(), "user-2")

		if accesscontrol.CodeOf(err) != accesscontrol.CodeForbidden {
			t.Fatalf("expected Forbidden, got %v", err)
		}
	})

	t.Run("legacy target matched via createdBy", func(t *testing.T) {
		service, mockStorage, mockIdentity, mockRecorder := newTestService(t)

		// no businessId anywhere, but created directly by this admin
		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-2").Return(
			&types.UserProfile{UID: "user-2", Email: "user2@acme.test", CreatedBy: "admin-1"}, nil)
		mockIdentity.EXPECT().GetIdentity(gomock.Any(), "user-2").Return(
			&ory.Identity{Id: "user-2", Traits: map[string]any{"email": "user2@acme.test"}}, nil)
		mockStorage.EXPECT().DeleteUserProfile(gomock.Any(), "user-2").Return(nil)
		mockIdentity.EXPECT().DeleteIdentity(gomock.Any(), "user-2").Return(nil)
		mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any())

		if err := service.DeleteUser(context.Background(), testAdmin(), "user-2"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("profile delete failure does not abort", func(t *testing.T) {
		service, mockStorage, mockIdentity, mockRecorder := newTestService(t)

		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-2").Return(
			&types.UserProfile{UID: "user-2", BusinessID: "biz-1"}, nil)
		mockIdentity.EXPECT().GetIdentity(gomock.Any(), "user-2").Return(targetIdentity, nil)
		mockStorage.EXPECT().DeleteUserProfile(gomock.Any(), "user-2").Return(errors.New("db down"))
		mockIdentity.EXPECT().DeleteIdentity(gomock.Any(), "user-2").Return(nil)
		mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any())

		if err := service.DeleteUser(context.Background(), testAdmin(), "user-2"); err != nil {
			t.Fatalf("expected success despite profile delete failure, got %v", err)
		}
	})

	t.Run("identity delete failure is fatal", func(t *testing.T) {
		service, mockStorage, mockIdentity, mockRecorder := newTestService(t)

		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-2").Return(
			&types.UserProfile{UID: "user-2", BusinessID: "biz-1"}, nil)
		mockIdentity.EXPECT().GetIdentity(gomock.Any(), "user-2").Return(targetIdentity, nil)
		mockStorage.EXPECT().DeleteUserProfile(gomock.Any(), "user-2").Return(nil)
		mockIdentity.EXPECT().DeleteIdentity(gomock.Any(), "user-2").Return(errors.New("kratos down"))
		mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any())

		err := service.DeleteUser(context.Background(), testAdmin(), "user-2")

		if accesscontrol.CodeOf(err) != accesscontrol.CodeInternal {
			t.Fatalf("expected Internal, got %v", err)
		}
	})
}

func TestService_ResetPassword(t *testing.T) {
	t.Run("target without email", func(t *testing.T) {
		service, mockStorage, mockIdentity, _ := newTestService(t)

		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-2").Return(nil, storage.ErrNotFound)
		mockIdentity.EXPECT().GetIdentity(gomock.Any(), "user-2").Return(
			&ory.Identity{Id: "user-2", MetadataAdmin: map[string]any{"businessId": "biz-1"}}, nil)

		_, err := service.ResetPassword(context.Background(), testAdmin(), "user-2")

		if accesscontrol.CodeOf(err) != accesscontrol.CodeBadRequest {
			t.Fatalf("expected BadRequest, got %v", err)
		}
	})

	t.Run("cross tenant", func(t *testing.T) {
		service, mockStorage, mockIdentity, _ := newTestService(t)

		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-2").Return(
			&types.UserProfile{UID: "user-2", Email: "user2@other.test", BusinessID: "biz-other"}, nil)
		mockIdentity.EXPECT().GetIdentity(gomock.Any(), "user-2").Return(&ory.Identity{Id: "user-2"}, nil)

		_, err := service.ResetPassword(context.Background(), testAdmin(), "user-2")

		if accesscontrol.CodeOf(err) != accesscontrol.CodeForbidden {
			t.Fatalf("expected Forbidden, got %v", err)
		}
	})

	t.Run("success returns link", func(t *testing.T) {
		service, mockStorage, mockIdentity, mockRecorder := newTestService(t)

		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-2").Return(
			&types.UserProfile{UID: "user-2", Email: "user2@acme.test", BusinessID: "biz-1"}, nil)
		mockIdentity.EXPECT().GetIdentity(gomock.Any(), "user-2").Return(&ory.Identity{Id: "user-2"}, nil)
		mockIdentity.EXPECT().CreateRecoveryLink(gomock.Any(), "user-2", "24h0m0s").
			Return("https://auth.acme.test/recovery?flow=abc", "CODE", nil)
		mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any())

		link, err := service.ResetPassword(context.Background(), testAdmin(), "user-2")

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if link != "https://auth.acme.test/recovery?flow=abc" {
			t.Errorf("unexpected link %q", link)
		}
	})
}

func TestService_UpdateRole(t *testing.T) {
	t.Run("self role change", func(t *testing.T) {
		service, _, _, _ := newTestService(t)

		_, err := service.UpdateRole(context.Background(), testAdmin(), "admin-1", types.RoleViewer)

		if accesscontrol.CodeOf(err) != accesscontrol.CodeBadRequest {
			t.Fatalf("expected BadRequest, got %v", err)
		}
	})

	t.Run("invalid role", func(t *testing.T) {
		service, _, _, _ := newTestService(t)

		_, err := service.UpdateRole(context.Background(), testAdmin(), "user-2", types.Role("WIZARD"))

		if accesscontrol.CodeOf(err) != accesscontrol.CodeBadRequest {
			t.Fatalf("expected BadRequest, got %v", err)
		}
	})

	t.Run("cross tenant", func(t *testing.T) {
		service, mockStorage, mockIdentity, _ := newTestService(t)

		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-2").Return(
			&types.UserProfile{UID: "user-2", BusinessID: "biz-other"}, nil)
		mockIdentity.EXPECT().GetIdentity(gomock.Any(), "user-2").Return(&ory.Identity{Id: "user-2"}, nil)

		_, err := service.UpdateRole(context.Background(), testAdmin(), "user-2", types.RoleManager)

		if accesscontrol.CodeOf(err) != accesscontrol.CodeForbidden {
			t.Fatalf("expected Forbidden, got %v", err)
		}
	})

	t.Run("merge preserves unrelated claims", func(t *testing.T) {
		service, mockStorage, mockIdentity, mockRecorder := newTestService(t)

		identity := &ory.Identity{
			Id:            "user-2",
			Traits:        map[string]any{"email": "user2@acme.test"},
			MetadataAdmin: map[string]any{"businessId": "biz-1", "createdBy": "admin-1", "beta": true},
		}

		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-2").Return(
			&types.UserProfile{UID: "user-2", BusinessID: "biz-1", CreatedBy: "admin-1"}, nil)
		mockIdentity.EXPECT().GetIdentity(gomock.Any(), "user-2").Return(identity, nil)
		mockIdentity.EXPECT().UpdateIdentityClaims(gomock.Any(), identity, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *ory.Identity, claims map[string]any) error {
				if claims["beta"] != true {
					t.Error("unrelated claim was dropped by the merge")
				}
				if claims[types.ClaimRole] != "MANAGER" || claims[types.ClaimAdmin] != false {
					t.Errorf("access-control claims not overwritten: %v", claims)
				}
				return nil
			})
		mockStorage.EXPECT().UpdateUserRole(gomock.Any(), "user-2", types.RoleManager, "").Return(nil)
		mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any())

		message, err := service.UpdateRole(context.Background(), testAdmin(), "user-2", types.RoleManager)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(message, "sign in again") {
			t.Errorf("message should mention re-authentication, got %q", message)
		}
	})

	t.Run("legacy target gets tenant backfilled", func(t *testing.T) {
		service, mockStorage, mockIdentity, mockRecorder := newTestService(t)

		identity := &ory.Identity{
			Id:            "user-3",
			Traits:        map[string]any{"email": "user3@acme.test"},
			MetadataAdmin: map[string]any{"createdBy": "admin-1"},
		}

		// profile exists but predates the tenant backfill
		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-3").Return(
			&types.UserProfile{UID: "user-3", CreatedBy: "admin-1"}, nil)
		mockIdentity.EXPECT().GetIdentity(gomock.Any(), "user-3").Return(identity, nil)
		mockIdentity.EXPECT().UpdateIdentityClaims(gomock.Any(), identity, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *ory.Identity, claims map[string]any) error {
				if claims[types.ClaimBusinessID] != "biz-1" {
					t.Errorf("expected backfilled businessId biz-1, got %v", claims[types.ClaimBusinessID])
				}
				return nil
			})
		mockStorage.EXPECT().UpdateUserRole(gomock.Any(), "user-3", types.RoleAccountant, "biz-1").Return(nil)
		mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any())

		if _, err := service.UpdateRole(context.Background(), testAdmin(), "user-3", types.RoleAccountant); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestService_ListTenantUsers(t *testing.T) {
	t.Run("enumeration failure degrades to empty list", func(t *testing.T) {
		service, mockStorage, mockIdentity, _ := newTestService(t)

		mockStorage.EXPECT().ListProfilesByBusiness(gomock.Any(), "biz-1").Return(
			[]*types.UserProfile{{UID: "user-1", BusinessID: "biz-1"}}, nil)
		mockIdentity.EXPECT().ListIdentities(gomock.Any(), "").Return(nil, errors.New("kratos down"))

		users, message, err := service.ListTenantUsers(context.Background(), testAdmin())

		if err != nil {
			t.Fatalf("expected degraded success, got error %v", err)
		}
		if len(users) != 0 {
			t.Errorf("expected empty list, got %d users", len(users))
		}
		if message == "" {
			t.Error("expected an explanatory message")
		}
	})

	t.Run("profile and claims tiers combined across pages", func(t *testing.T) {
		service, mockStorage, mockIdentity, mockRecorder := newTestService(t)

		mockStorage.EXPECT().ListProfilesByBusiness(gomock.Any(), "biz-1").Return(
			[]*types.UserProfile{
				{UID: "user-1", Email: "user1@acme.test", Role: types.RoleAccountant, BusinessID: "biz-1"},
			}, nil)

		page1 := &kratos.IdentityPage{
			Identities: []ory.Identity{
				{Id: "user-1"}, // has a profile, included from it
				{
					Id:            "user-2", // claims-only, same tenant
					Traits:        map[string]any{"email": "user2@acme.test", "name": "User Two"},
					MetadataAdmin: map[string]any{"businessId": "biz-1", "role": "SALES"},
				},
			},
			NextPageToken: "page-2",
		}
		page2 := &kratos.IdentityPage{
			Identities: []ory.Identity{
				{
					Id:            "user-3", // claims say biz-1, profile says otherwise
					MetadataAdmin: map[string]any{"businessId": "biz-1"},
				},
				{
					Id:            "user-4", // different tenant entirely
					MetadataAdmin: map[string]any{"businessId": "biz-other"},
				},
				{Id: "user-5"}, // no claims, no profile
			},
		}

		mockIdentity.EXPECT().ListIdentities(gomock.Any(), "").Return(page1, nil)
		mockIdentity.EXPECT().ListIdentities(gomock.Any(), "page-2").Return(page2, nil)

		// verification hop for the claims-only candidates
		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-2").Return(nil, storage.ErrNotFound)
		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-3").Return(
			&types.UserProfile{UID: "user-3", BusinessID: "biz-other"}, nil)

		mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any())

		users, message, err := service.ListTenantUsers(context.Background(), testAdmin())

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if message != "" {
			t.Errorf("unexpected message %q", message)
		}
		if len(users) != 2 {
			t.Fatalf("expected 2 users, got %d: %+v", len(users), users)
		}

		byUID := map[string]TenantUser{}
		for _, u := range users {
			byUID[u.UID] = u
		}
		if u, ok := byUID["user-1"]; !ok || u.Email != "user1@acme.test" {
			t.Errorf("expected profile-backed user-1, got %+v", byUID)
		}
		if u, ok := byUID["user-2"]; !ok || u.Role != types.RoleSales || u.DisplayName != "User Two" {
			t.Errorf("expected claims-derived user-2, got %+v", byUID)
		}
	})

	t.Run("profile store failure is an error", func(t *testing.T) {
		service, mockStorage, _, _ := newTestService(t)

		mockStorage.EXPECT().ListProfilesByBusiness(gomock.Any(), "biz-1").Return(nil, errors.New("db down"))

		_, _, err := service.ListTenantUsers(context.Background(), testAdmin())

		if accesscontrol.CodeOf(err) != accesscontrol.CodeInternal {
			t.Fatalf("expected Internal, got %v", err)
		}
	})
}
