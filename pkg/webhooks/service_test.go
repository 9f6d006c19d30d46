// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/bizledger/admin-service/internal/logging"
	"github.com/bizledger/admin-service/internal/monitoring"
	"github.com/bizledger/admin-service/internal/storage"
	"github.com/bizledger/admin-service/internal/tracing"
	"github.com/bizledger/admin-service/internal/types"
	"github.com/bizledger/admin-service/pkg/audit"
)

func newTestWebhookService(t *testing.T) (*Service, *MockStorageInterface, *MockTxRunnerInterface, *audit.MockRecorderInterface) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockStorage := NewMockStorageInterface(ctrl)
	mockTx := NewMockTxRunnerInterface(ctrl)
	mockRecorder := audit.NewMockRecorderInterface(ctrl)

	service := NewService(mockStorage, mockTx, mockRecorder,
		tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test"), logging.NewNoopLogger())

	return service, mockStorage, mockTx, mockRecorder
}

// passthroughTx makes WithTx run the closure directly.
func passthroughTx(mockTx *MockTxRunnerInterface) {
	mockTx.EXPECT().WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		})
}

func TestService_HandleLogin(t *testing.T) {
	t.Run("missing identity id", func(t *testing.T) {
		service, _, _, _ := newTestWebhookService(t)

		if err := service.HandleLogin(context.Background(), KratosIdentity{}); err == nil {
			t.Fatal("expected an error for an empty identity id")
		}
	})

	t.Run("existing profile refreshes last login", func(t *testing.T) {
		service, mockStorage, _, _ := newTestWebhookService(t)

		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-1").Return(
			&types.UserProfile{UID: "user-1", BusinessID: "biz-1"}, nil)
		mockStorage.EXPECT().UpdateLastLogin(gomock.Any(), "user-1", gomock.Any()).Return(nil)

		err := service.HandleLogin(context.Background(), KratosIdentity{
			ID:     "user-1",
			Traits: KratosTraits{Email: "user1@acme.test"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("first login with tenant claims synthesizes profile", func(t *testing.T) {
		service, mockStorage, mockTx, mockRecorder := newTestWebhookService(t)

		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-2").Return(nil, storage.ErrNotFound)
		passthroughTx(mockTx)
		mockStorage.EXPECT().CreateUserProfile(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, profile *types.UserProfile) (*types.UserProfile, error) {
				if profile.BusinessID != "biz-1" || profile.CreatedBy != "admin-1" {
					t.Errorf("expected claim-derived tenant, got %+v", profile)
				}
				if profile.Role != types.RoleSales {
					t.Errorf("expected SALES role from claims, got %s", profile.Role)
				}
				if profile.IsOwner {
					t.Error("invited user must not be marked owner")
				}
				return profile, nil
			})
		mockStorage.EXPECT().UpdateLastLogin(gomock.Any(), "user-2", gomock.Any()).Return(nil)
		mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any())

		err := service.HandleLogin(context.Background(), KratosIdentity{
			ID:     "user-2",
			Traits: KratosTraits{Email: "user2@acme.test", Name: "User Two"},
			MetadataAdmin: map[string]any{
				"businessId": "biz-1",
				"createdBy":  "admin-1",
				"role":       "SALES",
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("first login without claims bootstraps founding admin", func(t *testing.T) {
		service, mockStorage, mockTx, mockRecorder := newTestWebhookService(t)

		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "founder-1").Return(nil, storage.ErrNotFound)
		passthroughTx(mockTx)
		mockStorage.EXPECT().GetBusinessByID(gomock.Any(), "founder-1").Return(nil, storage.ErrNotFound)
		mockStorage.EXPECT().CreateBusiness(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, business *types.Business) (*types.Business, error) {
				if business.ID != "founder-1" || business.OwnerID != "founder-1" {
					t.Errorf("business not keyed by founder uid: %+v", business)
				}
				return business, nil
			})
		mockStorage.EXPECT().CreateUserProfile(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, profile *types.UserProfile) (*types.UserProfile, error) {
				if profile.BusinessID != "founder-1" {
					t.Errorf("expected self-bootstrapped tenant, got %q", profile.BusinessID)
				}
				if profile.Role != types.RoleAdmin || !profile.IsOwner {
					t.Errorf("founding user must be owning admin, got %+v", profile)
				}
				return profile, nil
			})
		mockStorage.EXPECT().UpdateLastLogin(gomock.Any(), "founder-1", gomock.Any()).Return(nil)
		mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any())

		err := service.HandleLogin(context.Background(), KratosIdentity{
			ID:     "founder-1",
			Traits: KratosTraits{Email: "founder@acme.test", Name: "Founder"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("first login with createdBy only inherits creator tenant", func(t *testing.T) {
		service, mockStorage, mockTx, mockRecorder := newTestWebhookService(t)

		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-3").Return(nil, storage.ErrNotFound)
		passthroughTx(mockTx)
		mockStorage.EXPECT().CreateUserProfile(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, profile *types.UserProfile) (*types.UserProfile, error) {
				// legacy bootstrap: absent businessId defaults to createdBy
				if profile.BusinessID != "admin-1" || profile.CreatedBy != "admin-1" {
					t.Errorf("expected createdBy fallback, got %+v", profile)
				}
				if profile.Role != types.RoleViewer {
					t.Errorf("expected VIEWER default, got %s", profile.Role)
				}
				return profile, nil
			})
		mockStorage.EXPECT().UpdateLastLogin(gomock.Any(), "user-3", gomock.Any()).Return(nil)
		mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any())

		err := service.HandleLogin(context.Background(), KratosIdentity{
			ID:            "user-3",
			Traits:        KratosTraits{Email: "user3@acme.test"},
			MetadataAdmin: map[string]any{"createdBy": "admin-1"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("profile creation failure surfaces", func(t *testing.T) {
		service, mockStorage, mockTx, _ := newTestWebhookService(t)

		mockStorage.EXPECT().GetUserProfile(gomock.Any(), "user-4").Return(nil, storage.ErrNotFound)
		passthroughTx(mockTx)
		mockStorage.EXPECT().CreateUserProfile(gomock.Any(), gomock.Any()).Return(nil, errors.New("insert failed"))

		err := service.HandleLogin(context.Background(), KratosIdentity{
			ID:            "user-4",
			MetadataAdmin: map[string]any{"businessId": "biz-1"},
		})
		if err == nil {
			t.Fatal("expected an error")
		}
	})
}
