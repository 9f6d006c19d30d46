// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/bizledger/admin-service/internal/logging"
	"github.com/bizledger/admin-service/internal/monitoring"
	"github.com/bizledger/admin-service/internal/tracing"
	"github.com/bizledger/admin-service/internal/types"
	"github.com/bizledger/admin-service/pkg/accesscontrol"
	"github.com/bizledger/admin-service/pkg/authentication"
)

func newTestAPI(t *testing.T) (*chi.Mux, *MockServiceInterface, *accesscontrol.MockGuardInterface) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockService := NewMockServiceInterface(ctrl)
	mockGuard := accesscontrol.NewMockGuardInterface(ctrl)

	api := NewAPI(mockService, mockGuard, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test"), logging.NewNoopLogger())

	mux := chi.NewMux()
	api.RegisterEndpoints(mux)

	return mux, mockService, mockGuard
}

func guardAdmin() *accesscontrol.AdminContext {
	return &accesscontrol.AdminContext{
		Identity:   &authentication.DecodedIdentity{UID: "admin-1"},
		Profile:    &types.UserProfile{UID: "admin-1", Email: "admin@acme.test", Role: types.RoleAdmin, BusinessID: "biz-1"},
		BusinessID: "biz-1",
	}
}

func TestAPI_CreateUser(t *testing.T) {
	testCases := []struct {
		name           string
		body           string
		setupMocks     func(*MockServiceInterface, *accesscontrol.MockGuardInterface)
		expectedStatus int
	}{
		{
			name: "guard rejects",
			body: `{"email":"a@b.test","displayName":"A","role":"SALES"}`,
			setupMocks: func(s *MockServiceInterface, g *accesscontrol.MockGuardInterface) {
				g.EXPECT().RequireAdmin(gomock.Any()).Return(nil, accesscontrol.Forbidden("admin access required"))
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "invalid body",
			body: `{not json`,
			setupMocks: func(s *MockServiceInterface, g *accesscontrol.MockGuardInterface) {
				g.EXPECT().RequireAdmin(gomock.Any()).Return(guardAdmin(), nil)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing fields",
			body: `{"email":"a@b.test"}`,
			setupMocks: func(s *MockServiceInterface, g *accesscontrol.MockGuardInterface) {
				g.EXPECT().RequireAdmin(gomock.Any()).Return(guardAdmin(), nil)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad email",
			body: `{"email":"not-an-email","displayName":"A","role":"SALES"}`,
			setupMocks: func(s *MockServiceInterface, g *accesscontrol.MockGuardInterface) {
				g.EXPECT().RequireAdmin(gomock.Any()).Return(guardAdmin(), nil)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "created",
			body: `{"email":"a@b.test","displayName":"A","role":"SALES"}`,
			setupMocks: func(s *MockServiceInterface, g *accesscontrol.MockGuardInterface) {
				g.EXPECT().RequireAdmin(gomock.Any()).Return(guardAdmin(), nil)
				s.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).Return(&ProvisionResult{
					IdentityWriteOK: true,
					ProfileWriteOK:  true,
					User:            &TenantUser{UID: "new-uid", Email: "a@b.test", DisplayName: "A", Role: types.RoleSales},
				}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "service failure",
			body: `{"email":"a@b.test","displayName":"A","role":"SALES"}`,
			setupMocks: func(s *MockServiceInterface, g *accesscontrol.MockGuardInterface) {
				g.EXPECT().RequireAdmin(gomock.Any()).Return(guardAdmin(), nil)
				s.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(&ProvisionResult{IdentityWriteOK: true}, accesscontrol.Internal("user account created but profile setup failed"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux, mockService, mockGuard := newTestAPI(t)
			tc.setupMocks(mockService, mockGuard)

			req := httptest.NewRequest(http.MethodPost, "/api/users/create", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			if rr.Code != tc.expectedStatus {
				t.Fatalf("expected %d, got %d (%s)", tc.expectedStatus, rr.Code, rr.Body.String())
			}

			var envelope map[string]any
			if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			wantSuccess := tc.expectedStatus < 300
			if envelope["success"] != wantSuccess {
				t.Errorf("expected success=%v, got %v", wantSuccess, envelope["success"])
			}
			if tc.expectedStatus == http.StatusCreated && envelope["uid"] != "new-uid" {
				t.Errorf("expected uid in payload, got %v", envelope)
			}
		})
	}
}

func TestAPI_DeleteUser(t *testing.T) {
	testCases := []struct {
		name           string
		body           string
		setupMocks     func(*MockServiceInterface, *accesscontrol.MockGuardInterface)
		expectedStatus int
	}{
		{
			name: "missing uid",
			body: `{}`,
			setupMocks: func(s *MockServiceInterface, g *accesscontrol.MockGuardInterface) {
				g.EXPECT().RequireAdmin(gomock.Any()).Return(guardAdmin(), nil)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "self delete rejected",
			body: `{"uid":"admin-1"}`,
			setupMocks: func(s *MockServiceInterface, g *accesscontrol.MockGuardInterface) {
				g.EXPECT().RequireAdmin(gomock.Any()).Return(guardAdmin(), nil)
				s.EXPECT().DeleteUser(gomock.Any(), gomock.Any(), "admin-1").
					Return(accesscontrol.BadRequest("cannot delete your own account"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "not found",
			body: `{"uid":"ghost"}`,
			setupMocks: func(s *MockServiceInterface, g *accesscontrol.MockGuardInterface) {
				g.EXPECT().RequireAdmin(gomock.Any()).Return(guardAdmin(), nil)
				s.EXPECT().DeleteUser(gomock.Any(), gomock.Any(), "ghost").
					Return(accesscontrol.NotFound("user not found"))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "deleted",
			body: `{"uid":"user-2"}`,
			setupMocks: func(s *MockServiceInterface, g *accesscontrol.MockGuardInterface) {
				g.EXPECT().RequireAdmin(gomock.Any()).Return(guardAdmin(), nil)
				s.EXPECT().DeleteUser(gomock.Any(), gomock.Any(), "user-2").Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux, mockService, mockGuard := newTestAPI(t)
			tc.setupMocks(mockService, mockGuard)

			req := httptest.NewRequest(http.MethodDelete, "/api/users/delete", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			if rr.Code != tc.expectedStatus {
				t.Fatalf("expected %d, got %d (%s)", tc.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestAPI_ResetPassword(t *testing.T) {
	mux, mockService, mockGuard := newTestAPI(t)

	mockGuard.EXPECT().RequireAdmin(gomock.Any()).Return(guardAdmin(), nil)
	mockService.EXPECT().ResetPassword(gomock.Any(), gomock.Any(), "user-2").
		Return("https://auth.acme.test/recovery?flow=abc", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/users/reset-password", strings.NewReader(`{"uid":"user-2"}`))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}

	var resp resetPasswordResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.ResetLink != "https://auth.acme.test/recovery?flow=abc" {
		t.Errorf("unexpected reset link %q", resp.ResetLink)
	}
}

func TestAPI_UpdateRole(t *testing.T) {
	mux, mockService, mockGuard := newTestAPI(t)

	mockGuard.EXPECT().RequireAdmin(gomock.Any()).Return(guardAdmin(), nil)
	mockService.EXPECT().UpdateRole(gomock.Any(), gomock.Any(), "user-2", types.RoleManager).
		Return("role updated to MANAGER; the user must sign in again before the change takes effect", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/users/update-role", strings.NewReader(`{"uid":"user-2","role":"MANAGER"}`))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "sign in again") {
		t.Errorf("expected re-authentication notice, got %s", rr.Body.String())
	}
}

func TestAPI_ListUsers(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		mux, _, mockGuard := newTestAPI(t)

		mockGuard.EXPECT().RequireAdmin(gomock.Any()).Return(nil, accesscontrol.Unauthorized("missing token"))

		req := httptest.NewRequest(http.MethodGet, "/api/users/list-auth", nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("degraded listing carries message", func(t *testing.T) {
		mux, mockService, mockGuard := newTestAPI(t)

		mockGuard.EXPECT().RequireAdmin(gomock.Any()).Return(guardAdmin(), nil)
		mockService.EXPECT().ListTenantUsers(gomock.Any(), gomock.Any()).
			Return([]TenantUser{}, "user directory temporarily unavailable", nil)

		req := httptest.NewRequest(http.MethodGet, "/api/users/list-auth", nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}

		var resp listUsersResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
		if len(resp.Users) != 0 || resp.Message == "" {
			t.Errorf("expected empty degraded list with message, got %+v", resp)
		}
	})

	t.Run("users returned", func(t *testing.T) {
		mux, mockService, mockGuard := newTestAPI(t)

		mockGuard.EXPECT().RequireAdmin(gomock.Any()).Return(guardAdmin(), nil)
		mockService.EXPECT().ListTenantUsers(gomock.Any(), gomock.Any()).
			Return([]TenantUser{
				{UID: "user-1", Email: "user1@acme.test", Role: types.RoleAccountant, BusinessID: "biz-1"},
				{UID: "user-2", Email: "user2@acme.test", Role: types.RoleSales, BusinessID: "biz-1"},
			}, "", nil)

		req := httptest.NewRequest(http.MethodGet, "/api/users/list-auth", nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}

		var resp listUsersResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
		if len(resp.Users) != 2 {
			t.Errorf("expected 2 users, got %d", len(resp.Users))
		}
	})
}
