// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"time"

	"github.com/bizledger/admin-service/internal/types"
)

type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"displayName" validate:"required"`
	Role        string `json:"role" validate:"required"`
	// Password is optional; without one the account starts credential-less
	// and the user sets a password through a recovery flow.
	Password string `json:"password" validate:"omitempty,min=8"`
}

type DeleteUserRequest struct {
	UID string `json:"uid" validate:"required"`
}

type ResetPasswordRequest struct {
	UID string `json:"uid" validate:"required"`
}

type UpdateRoleRequest struct {
	UID  string `json:"uid" validate:"required"`
	Role string `json:"role" validate:"required"`
}

// TenantUser is one account visible to a tenant admin, whether or not the
// user has logged in and acquired a profile record yet.
type TenantUser struct {
	UID         string     `json:"uid"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Role        types.Role `json:"role"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	BusinessID  string     `json:"businessId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ProvisionResult tracks which of the two sequential writes in user creation
// succeeded. The identity-provider write and the profile write are not
// transactional: an identity can exist without a profile. That window is
// reported, not rolled back.
type ProvisionResult struct {
	IdentityWriteOK bool
	ProfileWriteOK  bool
	User            *TenantUser
}

type createUserResponse struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message"`
	UID         string     `json:"uid"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Role        types.Role `json:"role"`
}

type resetPasswordResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ResetLink string `json:"resetLink"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type listUsersResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Users   []TenantUser `json:"users"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}
