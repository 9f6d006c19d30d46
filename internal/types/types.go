// Copyright 2025 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

// Role governs which operations a user may perform inside their business.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleAccountant Role = "ACCOUNTANT"
	RoleSales      Role = "SALES"
	RoleManager    Role = "MANAGER"
	RoleViewer     Role = "VIEWER"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleAccountant, RoleSales, RoleManager, RoleViewer:
		return true
	}
	return false
}

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusDisabled Status = "DISABLED"
	StatusPending  Status = "PENDING"
)

// UserProfile is the per-user record keyed by the identity provider's
// subject id. BusinessID is the tenant boundary: every query a user is
// permitted to issue is scoped by it.
type UserProfile struct {
	UID         string         `db:"uid"`
	Email       string         `db:"email"`
	DisplayName string         `db:"display_name"`
	Role        Role           `db:"role"`
	Status      Status         `db:"status"`
	BusinessID  string         `db:"business_id"`
	IsOwner     bool           `db:"is_owner"`
	CreatedBy   string         `db:"created_by"`
	CreatedAt   time.Time      `db:"created_at"`
	LastLogin   *time.Time     `db:"last_login"`
	Metadata    map[string]any `db:"metadata"`
}

// Business is the tenant record.
type Business struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	OwnerID       string    `db:"owner_id"`
	Status        Status    `db:"status"`
	Currency      string    `db:"currency"`
	InvoicePrefix string    `db:"invoice_prefix"`
	CreatedAt     time.Time `db:"created_at"`
}

// Claim keys carried in identity-provider metadata and embedded in issued
// tokens. Claims are a snapshot as of the last token refresh, so the profile
// record is authoritative whenever the two disagree.
const (
	ClaimRole       = "role"
	ClaimAdmin      = "admin"
	ClaimBusinessID = "businessId"
	ClaimCreatedBy  = "createdBy"
)

// ClaimString extracts a string claim, tolerating absent or non-string values.
func ClaimString(claims map[string]any, key string) string {
	if claims == nil {
		return ""
	}
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

type AuditAction string

const (
	AuditCreateUser    AuditAction = "CREATE_USER"
	AuditDeleteUser    AuditAction = "DELETE_USER"
	AuditUpdateRole    AuditAction = "UPDATE_ROLE"
	AuditResetPassword AuditAction = "RESET_PASSWORD"
	AuditListUsers     AuditAction = "LIST_USERS"
	AuditLoginSync     AuditAction = "LOGIN_SYNC"
)

// AuditEntry is an append-only record of a privileged action outcome.
// Entries are never edited or deleted.
type AuditEntry struct {
	ID           string      `db:"id"`
	Action       AuditAction `db:"action"`
	ActorUID     string      `db:"actor_uid"`
	ActorEmail   string      `db:"actor_email"`
	TargetUID    string      `db:"target_uid"`
	TargetEmail  string      `db:"target_email"`
	Details      string      `db:"details"`
	IPAddress    string      `db:"ip_address"`
	UserAgent    string      `db:"user_agent"`
	Timestamp    time.Time   `db:"timestamp"`
	Success      bool        `db:"success"`
	ErrorMessage string      `db:"error_message"`
}
