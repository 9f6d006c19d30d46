// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package accesscontrol

// SameTenantInput describes an admin/target pair for the tenant boundary
// check. Empty strings stand for absent values.
type SameTenantInput struct {
	AdminBusinessID  string
	AdminUID         string
	TargetBusinessID string
	TargetCreatedBy  string
}

// IsSameTenant reports whether the target belongs to the admin's tenant.
//
// True iff the target's business id is present and equals the admin's, or
// the target has no business id but was created directly by this admin
// (a record predating the tenant backfill). Ambiguity fails closed: two
// absent business ids are never "same tenant".
func IsSameTenant(in SameTenantInput) bool {
	if in.TargetBusinessID != "" {
		return in.AdminBusinessID != "" && in.TargetBusinessID == in.AdminBusinessID
	}

	return in.TargetCreatedBy != "" && in.AdminUID != "" && in.TargetCreatedBy == in.AdminUID
}
