// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package accesscontrol

import (
	"github.com/bizledger/admin-service/internal/types"
)

// ResolutionSource names the rule that produced a tenant resolution.
type ResolutionSource string

const (
	SourceProfile   ResolutionSource = "profile"
	SourceClaims    ResolutionSource = "claims"
	SourceBackfill  ResolutionSource = "backfill"
	SourceBootstrap ResolutionSource = "bootstrap"
	SourceNone      ResolutionSource = "none"
)

// Resolution is the effective tenant identity of a user. A zero BusinessID
// means "no tenant", never "tenant equal to uid".
type Resolution struct {
	BusinessID string
	CreatedBy  string
	Source     ResolutionSource
}

// ResolveInput carries everything the resolver may consult. The function is
// pure: no lookups happen beyond these fields.
type ResolveInput struct {
	// Profile is the user's profile record, if one exists.
	Profile *types.UserProfile
	// Claims is the claim set from the identity provider, if available.
	Claims map[string]any
	// BackfillBusinessID, when set, is a caller-supplied default tenant
	// (the acting admin's own) consulted only after profile and claims are
	// both silent. Used for legacy backfill on role updates.
	BackfillBusinessID string
	// BootstrapSelfUID, when set, enables the first-login bootstrap rule:
	// an absent business id defaults to createdBy, or to this uid when
	// createdBy is also unknown, so every synthesized profile ends up with
	// a non-null tenant.
	BootstrapSelfUID string
}

// resolutionRule pairs a source label with its resolution attempt. Rules are
// consulted strictly in order; the first that applies wins.
type resolutionRule struct {
	source  ResolutionSource
	resolve func(ResolveInput) (Resolution, bool)
}

var resolutionRules = []resolutionRule{
	{
		source: SourceProfile,
		resolve: func(in ResolveInput) (Resolution, bool) {
			if in.Profile == nil || in.Profile.BusinessID == "" {
				return Resolution{}, false
			}
			return Resolution{BusinessID: in.Profile.BusinessID, CreatedBy: in.Profile.CreatedBy}, true
		},
	},
	{
		source: SourceClaims,
		resolve: func(in ResolveInput) (Resolution, bool) {
			businessID := types.ClaimString(in.Claims, types.ClaimBusinessID)
			if businessID == "" {
				return Resolution{}, false
			}
			return Resolution{BusinessID: businessID, CreatedBy: types.ClaimString(in.Claims, types.ClaimCreatedBy)}, true
		},
	},
	{
		source: SourceBackfill,
		resolve: func(in ResolveInput) (Resolution, bool) {
			if in.BackfillBusinessID == "" {
				return Resolution{}, false
			}
			// createdBy stays unknown: the backfill default only supplies
			// a tenant id, never an author.
			return Resolution{BusinessID: in.BackfillBusinessID}, true
		},
	},
	{
		source: SourceBootstrap,
		resolve: func(in ResolveInput) (Resolution, bool) {
			if in.BootstrapSelfUID == "" {
				return Resolution{}, false
			}
			createdBy := types.ClaimString(in.Claims, types.ClaimCreatedBy)
			if createdBy == "" && in.Profile != nil {
				createdBy = in.Profile.CreatedBy
			}
			businessID := createdBy
			if businessID == "" {
				businessID = in.BootstrapSelfUID
			}
			return Resolution{BusinessID: businessID, CreatedBy: createdBy}, true
		},
	},
}

// ResolveTenant determines the effective tenant of a user by walking the
// ordered rule table: profile record, then token claims, then the optional
// backfill default, then the optional first-login bootstrap. When no rule
// applies the result has an empty BusinessID and Source "none".
func ResolveTenant(in ResolveInput) Resolution {
	for _, rule := range resolutionRules {
		if res, ok := rule.resolve(in); ok {
			res.Source = rule.source
			return res
		}
	}

	// still surface a createdBy when known, e.g. for the same-tenant
	// legacy fallback check
	createdBy := types.ClaimString(in.Claims, types.ClaimCreatedBy)
	if createdBy == "" && in.Profile != nil {
		createdBy = in.Profile.CreatedBy
	}

	return Resolution{CreatedBy: createdBy, Source: SourceNone}
}
