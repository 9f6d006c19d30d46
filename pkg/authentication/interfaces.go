// Copyright 2025 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
)

type ProviderInterface interface {
	// Verifier returns the token verifier associated with the specified OIDC issuer
	Verifier(*oidc.Config) *oidc.IDTokenVerifier
}

// DecodedIdentity is the result of verifying a bearer token: the subject id
// and the claim set embedded at issuance time. Claims are a snapshot as of
// the last token refresh, not a live view of the identity record.
type DecodedIdentity struct {
	UID    string
	Claims map[string]any
}

type TokenVerifierInterface interface {
	// VerifyToken verifies a raw JWT string.
	// Returns the decoded identity if the token is valid, otherwise an error.
	VerifyToken(ctx context.Context, rawToken string) (*DecodedIdentity, error)
}
