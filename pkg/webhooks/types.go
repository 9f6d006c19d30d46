// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

// LoginEvent is the payload Kratos posts after a successful login flow.
type LoginEvent struct {
	Identity KratosIdentity `json:"identity"`
}

type KratosIdentity struct {
	ID            string         `json:"id"`
	Traits        KratosTraits   `json:"traits"`
	MetadataAdmin map[string]any `json:"metadata_admin"`
}

type KratosTraits struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
