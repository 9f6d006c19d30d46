// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"

	"github.com/bizledger/admin-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package audit -destination ./mock_audit.go -source=./interfaces.go

// RecorderInterface records privileged action outcomes. Recording must never
// fail the action it describes; implementations log and swallow errors.
type RecorderInterface interface {
	Record(ctx context.Context, entry *types.AuditEntry)
}

// AuditStoreInterface is the subset of storage the recorder needs.
type AuditStoreInterface interface {
	AppendAuditEntry(ctx context.Context, entry *types.AuditEntry) error
}
