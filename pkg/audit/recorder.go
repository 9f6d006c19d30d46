// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bizledger/admin-service/internal/logging"
	"github.com/bizledger/admin-service/internal/monitoring"
	"github.com/bizledger/admin-service/internal/tracing"
	"github.com/bizledger/admin-service/internal/types"
)

var _ RecorderInterface = (*Recorder)(nil)

// Recorder persists audit entries to the append-only audit log.
type Recorder struct {
	store AuditStoreInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Record stamps the entry with an id and UTC timestamp and appends it.
// A failed append is logged but never surfaced: the privileged action's
// outcome must not depend on the audit trail being writable.
func (r *Recorder) Record(ctx context.Context, entry *types.AuditEntry) {
	ctx, span := r.tracer.Start(ctx, "audit.Recorder.Record")
	defer span.End()

	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			r.logger.Errorf("failed to generate audit entry id: %v", err)
			return
		}
		entry.ID = id.String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if err := r.store.AppendAuditEntry(ctx, entry); err != nil {
		r.logger.Errorf("failed to append audit entry %s for action %s: %v", entry.ID, entry.Action, err)
	}
}

func NewRecorder(store AuditStoreInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Recorder {
	return &Recorder{
		store:   store,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
