// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"testing"
)

func TestDebugLogger(t *testing.T) {
	l := NewLogger("debug")
	if l.Security() == nil {
		t.Error("expected security logger")
	}
}

func TestInvalidLevelFallsBack(t *testing.T) {
	l := NewLogger("invalid")
	if l == nil {
		t.Error("expected logger for invalid level")
	}
}

func TestNoopLogger(t *testing.T) {
	l := NewNoopLogger()
	l.Infof("dropped %s", "message")
	l.Security().AuthzFailure("subject", "action")
}
