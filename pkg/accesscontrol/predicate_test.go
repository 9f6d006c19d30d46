// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package accesscontrol

import (
	"testing"
)

func TestIsSameTenant(t *testing.T) {
	testCases := []struct {
		name     string
		input    SameTenantInput
		expected bool
	}{
		{
			name: "matching business ids",
			input: SameTenantInput{
				AdminBusinessID:  "biz-1",
				AdminUID:         "admin-1",
				TargetBusinessID: "biz-1",
			},
			expected: true,
		},
		{
			name: "different business ids",
			input: SameTenantInput{
				AdminBusinessID:  "biz-1",
				AdminUID:         "admin-1",
				TargetBusinessID: "biz-2",
			},
			expected: false,
		},
		{
			name: "different business ids even when created by this admin",
			input: SameTenantInput{
				AdminBusinessID:  "biz-1",
				AdminUID:         "admin-1",
				TargetBusinessID: "biz-2",
				TargetCreatedBy:  "admin-1",
			},
			expected: false,
		},
		{
			name: "legacy target without business id created by this admin",
			input: SameTenantInput{
				AdminBusinessID: "biz-1",
				AdminUID:        "admin-1",
				TargetCreatedBy: "admin-1",
			},
			expected: true,
		},
		{
			name: "legacy target created by a different admin",
			input: SameTenantInput{
				AdminBusinessID: "biz-1",
				AdminUID:        "admin-1",
				TargetCreatedBy: "admin-2",
			},
			expected: false,
		},
		{
			name: "both business ids absent fails closed",
			input: SameTenantInput{
				AdminUID: "admin-1",
			},
			expected: false,
		},
		{
			name: "target business id present but admin's absent",
			input: SameTenantInput{
				AdminUID:         "admin-1",
				TargetBusinessID: "biz-1",
			},
			expected: false,
		},
		{
			name:     "all fields empty",
			input:    SameTenantInput{},
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsSameTenant(tc.input); got != tc.expected {
				t.Errorf("IsSameTenant(%+v) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}
