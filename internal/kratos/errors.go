// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package kratos

import "errors"

// ErrIdentityNotFound signals the identity provider has no account with the
// given id.
var ErrIdentityNotFound = errors.New("identity not found")
