// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"github.com/bizledger/admin-service/cmd"
)

func main() {
	cmd.Execute()
}
