// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain uses goleak to verify tests in this package do not leak
// unexpected goroutines, the same pattern core/main_test.go uses.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
