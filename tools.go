//go:build tools
// +build tools

// Package tools pins tool dependencies for this module.
//
// The imports below are never used at runtime. They keep Go-based tools
// invoked through `go generate` (mockgen) tracked in go.mod, so a fresh
// checkout can regenerate mocks without missing go.sum entries.
package campus_sync

import (
	_ "go.uber.org/mock/mockgen"
)
