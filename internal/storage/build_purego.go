//go:build purego || !cgo_sqlite
// +build purego !cgo_sqlite

package storage

// This file is compiled when building without the cgo_sqlite tag.
//
// Build command:
//   go build ./...
//
// The pure Go implementation provides:
//   - No dependency on the system SQLite library
//   - Cross-platform compilation
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
