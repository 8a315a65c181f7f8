//go:build !cgo_sqlite

// Pure Go SQLite driver using modernc.org/sqlite. This is the default
// build: no CGO, no C toolchain required.
package sqlite

import (
	_ "modernc.org/sqlite" // registers as "sqlite"
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)
