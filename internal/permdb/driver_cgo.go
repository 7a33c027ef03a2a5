//go:build sqlite_vec && cgo

package permdb

import (
	_ "github.com/mattn/go-sqlite3"
)

// The cgo build shares the driver choice with the index package so a
// single binary never mixes SQLite implementations.
const driverName = "sqlite3"
