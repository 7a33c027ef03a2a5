//go:build !(sqlite_vec && cgo)

package index

import (
	_ "modernc.org/sqlite"
)

// driverName selects the pure-Go SQLite driver for the default build.
const driverName = "sqlite"
