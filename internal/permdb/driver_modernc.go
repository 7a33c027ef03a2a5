//go:build !(sqlite_vec && cgo)

package permdb

import (
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"
