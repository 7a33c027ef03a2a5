//go:build sqlite_vec && cgo

package index

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

// driverName selects the cgo driver when the sqlite-vec extension is
// requested; vec.Auto registers the extension for every new connection
// so vec0 virtual tables and ANN distance functions become available.
const driverName = "sqlite3"

func init() {
	vec.Auto()
}
