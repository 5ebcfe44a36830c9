// Package migrations ships the schema files inside the binaries.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
