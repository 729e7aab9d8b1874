package migrations

import "embed"

// FS contains embedded SQLite migrations for campus storage.
//
//go:embed *.sql
var FS embed.FS
