// Package migrations embeds the versioned SQL files the SQLite store
// applies on open.
package migrations

import "embed"

// FS holds the migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
