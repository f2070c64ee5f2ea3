// Package migrations embeds the rolodex Postgres schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Dir is the root of FS holding the migration files.
const Dir = "."
