package migrations

import "embed"

// FS holds the schema migrations applied at startup and by the seed command.
//
//go:embed *.sql
var FS embed.FS
