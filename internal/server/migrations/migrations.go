// Package migrations embeds the goose SQL migrations applied to the
// PostgreSQL schema at startup and by the ops CLI.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
