// Package migrations embeds the goose SQL migrations for the auction host
// schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
