// Package migrations embeds the goose SQL migrations for the upload catalog.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
