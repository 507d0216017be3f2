// Package migrations embeds the server database schema, applied with goose
// on startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
