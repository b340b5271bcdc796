// Package migrations holds the goose SQL files for postgres.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
