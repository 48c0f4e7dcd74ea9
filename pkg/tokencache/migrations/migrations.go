// Package migrations embeds the token-cache schema migrations so they ship
// inside the binary.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
