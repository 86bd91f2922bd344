// Package migrations embeds the catalog schema for golang-migrate's iofs
// source driver.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
