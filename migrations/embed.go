// Package migrations embeds the SQL migrations for the postgres backup driver.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
