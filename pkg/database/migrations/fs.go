// Package migrations embeds the weir schema migration files.
//
// Files are named NNNN_name.sql and applied in ascending version order by
// the migration runner. Never edit an applied migration; add a new one.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
