// Package migrations embeds the SQL schema migrations so that binaries and
// tests do not depend on the working directory.
package migrations

import "embed"

// FS holds every *.sql migration, named NNNNNN_description.{up,down}.sql.
//
//go:embed *.sql
var FS embed.FS
