package database

import (
	"database/sql"
	"strconv"
	"strings"
)

// Dialect hides the differences between the SQL engines flashforge runs on.
// Repositories write queries with ? placeholders and let the dialect rewrite them.
type Dialect interface {
	DriverName() string
	DSN(config DialectConfig) string

	// RewriteQuery adapts a ?-placeholder query to the engine.
	RewriteQuery(query string) string

	// SupportsLastInsertId is false for engines that need RETURNING id.
	SupportsLastInsertId() bool

	// ConfigureConnection sets pool limits and per-connection pragmas.
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir names the directory under migrations/ holding this
	// engine's card_sets and cards schema.
	MigrationsSubdir() string
	CreateMigrationsTableQuery() string

	// BoolValue renders a boolean literal for the cards.favorite column.
	BoolValue(b bool) string
}

// DialectConfig carries the connection target: a file path for SQLite, a URL
// or DSN for the server engines.
type DialectConfig struct {
	Path string
	URL  string
}

// numberPlaceholders rewrites ? to $1, $2, ... in order. Question marks inside
// single-quoted literals and double-quoted identifiers are left alone.
func numberPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
