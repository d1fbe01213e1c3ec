// Package store holds the database driver contract and schema migration shared
// by the sqlite and postgres session stores.
package store

import (
	"database/sql"
	"strconv"
	"strings"
)

// Driver is an interface for store driver.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Type is the driver name, "sqlite" or "postgres". It selects the migration set.
	Type() string

	// Rebind rewrites "?" placeholders into the driver's native form.
	Rebind(query string) string
}

// RebindDollar rewrites "?" placeholders as $1, $2, ... for PostgreSQL.
// Queries passed here must not contain a literal "?".
func RebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
