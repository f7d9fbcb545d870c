package sqlstore

import (
	"fmt"
	"strings"
)

// dialect covers the differences between SQLite and PostgreSQL the store
// runs into
type dialect interface {
	Rebind(query string) string
	BoolType() string
	JSONType() string
}

type sqliteDialect struct{}

func (sqliteDialect) Rebind(query string) string { return query }
func (sqliteDialect) BoolType() string           { return "INTEGER" }
func (sqliteDialect) JSONType() string           { return "TEXT" }

type postgresDialect struct{}

func (postgresDialect) Rebind(query string) string { return Rebind(query) }
func (postgresDialect) BoolType() string           { return "BOOLEAN" }
func (postgresDialect) JSONType() string           { return "JSONB" }

// Rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL
func Rebind(query string) string {
	n := 0
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
		} else {
			b.WriteByte(query[i])
		}
	}
	return b.String()
}

// splitStatements splits a schema script on semicolons, dropping blanks
func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}
