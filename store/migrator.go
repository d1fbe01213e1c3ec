package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

// Migration files live at migration/{driver}/LATEST.sql. Every statement in them
// is idempotent (IF NOT EXISTS), so Migrate runs unconditionally on startup.

//go:embed migration
var migrationFS embed.FS

// LatestSchemaFileName is the full schema applied on every start.
const LatestSchemaFileName = "LATEST.sql"

// Migrate applies the latest schema for the driver in one transaction.
func Migrate(ctx context.Context, driver Driver) error {
	filePath := fmt.Sprintf("migration/%s/%s", driver.Type(), LatestSchemaFileName)
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema file: %s", filePath)
	}

	tx, err := driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	applied, err := executeMultiStmt(ctx, tx, string(bytes))
	if err != nil {
		return errors.Wrapf(err, "failed to execute SQL file %s", filePath)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migration transaction")
	}

	slog.Info("database schema is up to date",
		slog.String("driver", driver.Type()),
		slog.Int("statements", applied))
	return nil
}

// executeMultiStmt splits SQL into individual statements and executes them.
// PostgreSQL does not accept several statements in one ExecContext call.
func executeMultiStmt(ctx context.Context, tx *sql.Tx, sql string) (int, error) {
	statements := splitSQL(sql)
	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return i, errors.Wrapf(err, "failed to execute statement %d: %s", i+1, stmt)
		}
	}
	return len(statements), nil
}

// splitSQL splits a multi-statement SQL string on semicolons that end a line
// outside single-quoted strings. Whole-line "--" comments are dropped.
func splitSQL(sql string) []string {
	var statements []string
	var current strings.Builder
	inSingleQuote := false

	for _, line := range strings.Split(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inSingleQuote && (trimmed == "" || strings.HasPrefix(trimmed, "--")) {
			continue
		}

		current.WriteString(line)
		current.WriteByte('\n')
		if strings.Count(line, "'")%2 == 1 {
			inSingleQuote = !inSingleQuote
		}

		if !inSingleQuote && strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSuffix(strings.TrimSpace(current.String()), ";")
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, strings.TrimSuffix(stmt, ";"))
	}
	return statements
}
