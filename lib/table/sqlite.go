package table

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	configsqlite "surveyops/lib/configutil/sqlite"
)

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// WriteSQLite replaces `name` in the sqlite database at `path` with the
// contents of the table, every column stored as TEXT.
func WriteSQLite(ctx context.Context, path, name string, t Table) error {
	db, err := configsqlite.Struct{File: path}.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return WriteDB(ctx, db, name, t)
}

func WriteDB(ctx context.Context, db *sql.DB, name string, t Table) error {
	if len(t.Header) == 0 {
		return fmt.Errorf("table %s has no columns", name)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	columns := make([]string, len(t.Header))
	placeholders := make([]string, len(t.Header))
	for i, h := range t.Header {
		columns[i] = quoteIdent(h) + " TEXT"
		placeholders[i] = "?"
	}

	_, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name))
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE %s (%s)",
		quoteIdent(name), strings.Join(columns, ", "),
	))
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s VALUES (%s)",
		quoteIdent(name), strings.Join(placeholders, ", "),
	))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(t.Header))
	for _, row := range t.Rows {
		for i := range args {
			args[i] = ""
			if i < len(row) {
				args[i] = row[i]
			}
		}
		_, err = stmt.ExecContext(ctx, args...)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
