package cmd

import (
	"cmp"
	"context"
	"io"
	"log/slog"

	"surveyops/lib/table"

	"github.com/spf13/cobra"
)

var (
	outPath  string
	dbPath   string
	dbTable  string
	preview  int
	outDelim string
)

func addOutputFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&outPath, "out", "o", "", "write the result to this delimited file, stdout when neither --out nor --db is set")
	flags.StringVar(&dbPath, "db", "", "write the result into this SQLite database, config db.file by default")
	flags.StringVar(&dbTable, "db-table", "", "table name used with --db, defaults to the command name")
	flags.IntVar(&preview, "preview", 0, "render the first N rows as a table on stdout")
	flags.StringVar(&outDelim, "out-delim", "", "delimiter of written files, config output_delim by default")
}

func outputDelim() string {
	if outDelim != "" {
		return outDelim
	}
	return config.OutputDelim
}

type sinks struct {
	stdout io.Writer
}

// emit writes `t` to every requested sink. `name` is the SQLite table used
// when --db-table is not given.
func (s sinks) emit(ctx context.Context, name string, t table.Table) error {
	wrote := false
	if outPath != "" {
		err := table.WriteCSVFile(outPath, t, outputDelim())
		if err != nil {
			return err
		}
		slog.Info("wrote file", "path", outPath, "rows", t.Len())
		wrote = true
	}
	if dbFile := cmp.Or(dbPath, config.DB.File); dbFile != "" {
		tableName := dbTable
		if tableName == "" {
			tableName = name
		}
		err := table.WriteSQLite(ctx, dbFile, tableName, t)
		if err != nil {
			return err
		}
		slog.Info("wrote table", "db", dbFile, "table", tableName, "rows", t.Len())
		wrote = true
	}

	if preview > 0 {
		table.Render(s.stdout, t, preview)
		return nil
	}
	if !wrote {
		return table.WriteCSV(s.stdout, t, outputDelim())
	}
	return nil
}

func emit(cmd *cobra.Command, name string, t table.Table) error {
	return sinks{stdout: cmd.OutOrStdout()}.emit(cmd.Context(), name, t)
}

// delim is the bulk download delimiter.
func delim() string {
	if config.Delim == "" {
		return "\t"
	}
	return config.Delim
}
