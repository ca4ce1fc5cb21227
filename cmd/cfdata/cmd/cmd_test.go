package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"surveyops/lib/bulkfile"
	"surveyops/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	loaded, err := loadConfig(filepath.Join(t.TempDir(), "surveyops.json5"))
	require.NoError(t, err)
	diff := cmp.Diff(defaultConfig, loaded)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := testutil.WriteFile(t, "surveyops.json5", `{
		// bulk files from this client are pipe delimited
		delim: "|",
		update_responses: {
			data_center: "az1",
		},
	}`)

	loaded, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "|", loaded.Delim)
	require.Equal(t, "az1", loaded.UpdateResponses.DataCenter)
	require.Equal(t, defaultConfig.UpdateResponses.TokenEnv, loaded.UpdateResponses.TokenEnv)
	require.Equal(t, defaultConfig.AltSetColumns, loaded.AltSetColumns)
}

func altLine(number, name, label, exportValue string) string {
	cells := make([]string, len(bulkfile.AltSetHeaders)-1)
	cells[0] = number
	cells[1] = name
	cells[2] = label
	cells[10] = exportValue
	return strings.Join(cells, "\t")
}

func execute(t *testing.T, args ...string) string {
	t.Cleanup(func() {
		outPath, dbPath, dbTable, preview, outDelim = "", "", "", 0, ""
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.json5")))
	err := rootCmd.ExecuteContext(context.Background())
	require.NoError(t, err)
	return out.String()
}

func TestAltSetsCommand(t *testing.T) {
	path := testutil.WriteFile(t, "alt.txt", strings.Join([]string{
		"%%AlternativeDb",
		"vendor header",
		altLine("1_1", "YesNo", "Yes", "1"),
		altLine("1_2", "YesNo", "No", "2.0"),
	}, "\n"))

	out := execute(t, "alt-sets", "--alt", path)
	require.Equal(t, "alt_set_name,alt_set_number,alt_set_labels,alt_set_values\nYesNo,1,Yes; No,1; 2.0\n", out)
}

func TestConcatCommandWritesSQLite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("id\tscore\n1\t5\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("id\tscore\n2\t7\n"), 0600))
	dbFile := filepath.Join(t.TempDir(), "out.db")

	execute(t, "concat", "--dir", dir, "--db", dbFile)

	db, err := sql.Open("sqlite", dbFile)
	require.NoError(t, err)
	defer db.Close()

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM "concat"`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	var source string
	err = db.QueryRow(`SELECT "source_file" FROM "concat" WHERE "id" = '2'`).Scan(&source)
	require.NoError(t, err)
	require.Equal(t, "b.txt", source)
}
