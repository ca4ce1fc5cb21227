package bulkfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"surveyops/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const qFieldFile = `Q-Field Details (bulk)
# Key	Name	AlternativeSet	In survey
q_1 	Overall sat	12	How satisfied were you overall?
q_2	Comments		Any comments?
q_3	Short
`

const kFieldFile = `K-Field Details
Exported by admin
%%CalculatedSurveyField
# Key	Name	AlternativeSet	Calculation
k_1	Score		"q_5 + q_6 * 2"
k_2	Flag	12	"if (k_1 > 3) { 1 }
else { 0 }"
`

func altLine(number, name, label, exportValue string) string {
	cells := make([]string, len(AltSetHeaders)-1)
	cells[0] = number
	cells[1] = name
	cells[2] = label
	cells[10] = exportValue
	return strings.Join(cells, "\t")
}

func exportLine(number, name, fields, overflow string) string {
	cells := make([]string, 19)
	cells[0] = number
	cells[1] = name
	cells[17] = fields
	cells[18] = overflow
	return strings.Join(cells, "\t")
}

func newTestReader() (Reader, *testutil.RecordingAPI) {
	rec := &testutil.RecordingAPI{}
	return NewReader(rec), rec
}

func TestReadQFields(t *testing.T) {
	r, _ := newTestReader()
	path := testutil.WriteFile(t, "q.txt", qFieldFile)

	fields, err := r.ReadQFields(context.Background(), path, "\t")
	require.NoError(t, err)

	expected := []Field{
		{Key: "q_1", Name: "Overall sat", AlternativeSet: "12", InSurvey: "How satisfied were you overall?", Calculation: NotAvailable},
		{Key: "q_2", Name: "Comments", AlternativeSet: "", InSurvey: "Any comments?", Calculation: NotAvailable},
		{Key: "q_3", Name: "Short", AlternativeSet: NotAvailable, InSurvey: NotAvailable, Calculation: NotAvailable},
	}
	diff := cmp.Diff(expected, fields)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestReadKFieldsAfterMarker(t *testing.T) {
	r, _ := newTestReader()
	path := testutil.WriteFile(t, "k.txt", kFieldFile)

	fields, err := r.ReadKFields(context.Background(), path, "\t")
	require.NoError(t, err)
	require.Len(t, fields, 2)
	require.Equal(t, "k_1", fields[0].Key)
	require.Equal(t, "q_5 + q_6 * 2", fields[0].Calculation)
	require.Equal(t, "if (k_1 > 3) { 1 }\nelse { 0 }", fields[1].Calculation)
}

func TestReadKFieldsMissingMarker(t *testing.T) {
	r, rec := newTestReader()
	path := testutil.WriteFile(t, "k.txt", qFieldFile)

	fields, err := r.ReadKFields(context.Background(), path, "\t")
	require.ErrorIs(t, err, ErrMarkerNotFound)
	require.Nil(t, fields)
	require.True(t, rec.HasBroken("bulkfile: read-k-fields"))
}

func TestReadersMissingPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist.txt")
	ctx := context.Background()
	r, rec := newTestReader()

	_, err := r.ReadQFields(ctx, missing, "\t")
	require.ErrorIs(t, err, ErrNotExist)
	_, err = r.ReadEFields(ctx, missing, "\t")
	require.ErrorIs(t, err, ErrNotExist)
	_, err = r.ReadAFields(ctx, missing, "\t")
	require.ErrorIs(t, err, ErrNotExist)
	_, err = r.ReadKFields(ctx, missing, "\t")
	require.ErrorIs(t, err, ErrNotExist)
	alts, err := r.ReadAltSets(ctx, missing, "\t")
	require.ErrorIs(t, err, ErrNotExist)
	require.Zero(t, alts.Len())
	export, err := r.ReadExport(ctx, missing, "Daily", "\t")
	require.ErrorIs(t, err, ErrNotExist)
	require.Nil(t, export)

	require.Equal(t, []string{
		"bulkfile: read-q-fields",
		"bulkfile: read-e-fields",
		"bulkfile: read-a-fields",
		"bulkfile: read-k-fields",
		"bulkfile: read-alt-sets",
		"bulkfile: read-exports",
	}, rec.Broken())
}

func TestRowShape(t *testing.T) {
	r, rec := newTestReader()
	path := testutil.WriteFile(t, "e.txt", "E-Fields\n# Key\tName\ne_1\tDate\tsurprise\n")

	_, err := r.ReadEFields(context.Background(), path, "\t")
	require.ErrorIs(t, err, ErrRowShape)
	require.True(t, rec.HasBroken("read-e-fields"))

	// trailing empty cells are not a shape problem
	path = testutil.WriteFile(t, "e.txt", "E-Fields\n# Key\tName\ne_1\tDate\t\t\n")
	fields, err := r.ReadEFields(context.Background(), path, "\t")
	require.NoError(t, err)
	require.Equal(t, "Date", fields[0].Name)
}

func TestMissingKeyColumn(t *testing.T) {
	r, _ := newTestReader()
	path := testutil.WriteFile(t, "a.txt", "A-Fields\nKey\tName\na_1\tRegion\n")

	_, err := r.ReadAFields(context.Background(), path, "\t")
	require.Error(t, err)
}

func TestLatin1(t *testing.T) {
	r, _ := newTestReader()
	// "Caf\xe9" is latin-1 for Café
	path := testutil.WriteFile(t, "q.txt", "Q\n# Key\tName\nq_1\tCaf\xe9\n")

	fields, err := r.ReadQFields(context.Background(), path, "\t")
	require.NoError(t, err)
	require.Equal(t, "Café", fields[0].Name)
}

func TestReadAltSets(t *testing.T) {
	r, _ := newTestReader()
	contents := strings.Join([]string{
		"%%AlternativeSet",
		"1\tYesNo",
		"%%AlternativeDb",
		"vendor header\tignored",
		altLine("1_1", "YesNo", "Yes", "1"),
		altLine("1_2", "YesNo", "No", "2"),
		"",
		"2_1\tScale\tLow",
	}, "\n")
	path := testutil.WriteFile(t, "alt.txt", contents)

	alts, err := r.ReadAltSets(context.Background(), path, "\t")
	require.NoError(t, err)
	require.Equal(t, AltSetHeaders, alts.Header)
	require.Equal(t, 3, alts.Len())

	require.Equal(t, "1", alts.Get(0, "AltSetNumber"))
	require.Equal(t, "1_2", alts.Get(1, "AlternativeNumber"))
	require.Equal(t, "YesNo", alts.Get(1, "Name"))
	require.Equal(t, "No", alts.Get(1, "InSurvey"))
	require.Equal(t, "2", alts.Get(1, "ExportValue"))

	// short rows are padded
	require.Equal(t, "2", alts.Get(2, "AltSetNumber"))
	require.Equal(t, NotAvailable, alts.Get(2, "ExportValue"))
	require.Len(t, alts.Rows[2], len(AltSetHeaders))
}

func TestReadAltSetsMissingMarker(t *testing.T) {
	r, rec := newTestReader()
	path := testutil.WriteFile(t, "alt.txt", altLine("1_1", "YesNo", "Yes", "1"))

	_, err := r.ReadAltSets(context.Background(), path, "\t")
	require.ErrorIs(t, err, ErrMarkerNotFound)
	require.True(t, rec.HasBroken("read-alt-sets"))
}

func TestReadExport(t *testing.T) {
	r, rec := newTestReader()
	contents := strings.Join([]string{
		"Exports",
		"Number\tName\t...",
		exportLine("7", "Daily File", "q_1 : e_2 : ", "k_1"),
		exportLine("8", "Weekly File", "q_9", ""),
		"%%EpisodeCondition",
		exportLine("9", "Daily File", "q_99", ""),
	}, "\n")
	path := testutil.WriteFile(t, "exports.txt", contents)

	columns, err := r.ReadExport(context.Background(), path, "Daily File", "\t")
	require.NoError(t, err)

	expected := []ExportColumn{
		{ColumnNumber: 1, ExportNumber: "7", ExportName: "Daily File", Field: "q_1"},
		{ColumnNumber: 2, ExportNumber: "7", ExportName: "Daily File", Field: "e_2"},
		{ColumnNumber: 3, ExportNumber: "7", ExportName: "Daily File", Field: "k_1"},
	}
	diff := cmp.Diff(expected, columns)
	if diff != "" {
		t.Fatal(diff)
	}
	require.Empty(t, rec.Broken())
}

func TestReadExportNotFoundSuggests(t *testing.T) {
	r, rec := newTestReader()
	contents := strings.Join([]string{
		"Exports",
		"Number\tName",
		exportLine("7", "Daily File", "q_1", ""),
		exportLine("8", "Weekly File", "q_9", ""),
	}, "\n")
	path := testutil.WriteFile(t, "exports.txt", contents)

	_, err := r.ReadExport(context.Background(), path, "Daily Fil", "\t")
	require.ErrorIs(t, err, ErrExportNotFound)
	require.Contains(t, err.Error(), "did you mean 'Daily File'")
	require.True(t, rec.HasBroken("read-exports"))
}

func TestConcat(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("id\tvalue\n2\ty\n2\ty\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("id\tvalue\n1\tx\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.csv"), []byte("other\n"), 0600))

	r, _ := newTestReader()
	out, err := r.Concat(context.Background(), dir, ConcatOptions{Pattern: "*.txt", Delim: "\t"})
	require.NoError(t, err)
	require.Equal(t, []string{"id", "value", ColumnSourceFile}, out.Header)
	require.Equal(t, [][]string{
		{"1", "x", "a.txt"},
		{"2", "y", "b.txt"},
		{"2", "y", "b.txt"},
	}, out.Rows)

	out, err = r.Concat(context.Background(), dir, ConcatOptions{Pattern: "*.txt", Delim: "\t", DropDuplicates: true})
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	out, err = r.Concat(context.Background(), dir, ConcatOptions{Names: []string{"b.txt"}, Delim: "\t"})
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
}

func TestConcatHeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("id\tvalue\n1\tx\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("id\tother\n1\tx\n"), 0600))

	r, rec := newTestReader()
	_, err := r.Concat(context.Background(), dir, ConcatOptions{Pattern: "*.txt", Delim: "\t"})
	require.Error(t, err)
	require.True(t, rec.HasBroken("concat"))

	_, err = r.Concat(context.Background(), filepath.Join(dir, "nope"), ConcatOptions{})
	require.ErrorIs(t, err, ErrNotExist)
}
