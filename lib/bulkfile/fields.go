package bulkfile

import (
	"context"
	"strings"

	"surveyops/lib/table"
)

const (
	ColumnKey            = "# Key"
	ColumnName           = "Name"
	ColumnAlternativeSet = "AlternativeSet"
	ColumnInSurvey       = "In survey"
	ColumnCalculation    = "Calculation"
)

// Field is one row of a q/e/a/k field detail file.
type Field struct {
	Key            string
	Name           string
	AlternativeSet string
	// InSurvey is the label shown in the survey, only q-fields carry it.
	InSurvey string
	// Calculation is the formula text, only k-fields carry it.
	Calculation string
}

// Fields converts a field table. Columns other than the key are optional
// and read as NotAvailable when the file does not have them.
func Fields(t table.Table) ([]Field, error) {
	if _, err := t.Indexes(ColumnKey); err != nil {
		return nil, err
	}
	get := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return NotAvailable
		}
		return row[idx]
	}

	key := t.Index(ColumnKey)
	name := t.Index(ColumnName)
	altSet := t.Index(ColumnAlternativeSet)
	inSurvey := t.Index(ColumnInSurvey)
	calculation := t.Index(ColumnCalculation)

	out := make([]Field, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, Field{
			Key:            get(row, key),
			Name:           get(row, name),
			AlternativeSet: get(row, altSet),
			InSurvey:       get(row, inSurvey),
			Calculation:    get(row, calculation),
		})
	}
	return out, nil
}

// Keys returns the distinct keys of `fields` in file order.
func Keys(fields []Field) []string {
	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, f := range fields {
		k := strings.TrimSpace(f.Key)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// fieldLocator returns the text of the table inside a field file.
type fieldLocator func(lines []string) (string, error)

// skipPreamble drops the single title line that precedes the header.
func skipPreamble(lines []string) (string, error) {
	if len(lines) < 2 {
		return "", ErrEmpty
	}
	return strings.Join(lines[1:], "\n"), nil
}

// afterMarker drops every line up to and including the marker line.
func afterMarker(marker string) fieldLocator {
	return func(lines []string) (string, error) {
		idx, err := findMarker(lines, marker)
		if err != nil {
			return "", err
		}
		return strings.Join(lines[idx+1:], "\n"), nil
	}
}

func (r Reader) readFields(ctx context.Context, id, path, delim string, locate fieldLocator) ([]Field, error) {
	ctx, span := r.startSpan(ctx, id, path)
	defer span.End()

	lines, err := readLines(ctx, path)
	if err != nil {
		return nil, r.fail(span, id, path, err)
	}
	text, err := locate(lines)
	if err != nil {
		return nil, r.fail(span, id, path, err)
	}
	t, err := parseTable(text, delim)
	if err != nil {
		return nil, r.fail(span, id, path, err)
	}
	fields, err := Fields(t)
	if err != nil {
		return nil, r.fail(span, id, path, err)
	}

	r.tel.ReportCount(id, int64(len(fields)))
	return fields, nil
}

func (r Reader) ReadQFields(ctx context.Context, path, delim string) ([]Field, error) {
	return r.readFields(ctx, "read-q-fields", path, delim, skipPreamble)
}

func (r Reader) ReadEFields(ctx context.Context, path, delim string) ([]Field, error) {
	return r.readFields(ctx, "read-e-fields", path, delim, skipPreamble)
}

func (r Reader) ReadAFields(ctx context.Context, path, delim string) ([]Field, error) {
	return r.readFields(ctx, "read-a-fields", path, delim, skipPreamble)
}

// ReadKFields reads the calculated fields table that follows the
// %%CalculatedSurveyField marker.
func (r Reader) ReadKFields(ctx context.Context, path, delim string) ([]Field, error) {
	return r.readFields(ctx, "read-k-fields", path, delim, afterMarker(MarkerCalculatedField))
}
