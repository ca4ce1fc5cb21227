// Package bulkfile reads the flat text dumps produced by the survey
// platform's bulk download: q-, e-, a- and k-field details, alternative sets
// and export definitions.
//
// Every dump starts with some unstructured preamble before the real table,
// the readers locate the table, split it on the delimiter and trim every cell.
// Files are decoded as ISO-8859-1, which is what the vendor emits.
package bulkfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"surveyops/lib/table"
	"surveyops/lib/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/encoding/charmap"
)

var tracer = otel.Tracer("surveyops.lib.bulkfile")

// NotAvailable is table.NotAvailable, kept here for the readers' callers.
const NotAvailable = table.NotAvailable

const (
	MarkerCalculatedField  = "%%CalculatedSurveyField"
	MarkerAlternativeDb    = "%%AlternativeDb"
	MarkerEpisodeCondition = "%%EpisodeCondition"
)

var (
	ErrNotExist       = errors.New("file does not exist")
	ErrMarkerNotFound = errors.New("marker line not found")
	ErrRowShape       = errors.New("row has more cells than the header")
	ErrExportNotFound = errors.New("export not found")
	ErrEmpty          = errors.New("no table found")
)

type Reader struct {
	tel telemetry.API
}

func NewReader(tel telemetry.API) Reader {
	return Reader{tel: telemetry.NewScopedAPI("bulkfile", tel)}
}

// fail reports the failure of `id` and returns err unchanged so callers can
// `return nil, r.fail(...)`.
func (r Reader) fail(span trace.Span, id, path string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, id)
	r.tel.ReportBroken(id, path, err)
	return err
}

func openLatin1(path string) (io.ReadCloser, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) || (err == nil && info.IsDir()) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
	}
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return struct {
		io.Reader
		io.Closer
	}{charmap.ISO8859_1.NewDecoder().Reader(f), f}, nil
}

// readLines returns every line of a latin-1 file without line terminators.
func readLines(ctx context.Context, path string) ([]string, error) {
	f, err := openLatin1(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	return lines, scanner.Err()
}

// findMarker returns the index of the first line containing `marker`.
func findMarker(lines []string, marker string) (int, error) {
	for i, line := range lines {
		if strings.Contains(line, marker) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrMarkerNotFound, marker)
}

func splitCells(line, delim string) []string {
	cells := strings.Split(line, delim)
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

// shapeRow fits `cells` to `width`: trailing empty cells past the width are
// dropped, short rows are padded with NotAvailable and anything still longer
// is ErrRowShape.
func shapeRow(cells []string, width int) ([]string, error) {
	for len(cells) > width && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	if len(cells) > width {
		return nil, fmt.Errorf("%w: %d cells, expected %d", ErrRowShape, len(cells), width)
	}
	for len(cells) < width {
		cells = append(cells, NotAvailable)
	}
	return cells, nil
}

// parseTable parses `text` as a delimited table whose first record is the
// header, quoted cells may span lines.
func parseTable(text, delim string) (table.Table, error) {
	t, err := table.ReadCSV(strings.NewReader(text), delim)
	if err != nil {
		return table.Table{}, err
	}
	if len(t.Header) == 0 {
		return table.Table{}, ErrEmpty
	}
	t.TrimCells()
	for len(t.Header) > 0 && t.Header[len(t.Header)-1] == "" {
		t.Header = t.Header[:len(t.Header)-1]
	}

	rows := t.Rows[:0]
	for i, row := range t.Rows {
		if len(row) == 1 && row[0] == "" {
			continue
		}
		shaped, err := shapeRow(row, len(t.Header))
		if err != nil {
			return table.Table{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, shaped)
	}
	t.Rows = rows
	return t, nil
}

func (r Reader) startSpan(ctx context.Context, name, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("path", path)))
}
