package bulkfile

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"surveyops/lib/textutil"
)

// ExportColumn is one exported field of an export definition.
type ExportColumn struct {
	ColumnNumber int
	ExportNumber string
	ExportName   string
	Field        string
}

const (
	exportNumberCell = 0
	exportNameCell   = 1
	// the field list sometimes spills over into the next cell
	exportFieldsCell         = 17
	exportFieldsOverflowCell = 18
	exportFieldSeparator     = " : "
	// the first two lines are headers
	exportFirstRow = 2
)

func exportFields(cells []string) []string {
	var out []string
	for _, idx := range []int{exportFieldsCell, exportFieldsOverflowCell} {
		if idx >= len(cells) {
			continue
		}
		for _, f := range strings.Split(cells[idx], exportFieldSeparator) {
			f = strings.Trim(f, " :")
			if f == "" {
				continue
			}
			out = append(out, f)
		}
	}
	return out
}

// ReadExport returns the fields exported by the export called `exportName`,
// read from the section before the %%EpisodeCondition marker. The name must
// match exactly; when several exports share the name the last one wins.
func (r Reader) ReadExport(ctx context.Context, path, exportName, delim string) ([]ExportColumn, error) {
	const id = "read-exports"
	ctx, span := r.startSpan(ctx, id, path)
	defer span.End()

	lines, err := readLines(ctx, path)
	if err != nil {
		return nil, r.fail(span, id, path, err)
	}
	if end, err := findMarker(lines, MarkerEpisodeCondition); err == nil {
		lines = lines[:end]
	}

	var result []ExportColumn
	var names []string
	matches := 0
	for i := exportFirstRow; i < len(lines); i++ {
		cells := splitCells(lines[i], delim)
		if len(cells) <= exportNameCell {
			continue
		}
		names = append(names, cells[exportNameCell])
		if cells[exportNameCell] != exportName {
			continue
		}

		matches++
		result = result[:0]
		for n, field := range exportFields(cells) {
			result = append(result, ExportColumn{
				ColumnNumber: n + 1,
				ExportNumber: cells[exportNumberCell],
				ExportName:   cells[exportNameCell],
				Field:        field,
			})
		}
	}

	if matches == 0 {
		err := fmt.Errorf("%w: '%s'", ErrExportNotFound, exportName)
		if suggestion := textutil.Closest(exportName, names); suggestion != "" {
			err = fmt.Errorf("%w, did you mean '%s'?", err, suggestion)
		}
		return nil, r.fail(span, id, path, err)
	}
	if matches > 1 {
		r.tel.ReportWarning(id+".duplicate-name", exportName, matches)
	}

	r.tel.ReportCount(id, int64(len(result)))
	return result, nil
}

// ColumnNumberText renders the column number the way the export file does.
func (c ExportColumn) ColumnNumberText() string {
	return strconv.Itoa(c.ColumnNumber)
}
