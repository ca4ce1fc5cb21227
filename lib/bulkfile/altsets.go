package bulkfile

import (
	"context"
	"fmt"
	"strings"

	"surveyops/lib/table"
)

// AltSetHeaders names the columns of the alternative database. The dump
// does not carry usable headers of its own, so this list has to follow the
// vendor if the layout changes.
var AltSetHeaders = []string{
	"AltSetNumber",
	"AlternativeNumber",
	"Name",
	"InSurvey",
	"InMobile",
	"InReport",
	"ShortForm",
	"Description",
	"Visibility",
	"SequenceNumber",
	"NumericValue",
	"ExportValue",
	"PriorityRaw",
	"RIColumn",
	"RIColSpan",
	"BoxColor",
	"FontColor",
	"IsOtherOption",
	"TranslationExplanation",
}

// ReadAltSets reads one row per alternative from the section after the
// %%AlternativeDb marker. The alternative number looks like `<set>_<n>`,
// the set number is taken from it and prepended to the row.
func (r Reader) ReadAltSets(ctx context.Context, path, delim string) (table.Table, error) {
	const id = "read-alt-sets"
	ctx, span := r.startSpan(ctx, id, path)
	defer span.End()

	lines, err := readLines(ctx, path)
	if err != nil {
		return table.Table{}, r.fail(span, id, path, err)
	}
	idx, err := findMarker(lines, MarkerAlternativeDb)
	if err != nil {
		return table.Table{}, r.fail(span, id, path, err)
	}
	// the line after the marker holds the vendor's own header
	body := lines[idx+1:]
	if len(body) == 0 {
		return table.Table{}, r.fail(span, id, path, ErrEmpty)
	}
	body = body[1:]

	out := table.New(AltSetHeaders...)
	for i, line := range body {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := splitCells(line, delim)
		setNumber, _, _ := strings.Cut(cells[0], "_")
		cells = append([]string{setNumber}, cells...)

		cells, err = shapeRow(cells, len(AltSetHeaders))
		if err != nil {
			err = fmt.Errorf("line %d: %w", idx+i+3, err)
			return table.Table{}, r.fail(span, id, path, err)
		}
		out.Append(cells...)
	}

	r.tel.ReportCount(id, int64(out.Len()))
	return out, nil
}
