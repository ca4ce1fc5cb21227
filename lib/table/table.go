// Package table holds the string table passed between the readers, the
// organizers and the writers.
package table

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrMissingColumn = errors.New("missing column")

// NotAvailable fills cells that a file or a join could not provide.
const NotAvailable = "NA"

type Table struct {
	Header []string
	Rows   [][]string
}

func New(header ...string) Table {
	return Table{Header: header}
}

// Index returns the position of `column` in the header, or -1.
func (t Table) Index(column string) int {
	return slices.Index(t.Header, column)
}

// Indexes resolves every column or fails with ErrMissingColumn.
func (t Table) Indexes(columns ...string) ([]int, error) {
	out := make([]int, len(columns))
	for i, c := range columns {
		idx := t.Index(c)
		if idx < 0 {
			return nil, fmt.Errorf("%w '%s'", ErrMissingColumn, c)
		}
		out[i] = idx
	}
	return out, nil
}

// Get returns the cell at row/column, or "" when the column does not exist.
func (t Table) Get(row int, column string) string {
	idx := t.Index(column)
	if idx < 0 || idx >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][idx]
}

func (t *Table) Append(row ...string) {
	t.Rows = append(t.Rows, row)
}

func (t Table) Len() int {
	return len(t.Rows)
}

// Column returns a copy of every value in `column`.
func (t Table) Column(column string) ([]string, error) {
	idx := t.Index(column)
	if idx < 0 {
		return nil, fmt.Errorf("%w '%s'", ErrMissingColumn, column)
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, nil
}

// Dedupe drops rows identical to an earlier row, keeping order.
func (t Table) Dedupe() Table {
	seen := make(map[string]struct{}, len(t.Rows))
	out := Table{Header: t.Header}
	for _, row := range t.Rows {
		key := strings.Join(row, "\x00")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// TrimCells strips surrounding whitespace and newlines from every cell in place.
func (t Table) TrimCells() {
	for i := range t.Header {
		t.Header[i] = strings.TrimSpace(t.Header[i])
	}
	for _, row := range t.Rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}
}
