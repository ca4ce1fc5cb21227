package table

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Render prints up to `limit` rows as a rounded terminal table, limit <= 0 prints all.
func Render(w io.Writer, t Table, limit int) {
	out := table.NewWriter()
	out.SetStyle(table.StyleRounded)
	out.SetOutputMirror(w)

	header := make(table.Row, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	out.AppendHeader(header)

	for i, row := range t.Rows {
		if limit > 0 && i >= limit {
			break
		}
		r := make(table.Row, len(row))
		for j, cell := range row {
			r[j] = cell
		}
		out.AppendRow(r)
	}
	if limit > 0 && len(t.Rows) > limit {
		out.AppendFooter(table.Row{"...", len(t.Rows) - limit})
	}
	out.Render()
}
