// Package altset collapses the one-row-per-alternative table of the bulk
// download into one row per alternative set.
package altset

import (
	"math"
	"strconv"
	"strings"

	"surveyops/lib/bulkfile"
	"surveyops/lib/table"
)

const Separator = "; "

// Columns selects which alt-set columns feed the organized output, the
// alternative database carries several label and value flavours.
type Columns struct {
	Name   string
	Number string
	Label  string
	Value  string
}

var DefaultColumns = Columns{
	Name:   "Name",
	Number: "AltSetNumber",
	Label:  "InSurvey",
	Value:  "ExportValue",
}

type Set struct {
	Name   string
	Number string
	Labels string
	Values string
}

// NumberKey returns the set number as an integer for joins, false when it
// is not numeric.
func (s Set) NumberKey() (int, bool) {
	return NumberKey(s.Number)
}

// NumberKey parses an alt-set reference such as `12` or `12.0`.
func NumberKey(v string) (int, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
		return 0, false
	}
	return int(n), true
}

func isNull(v string) bool {
	return v == "" || v == bulkfile.NotAvailable
}

// NormalizeValue rewrites integer text in canonical form (`01` and `+1`
// become `1`). Anything that is not an integer, `2.0` included, is kept as is.
func NormalizeValue(v string) string {
	if n, err := strconv.Atoi(v); err == nil {
		return strconv.Itoa(n)
	}
	return v
}

type group struct {
	set    Set
	labels []string
	values []string
}

// Organize groups the rows of `t` by set name in order of first appearance.
// Within a group labels and values are joined in file order, null cells
// (empty or NA) are skipped, and the set number is the first non-null one.
func Organize(t table.Table, cols Columns) ([]Set, error) {
	idx, err := t.Indexes(cols.Name, cols.Number, cols.Label, cols.Value)
	if err != nil {
		return nil, err
	}
	nameIdx, numberIdx, labelIdx, valueIdx := idx[0], idx[1], idx[2], idx[3]
	cell := func(row []string, i int) string {
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	var order []*group
	groups := make(map[string]*group)
	for _, row := range t.Rows {
		name := cell(row, nameIdx)
		g, ok := groups[name]
		if !ok {
			g = &group{set: Set{Name: name}}
			groups[name] = g
			order = append(order, g)
		}

		if number := cell(row, numberIdx); g.set.Number == "" && !isNull(number) {
			g.set.Number = number
		}
		if value := cell(row, valueIdx); !isNull(value) {
			g.values = append(g.values, NormalizeValue(value))
		}
		if label := cell(row, labelIdx); !isNull(label) {
			g.labels = append(g.labels, label)
		}
	}

	out := make([]Set, len(order))
	for i, g := range order {
		g.set.Labels = strings.Join(g.labels, Separator)
		g.set.Values = strings.Join(g.values, Separator)
		out[i] = g.set
	}
	return out, nil
}

var Header = []string{"alt_set_name", "alt_set_number", "alt_set_labels", "alt_set_values"}

func ToTable(sets []Set) table.Table {
	out := table.New(Header...)
	for _, s := range sets {
		out.Append(s.Name, s.Number, s.Labels, s.Values)
	}
	return out
}
