package exportspec

import (
	"strings"

	"surveyops/lib/altset"
	"surveyops/lib/bulkfile"
	"surveyops/lib/surveyxml"
	"surveyops/lib/table"
)

type Row struct {
	ColumnNumber       string
	ExportNumber       string
	ExportName         string
	SurveyQuestionText string
	FieldName          string
	ExportField        string
	AltSetName         string
	AltSetLabels       string
	AltSetValues       string
}

var Header = []string{
	"Column Number",
	"Export Number",
	"Export Name",
	"Survey Question Text",
	"Field Name",
	"Export Fields",
	"alt_set_name",
	"alt_set_labels",
	"alt_set_values",
}

func orNA(v string) string {
	if v == "" {
		return bulkfile.NotAvailable
	}
	return v
}

// Join left joins field definitions onto the export columns by key, then
// alternative sets by set number, then survey question text by key. Every
// join yields one row per match: a key defined more than once, a set number
// shared by several sets and a field carried by several survey nodes all
// repeat the row. Whatever a join could not fill reads NA.
func Join(exports []bulkfile.ExportColumn, fields []bulkfile.Field, sets []altset.Set, nodes []surveyxml.Node) []Row {
	fieldsByKey := map[string][]bulkfile.Field{}
	for _, f := range fields {
		key := strings.TrimSpace(f.Key)
		fieldsByKey[key] = append(fieldsByKey[key], f)
	}

	setsByNumber := map[int][]altset.Set{}
	for _, set := range sets {
		n, ok := set.NumberKey()
		if !ok {
			continue
		}
		setsByNumber[n] = append(setsByNumber[n], set)
	}

	surveyText := map[string][]string{}
	for _, n := range nodes {
		if n.Field == bulkfile.NotAvailable {
			continue
		}
		key := strings.TrimSpace(n.Field)
		surveyText[key] = append(surveyText[key], n.SurveyQuestionText)
	}

	var out []Row
	for _, ec := range exports {
		base := Row{
			ColumnNumber:       ec.ColumnNumberText(),
			ExportNumber:       orNA(ec.ExportNumber),
			ExportName:         orNA(ec.ExportName),
			ExportField:        orNA(ec.Field),
			SurveyQuestionText: bulkfile.NotAvailable,
			FieldName:          bulkfile.NotAvailable,
			AltSetName:         bulkfile.NotAvailable,
			AltSetLabels:       bulkfile.NotAvailable,
			AltSetValues:       bulkfile.NotAvailable,
		}

		matches := fieldsByKey[strings.TrimSpace(ec.Field)]
		if len(matches) == 0 {
			out = append(out, base)
			continue
		}

		for _, f := range matches {
			row := base
			row.FieldName = orNA(f.Name)

			withSets := []Row{row}
			if n, ok := altset.NumberKey(f.AlternativeSet); ok && len(setsByNumber[n]) > 0 {
				withSets = withSets[:0]
				for _, set := range setsByNumber[n] {
					withSet := row
					withSet.AltSetName = orNA(set.Name)
					withSet.AltSetLabels = orNA(set.Labels)
					withSet.AltSetValues = orNA(set.Values)
					withSets = append(withSets, withSet)
				}
			}

			texts := surveyText[strings.TrimSpace(f.Key)]
			for _, r := range withSets {
				if len(texts) == 0 {
					out = append(out, r)
					continue
				}
				for _, text := range texts {
					r.SurveyQuestionText = orNA(text)
					out = append(out, r)
				}
			}
		}
	}
	return out
}

func ToTable(rows []Row) table.Table {
	out := table.New(Header...)
	for _, r := range rows {
		out.Append(
			r.ColumnNumber,
			r.ExportNumber,
			r.ExportName,
			r.SurveyQuestionText,
			r.FieldName,
			r.ExportField,
			r.AltSetName,
			r.AltSetLabels,
			r.AltSetValues,
		)
	}
	return out
}
