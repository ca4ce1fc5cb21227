// Package kfield finds the fields a calculated field (k-field) refers to.
//
// The scan is textual: a token that looks like a field key is a reference,
// even inside a comment or a string literal of the formula. References are
// not followed transitively, a k-field that uses another k-field does not
// pick up that k-field's own references.
package kfield

import (
	"regexp"
	"slices"
	"strings"

	"surveyops/lib/bulkfile"
	"surveyops/lib/table"
)

// each prefix is scanned on its own, so `k_score_value` yields both
// k_score_value and e_value
var tokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`q_\w+`),
	regexp.MustCompile(`e_\w+`),
	regexp.MustCompile(`a_\w+`),
	regexp.MustCompile(`k_\w+`),
}

// Calculation is a k-field key with its formula text.
type Calculation struct {
	Key     string
	Formula string
}

// Edge records that KField's formula refers to Component.
type Edge struct {
	KField    string
	Component string
}

// Tokens returns every field-like token of `formula`.
func Tokens(formula string) []string {
	var out []string
	for _, re := range tokenPatterns {
		out = append(out, re.FindAllString(formula, -1)...)
	}
	return out
}

// Universe merges key lists into one deduplicated list, keeping the order
// in which keys are first seen.
func Universe(keyLists ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, keys := range keyLists {
		for _, k := range keys {
			k = strings.TrimSpace(k)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

// Calculations pulls the key and formula out of k-field definitions.
func Calculations(kfields []bulkfile.Field) []Calculation {
	out := make([]Calculation, len(kfields))
	for i, f := range kfields {
		out[i] = Calculation{Key: strings.TrimSpace(f.Key), Formula: f.Calculation}
	}
	return out
}

// References emits an edge for every key of `universe` that appears among the
// tokens of a k-field's formula. Edges follow the order of `kfields`, then
// the order of `universe`. A k-field referring to itself is kept.
func References(kfields []Calculation, universe []string) []Edge {
	var out []Edge
	for _, k := range kfields {
		tokens := Tokens(k.Formula)
		for _, key := range universe {
			if slices.Contains(tokens, key) {
				out = append(out, Edge{KField: k.Key, Component: key})
			}
		}
	}
	return out
}

// Parse is References over bulk download fields, with the universe made of
// the e, q, a and k keys.
func Parse(kfields, qfields, efields, afields []bulkfile.Field) []Edge {
	universe := Universe(
		bulkfile.Keys(efields),
		bulkfile.Keys(qfields),
		bulkfile.Keys(afields),
		bulkfile.Keys(kfields),
	)
	return References(Calculations(kfields), universe)
}

// Header names the columns of ToTable.
var Header = []string{"k-field", "components"}

// ToTable renders one row per edge.
func ToTable(edges []Edge) table.Table {
	out := table.New(Header...)
	for _, e := range edges {
		out.Append(e.KField, e.Component)
	}
	return out
}
