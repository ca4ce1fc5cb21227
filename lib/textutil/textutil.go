package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases `name` and drops all whitespace so that names
// differing only in spacing or case compare equal.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	return whitespaceRegex.ReplaceAllString(name, "")
}

// Closest returns the candidate most similar to `name` by Jaro-Winkler
// distance over normalized names, "" when there are no candidates.
func Closest(name string, candidates []string) string {
	target := NormalizeName(name)
	var best string
	var bestScore float64
	for _, candidate := range candidates {
		score := matchr.JaroWinkler(target, NormalizeName(candidate), false)
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	return best
}
