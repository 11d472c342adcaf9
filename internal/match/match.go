// Package match pairs claim descriptions with item descriptions by textual
// similarity.
package match

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/erazemk/lostfound/internal/model"
)

// Threshold is the similarity a candidate must exceed to count as a match.
const Threshold = 0.6

// Ratio returns the case-insensitive similarity of a and b in [0, 1].
// It is 2*M/T where M is the number of runes in matching blocks and T the
// total number of runes in both strings. Two empty strings score 1.
func Ratio(a, b string) float64 {
	m := difflib.NewMatcher(runes(strings.ToLower(a)), runes(strings.ToLower(b)))
	return m.Ratio()
}

// Best returns the index of the candidate most similar to description and its
// ratio. Only candidates scoring above Threshold qualify, and the first one
// wins a tie. The index is -1 if nothing qualifies.
func Best(description string, candidates []string) (int, float64) {
	best, bestRatio := -1, 0.0
	for i, c := range candidates {
		ratio := Ratio(description, c)
		if ratio > bestRatio && ratio > Threshold {
			best, bestRatio = i, ratio
		}
	}
	return best, bestRatio
}

// BestItem runs Best over item descriptions. It returns nil if no item
// qualifies.
func BestItem(description string, items []model.Item) (*model.Item, float64) {
	descriptions := make([]string, len(items))
	for i := range items {
		descriptions[i] = items[i].Description
	}
	idx, ratio := Best(description, descriptions)
	if idx < 0 {
		return nil, 0
	}
	return &items[idx], ratio
}

// runes splits s into one element per rune, the sequence unit of the matcher.
func runes(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "")
}
