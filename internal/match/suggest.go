package match

import (
	"sort"
)

// DefaultMinSimilarity is the similarity a candidate needs to be suggested.
const DefaultMinSimilarity = 0.6

// Candidate is a known name scored against an unknown one.
type Candidate struct {
	Name  string
	Score float64
}

// Rank scores every known name against name and returns the candidates
// sorted by descending score, then by name. The score is the better of the
// edit-distance similarity and the token overlap, so reordered words such as
// "count_scan" still find "scanCount".
func Rank(name string, known []string) []Candidate {
	norm := NormalizeIdent(name)
	tokens := TokenizeIdent(name)
	out := make([]Candidate, 0, len(known))

	for _, k := range known {
		score := max(Similarity(norm, NormalizeIdent(k)), tokenOverlap(tokens, TokenizeIdent(k)))
		out = append(out, Candidate{Name: k, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}

		return out[i].Name < out[j].Name
	})

	return out
}

// Suggest returns up to limit known names that look like name.
func Suggest(name string, known []string, limit int) []string {
	var out []string

	for _, c := range Rank(name, known) {
		if len(out) == limit || c.Score < DefaultMinSimilarity {
			break
		}

		out = append(out, c.Name)
	}

	return out
}

// tokenOverlap is the Jaccard index of two token sets.
func tokenOverlap(a, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}

	union := len(set)
	inter := 0

	seen := make(map[string]bool, len(b))
	for _, t := range b {
		if seen[t] {
			continue
		}

		seen[t] = true

		if set[t] {
			inter++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0
	}

	return float64(inter) / float64(union)
}
