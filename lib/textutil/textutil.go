package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// BestMatch returns the index of the candidate most similar to query by
// Jaro-Winkler distance over normalized names, -1 if nothing is similar at all.
func BestMatch(query string, candidates []string) (int, float64) {
	query = NormalizeName(query)

	best := -1
	var mostSimilarity float64
	for i, candidate := range candidates {
		similarity := matchr.JaroWinkler(query, NormalizeName(candidate), false)
		if similarity > mostSimilarity {
			mostSimilarity = similarity
			best = i
		}
	}
	return best, mostSimilarity
}
