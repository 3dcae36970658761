package cmd

import "strings"

// maxSuggestDistance is the largest edit distance still offered as a suggestion.
const maxSuggestDistance = 3

// levenshtein computes the edit distance between a and b.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// suggest returns the candidate closest to unknown, ignoring case and
// leading dashes, or "" when nothing is within maxSuggestDistance.
func suggest(unknown string, candidates []string) string {
	needle := strings.ToLower(strings.TrimLeft(unknown, "-"))
	if needle == "" {
		return ""
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, c := range candidates {
		d := levenshtein(needle, strings.ToLower(strings.TrimLeft(c, "-")))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
