// Package resolve matches user-typed text such as a listing title or street
// to record IDs.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Candidate is a record that can be found by its name or by any alias.
type Candidate struct {
	ID      string
	Name    string
	Aliases []string
}

// Match is one ranked candidate. Matched is the text that scored best.
type Match struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Matched string `json:"matched"`
	Score   int    `json:"score"`
}

var (
	ErrEmptyQuery      = errors.New("empty search query")
	ErrEmptyCandidates = errors.New("no records to match against")
)

// AmbiguousError reports that the best candidates scored equally.
type AmbiguousError struct {
	Query   string
	Matches []Match
}

func (e *AmbiguousError) Error() string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "%q matches more than one record", e.Query)
	for _, m := range e.Matches {
		_, _ = fmt.Fprintf(&b, "\n  %s: %s", m.ID, m.Name)
	}
	return b.String()
}

// searchText is one searchable string and the candidate it belongs to.
type searchText struct {
	text  string
	owner int
}

type corpus []searchText

func (c corpus) String(i int) string { return c[i].text }
func (c corpus) Len() int            { return len(c) }

func buildCorpus(candidates []Candidate) corpus {
	var c corpus
	for i, cand := range candidates {
		for _, text := range append([]string{cand.Name}, cand.Aliases...) {
			if text = strings.TrimSpace(text); text != "" {
				c = append(c, searchText{text: text, owner: i})
			}
		}
	}
	return c
}

// Rank returns up to limit candidates, best first. Each candidate appears
// once, scored by its best matching text.
func Rank(query string, candidates []Candidate, limit int) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return nil
	}
	c := buildCorpus(candidates)
	lowered := make(corpus, len(c))
	for i, st := range c {
		lowered[i] = searchText{text: strings.ToLower(st.text), owner: st.owner}
	}

	var matches []Match
	seen := make(map[int]bool)
	for _, r := range fuzzy.FindFrom(query, lowered) {
		owner := c[r.Index].owner
		if seen[owner] {
			continue
		}
		seen[owner] = true
		matches = append(matches, Match{
			ID:      candidates[owner].ID,
			Name:    candidates[owner].Name,
			Matched: c[r.Index].text,
			Score:   r.Score,
		})
		if len(matches) == limit {
			break
		}
	}
	return matches
}

// Best returns the ID of the candidate that best matches query. An exact
// ID, or a name or alias equal to query ignoring case, wins outright. A tie
// between the two best fuzzy matches is an *AmbiguousError.
func Best(query string, candidates []Candidate) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}
	if len(candidates) == 0 {
		return "", ErrEmptyCandidates
	}

	for _, cand := range candidates {
		if cand.ID == query || strings.EqualFold(cand.Name, query) {
			return cand.ID, nil
		}
	}
	for _, cand := range candidates {
		for _, alias := range cand.Aliases {
			if strings.EqualFold(strings.TrimSpace(alias), query) {
				return cand.ID, nil
			}
		}
	}

	ranked := Rank(query, candidates, 5)
	if len(ranked) == 0 {
		return "", fmt.Errorf("no match found for %q", query)
	}
	if len(ranked) > 1 && ranked[0].Score == ranked[1].Score {
		return "", &AmbiguousError{Query: query, Matches: ranked}
	}
	return ranked[0].ID, nil
}
