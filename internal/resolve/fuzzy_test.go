package resolve_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/rentportal/rentportal-cli/internal/resolve"
)

var listings = []resolve.Candidate{
	{ID: "p-100", Name: "Sunny Loft Downtown", Aliases: []string{"12 Elm Street", "Austin"}},
	{ID: "p-200", Name: "Garden Cottage", Aliases: []string{"9 Oak Avenue", "Denver"}},
	{ID: "p-300", Name: "Harbor View Apartment", Aliases: []string{"", "Seattle"}},
}

func TestBest(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"garden cottage", "p-200"},
		{"p-300", "p-300"},
		{"HARBOR", "p-300"},
		{"denver", "p-200"},
		{"elm st", "p-100"},
	}
	for _, tt := range tests {
		got, err := resolve.Best(tt.query, listings)
		if err != nil {
			t.Errorf("Best(%q): %v", tt.query, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Best(%q) = %s, want %s", tt.query, got, tt.want)
		}
	}
}

func TestBest_NoMatch(t *testing.T) {
	_, err := resolve.Best("zzzzzz", listings)
	if err == nil || !strings.Contains(err.Error(), "no match") {
		t.Fatalf("expected no match error, got %v", err)
	}
}

func TestBest_Ambiguous(t *testing.T) {
	items := []resolve.Candidate{
		{ID: "a", Name: "Unit 1A"},
		{ID: "b", Name: "Unit 1B"},
	}
	_, err := resolve.Best("unit", items)
	var amb *resolve.AmbiguousError
	if !errors.As(err, &amb) {
		t.Fatalf("expected AmbiguousError, got %v", err)
	}
	if len(amb.Matches) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(amb.Matches))
	}
	msg := amb.Error()
	if !strings.Contains(msg, `"unit" matches more than one record`) || !strings.Contains(msg, "a: Unit 1A") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestBest_EmptyInputs(t *testing.T) {
	if _, err := resolve.Best("  ", listings); !errors.Is(err, resolve.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if _, err := resolve.Best("loft", nil); !errors.Is(err, resolve.ErrEmptyCandidates) {
		t.Fatalf("expected ErrEmptyCandidates, got %v", err)
	}
}

func TestRank(t *testing.T) {
	matches := resolve.Rank("o", listings, 2)
	if len(matches) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(matches))
	}
	if matches[0].Score < matches[1].Score {
		t.Fatal("matches should be sorted best first")
	}
	if got := resolve.Rank("", listings, 5); got != nil {
		t.Fatalf("expected nil for empty query, got %v", got)
	}
	if got := resolve.Rank("loft", listings, 0); got != nil {
		t.Fatalf("expected nil for zero limit, got %v", got)
	}
}

func TestRank_OneEntryPerCandidate(t *testing.T) {
	items := []resolve.Candidate{
		{ID: "h1", Name: "Oak Court", Aliases: []string{"1 Oak Street", "Oakland"}},
	}
	matches := resolve.Rank("oak", items, 10)
	if len(matches) != 1 {
		t.Fatalf("expected one match per candidate, got %+v", matches)
	}
	if matches[0].ID != "h1" || matches[0].Name != "Oak Court" {
		t.Errorf("unexpected match %+v", matches[0])
	}
}

func TestRank_ReportsMatchedText(t *testing.T) {
	matches := resolve.Rank("seattle", listings, 5)
	if len(matches) != 1 || matches[0].ID != "p-300" {
		t.Fatalf("unexpected matches %+v", matches)
	}
	if matches[0].Matched != "Seattle" {
		t.Errorf("Matched = %q, want original casing", matches[0].Matched)
	}
}
