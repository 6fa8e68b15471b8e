package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Relevance scoring defaults.
const (
	// DefaultContextRadius is the total number of characters of context
	// around a hit, split evenly before and after it.
	DefaultContextRadius = 100

	// HighlightMarker wraps the matched span in a snippet.
	HighlightMarker = "**"
)

// Scorer decides whether a document matches a query and ranks it.
//
// Matching is case-insensitive literal substring containment. The score is
// the number of non-overlapping hits divided by the number of whitespace
// separated tokens, so longer documents with the same hit count rank lower.
// The score has no upper bound.
type Scorer struct {
	// ContextRadius is the snippet context size in characters.
	ContextRadius int

	// Marker wraps the highlighted hit.
	Marker string
}

// NewScorer creates a scorer with the default radius and marker.
func NewScorer() Scorer {
	return Scorer{
		ContextRadius: DefaultContextRadius,
		Marker:        HighlightMarker,
	}
}

// Matches reports whether query occurs in text, ignoring case.
// An empty query matches nothing.
func (s Scorer) Matches(query, text string) bool {
	if query == "" || text == "" {
		return false
	}
	return strings.Contains(foldString(text), foldString(query))
}

// ScoreAndSnippet returns the relevance score of text for query and a
// snippet around the first hit with the hit wrapped in the marker.
// Without a hit, or for an empty query, it returns 0 and an empty snippet.
func (s Scorer) ScoreAndSnippet(query, text string) (float64, string) {
	if query == "" || text == "" {
		return 0, ""
	}

	runes := []rune(text)
	folded := foldRunes(runes)
	foldedQuery := foldString(query)

	first := strings.Index(folded, foldedQuery)
	if first < 0 {
		return 0, ""
	}

	hits := strings.Count(folded, foldedQuery)
	score := float64(hits) / float64(max(1, countTokens(text)))

	// Folding maps each rune to exactly one rune, so rune offsets in the
	// folded string are rune offsets in the original.
	idx := utf8.RuneCountInString(folded[:first])
	qlen := utf8.RuneCountInString(foldedQuery)

	return score, s.snippet(runes, idx, qlen)
}

// snippet cuts a window of ContextRadius/2 runes either side of the hit at
// runes[idx:idx+qlen] and highlights the hit.
func (s Scorer) snippet(runes []rune, idx, qlen int) string {
	half := s.ContextRadius / 2
	if half < 0 {
		half = 0
	}
	start := max(0, idx-half)
	end := min(len(runes), idx+qlen+half)

	var b strings.Builder
	b.WriteString(string(runes[start:idx]))
	b.WriteString(s.Marker)
	b.WriteString(string(runes[idx : idx+qlen]))
	b.WriteString(s.Marker)
	b.WriteString(string(runes[idx+qlen : end]))
	return strings.TrimSpace(b.String())
}

// foldRunes lowercases runes one for one and returns them as a string.
func foldRunes(runes []rune) string {
	var b strings.Builder
	b.Grow(len(runes))
	for _, r := range runes {
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func foldString(s string) string {
	return foldRunes([]rune(s))
}

// countTokens counts whitespace-delimited tokens.
func countTokens(text string) int {
	n := 0
	inToken := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			inToken = false
			continue
		}
		if !inToken {
			n++
			inToken = true
		}
	}
	return n
}
