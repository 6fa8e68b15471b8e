package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorer_Matches(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		name  string
		query string
		text  string
		want  bool
	}{
		{"exact", "fox", "the quick fox", true},
		{"case insensitive", "QUICK", "The Quick Fox", true},
		{"substring of word", "uic", "the quick fox", true},
		{"absent", "wolf", "the quick fox", false},
		{"empty query", "", "the quick fox", false},
		{"empty text", "fox", "", false},
		{"unicode fold", "ÉTÉ", "un été chaud", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Matches(tt.query, tt.text))
		})
	}
}

func TestScorer_Matches_AgreesWithLowercaseContainment(t *testing.T) {
	s := NewScorer()
	texts := []string{"Alpha Beta Gamma", "mixed CASE text", "ünïcödé Straße"}
	queries := []string{"beta", "CASE", "STRASSE", "ßE", "ünï", "a"}

	for _, text := range texts {
		for _, q := range queries {
			want := strings.Contains(strings.ToLower(text), strings.ToLower(q))
			if want {
				assert.True(t, s.Matches(q, text), "query %q in %q", q, text)
			}
		}
	}
}

func TestScorer_ScoreAndSnippet_Score(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		name  string
		query string
		text  string
		want  float64
	}{
		{"single hit", "quick", "the quick fox", 1.0 / 3.0},
		{"two hits", "quick", "the quick quick fox fox", 2.0 / 5.0},
		{"non-overlapping count", "aa", "aaaa", 2.0 / 1.0},
		{"case insensitive count", "fox", "Fox fox FOX", 3.0 / 3.0},
		{"extra whitespace", "fox", "  fox \n\t fox  ", 2.0 / 2.0},
		{"no hit", "wolf", "the quick fox", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, _ := s.ScoreAndSnippet(tt.query, tt.text)
			assert.InDelta(t, tt.want, score, 1e-9)
			assert.GreaterOrEqual(t, score, 0.0)
		})
	}
}

func TestScorer_ScoreAndSnippet_NoMatch(t *testing.T) {
	score, snippet := NewScorer().ScoreAndSnippet("wolf", "the quick fox")

	assert.Zero(t, score)
	assert.Empty(t, snippet)
}

func TestScorer_ScoreAndSnippet_EmptyQuery(t *testing.T) {
	score, snippet := NewScorer().ScoreAndSnippet("", "the quick fox")

	assert.Zero(t, score)
	assert.Empty(t, snippet)
}

func TestScorer_ScoreAndSnippet_HighlightKeepsOriginalCase(t *testing.T) {
	_, snippet := NewScorer().ScoreAndSnippet("quick", "The QUICK fox")

	assert.Equal(t, "The **QUICK** fox", snippet)
}

func TestScorer_ScoreAndSnippet_WindowIsClipped(t *testing.T) {
	before := strings.Repeat("a", 80)
	after := strings.Repeat("b", 80)
	text := before + "needle" + after

	_, snippet := NewScorer().ScoreAndSnippet("needle", text)

	assert.Equal(t, strings.Repeat("a", 50)+"**needle**"+strings.Repeat("b", 50), snippet)
}

func TestScorer_ScoreAndSnippet_FirstOccurrence(t *testing.T) {
	s := Scorer{ContextRadius: 4, Marker: "**"}

	_, snippet := s.ScoreAndSnippet("ox", "xx ox yy ox")

	assert.Equal(t, "x **ox** y", snippet)
}

func TestScorer_ScoreAndSnippet_MultibyteOffsets(t *testing.T) {
	s := Scorer{ContextRadius: 4, Marker: "["}

	_, snippet := s.ScoreAndSnippet("été", "ça été là")

	assert.Equal(t, "a [été[ l", snippet)
}

func TestScorer_ScoreAndSnippet_TrimsWhitespace(t *testing.T) {
	s := Scorer{ContextRadius: 10, Marker: "**"}

	_, snippet := s.ScoreAndSnippet("fox", "\n\n   fox   \n")

	assert.Equal(t, "**fox**", snippet)
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, countTokens(""))
	assert.Equal(t, 0, countTokens("   \n\t"))
	assert.Equal(t, 3, countTokens("the quick fox"))
	assert.Equal(t, 2, countTokens("  a  b  "))
}
