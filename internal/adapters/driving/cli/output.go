package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	defaultWidth = 100
	maxWidth     = 120
	indent       = 6
)

// palette holds the colours used for terminal output.
type palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

func defaultPalette() palette {
	return palette{
		Primary:   lipgloss.Color("#7C3AED"),
		Secondary: lipgloss.Color("#06B6D4"),
		Muted:     lipgloss.Color("#6C7086"),
		Success:   lipgloss.Color("#A6E3A1"),
		Warning:   lipgloss.Color("#F9E2AF"),
		Error:     lipgloss.Color("#F38BA8"),
	}
}

// outputStyles are the lipgloss styles for command output.
type outputStyles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Score   lipgloss.Style
	Match   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

func newOutputStyles(p palette) outputStyles {
	return outputStyles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		Heading: lipgloss.NewStyle().Bold(true).Foreground(p.Secondary),
		Score:   lipgloss.NewStyle().Foreground(p.Success),
		Match:   lipgloss.NewStyle().Bold(true).Underline(true).Foreground(p.Warning),
		Muted:   lipgloss.NewStyle().Foreground(p.Muted),
		Success: lipgloss.NewStyle().Foreground(p.Success),
		Warning: lipgloss.NewStyle().Foreground(p.Warning),
		Error:   lipgloss.NewStyle().Foreground(p.Error),
	}
}

var styles = newOutputStyles(defaultPalette())

// terminalWidth returns the usable width of stdout, capped for readability.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	if w > maxWidth {
		return maxWidth
	}
	return w
}

// renderSnippet styles the **-delimited match in a snippet and wraps it
// to width. Snippets without a complete marker pair are only wrapped.
func renderSnippet(snippet string, width int) string {
	snippet = strings.Join(strings.Fields(snippet), " ")

	if before, rest, ok := strings.Cut(snippet, "**"); ok {
		if match, after, ok := strings.Cut(rest, "**"); ok {
			snippet = before + styles.Match.Render(match) + after
		}
	}

	if width <= indent {
		return snippet
	}
	return lipgloss.NewStyle().Width(width - indent).Render(snippet)
}

// indentLines prefixes every line of s with n spaces.
func indentLines(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = pad + line
	}
	return strings.Join(lines, "\n")
}
