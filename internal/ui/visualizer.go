package ui

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mark3labs/tokencount/internal/counter"
	"github.com/mark3labs/tokencount/internal/tokens"
	"golang.org/x/term"
)

// Span is a run of consecutive characters attributed to the same token.
type Span struct {
	Token int
	Text  string
}

// Spans splits the visualization text into runs of characters that share a
// token index. It returns nil when the character map does not cover the text,
// which is the case for providers that only report a count.
func Spans(v counter.Visualization) []Span {
	if v.Text == "" || len(v.CharToToken) != utf8.RuneCountInString(v.Text) {
		return nil
	}

	var spans []Span
	var b strings.Builder
	current := v.CharToToken[0]
	i := 0
	for _, r := range v.Text {
		idx := v.CharToToken[i]
		if idx != current {
			spans = append(spans, Span{Token: current, Text: b.String()})
			b.Reset()
			current = idx
		}
		b.WriteRune(r)
		i++
	}
	return append(spans, Span{Token: current, Text: b.String()})
}

// Renderer draws counting results for a terminal of a given width.
type Renderer struct {
	width int
	theme Theme
}

// NewRenderer creates a renderer. A non-positive width uses the current
// terminal width.
func NewRenderer(width int, theme Theme) *Renderer {
	if width <= 0 {
		width = GetTerminalWidth()
	}
	return &Renderer{width: width, theme: theme}
}

// RenderResult renders the summary line followed by the token view, or the
// error for a failed result.
func (r *Renderer) RenderResult(req counter.Request, res counter.Result) string {
	var b strings.Builder

	b.WriteString(CreateBadge(req.Provider, r.theme.Primary))
	b.WriteString(" ")
	b.WriteString(StyleSubheader(r.theme).Render(req.Model))
	b.WriteString("\n")

	if !res.Success {
		b.WriteString(StyleError(r.theme).Render("Error: "))
		b.WriteString(res.Error)
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(r.renderSummary(res))
	b.WriteString(CreateSeparator(r.width, "─", r.theme.Border))
	b.WriteString("\n")
	b.WriteString(r.RenderTokens(res.Visualization))
	b.WriteString("\n")
	return b.String()
}

func (r *Renderer) renderSummary(res counter.Result) string {
	base := lipgloss.NewStyle()
	label := base.Foreground(r.theme.Muted)
	value := base.Foreground(r.theme.Text).Bold(true)

	return fmt.Sprintf("%s%s%s%s\n",
		label.Render("Tokens: "),
		value.Render(FormatTokenCount(res.TokenCount)),
		label.Render(" | Price: "),
		base.Foreground(r.theme.Primary).Render(fmt.Sprintf("$%.6f", res.Price)),
	)
}

// RenderTokens renders the text with every token on its own background
// color. Characters that belong to no token are shown muted. Line breaks are
// drawn as a return symbol so the token that holds them stays visible.
func (r *Renderer) RenderTokens(v counter.Visualization) string {
	spans := Spans(v)
	if spans == nil {
		body := lipgloss.NewStyle().Foreground(r.theme.Text).Width(r.width).Render(v.Text)
		return body + "\n" + StyleMuted(r.theme).Render("token boundaries are not available for this provider")
	}

	var b strings.Builder
	for _, s := range spans {
		style := lipgloss.NewStyle().Foreground(r.theme.Text).Background(r.theme.TokenColor(s.Token))
		if s.Token == tokens.Unassigned {
			style = lipgloss.NewStyle().Foreground(r.theme.VeryMuted)
		}
		lines := strings.Split(s.Text, "\n")
		for i, line := range lines {
			if line != "" {
				b.WriteString(style.Render(line))
			}
			if i < len(lines)-1 {
				b.WriteString(style.Render("↵"))
				b.WriteString("\n")
			}
		}
	}
	return lipgloss.NewStyle().Width(r.width).Render(b.String())
}

// FormatTokenCount formats a count with K or M suffixes above a thousand.
func FormatTokenCount(n int) string {
	switch {
	case n >= 1000000:
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	case n >= 1000:
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// GetTerminalWidth returns the width of stdout, or 80 when stdout is not a
// terminal.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
