package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"docsearch/internal/domain"
	"docsearch/internal/source"
)

// ItemRenderer formats one result row. query is the text the results were
// fetched for; selected marks the highlighted row.
type ItemRenderer func(item domain.ResultItem, query string, selected bool, width int) string

// RenderItem is the default ItemRenderer. Parameters are shown code style and
// titles bold, followed by the snippet and the breadcrumb trail.
func (r *Renderer) RenderItem(item domain.ResultItem, query string, selected bool, width int) string {
	var primary string
	switch item.Kind {
	case domain.KindParameter:
		primary = Highlight(item.Primary, query, r.styles.Parameter, r.styles.Highlight)
	default:
		primary = Highlight(item.Primary, query, r.styles.Primary, r.styles.Highlight)
	}

	cursor := "  "
	if selected {
		cursor = r.styles.Cursor.Render("› ")
		primary = r.styles.SelectionBg.Render(primary)
	}

	lines := []string{cursor + primary}
	if item.Snippet != "" {
		snippet := truncate(item.Snippet, width-4)
		lines = append(lines, "  "+Highlight(snippet, query, r.styles.Snippet, r.styles.Highlight))
	}
	if trail := item.Trail(); trail != "" {
		lines = append(lines, "  "+r.styles.Breadcrumbs.Render(truncate(trail, width-4)))
	}
	return strings.Join(lines, "\n")
}

// Highlight renders text in base with every occurrence of a query term in hl.
// Matching is case-insensitive.
func Highlight(text, query string, base, hl lipgloss.Style) string {
	terms := source.Terms(query)
	runes := []rune(text)
	lower := []rune(strings.ToLower(text))
	if len(terms) == 0 || len(lower) != len(runes) {
		return base.Render(text)
	}

	marked := make([]bool, len(runes))
	for _, term := range terms {
		tr := []rune(term)
		for i := 0; i+len(tr) <= len(lower); i++ {
			if string(lower[i:i+len(tr)]) == term {
				for j := i; j < i+len(tr); j++ {
					marked[j] = true
				}
			}
		}
	}

	var b strings.Builder
	start := 0
	for i := 1; i <= len(runes); i++ {
		if i < len(runes) && marked[i] == marked[start] {
			continue
		}
		seg := string(runes[start:i])
		if marked[start] {
			b.WriteString(hl.Render(seg))
		} else {
			b.WriteString(base.Render(seg))
		}
		start = i
	}
	return b.String()
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
