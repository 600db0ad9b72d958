package views

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"docsearch/internal/autocomplete"
	"docsearch/internal/domain"
)

func sampleItems() []domain.ResultItem {
	return []domain.ResultItem{
		{Kind: domain.KindTitle, Primary: "Authentication", Snippet: "Authenticate every request.", Breadcrumbs: []string{"Overview", "Authentication"}, URL: "https://docs.example.com/auth"},
		{Kind: domain.KindParameter, Primary: "amount.value", Snippet: "The exact amount.", Breadcrumbs: []string{"Payments", "Create payment", "Parameters"}, URL: "https://docs.example.com/payments/create"},
	}
}

func TestHighlightMarksTermsCaseInsensitively(t *testing.T) {
	var marked []string
	hl := lipgloss.NewStyle().Transform(func(s string) string {
		marked = append(marked, s)
		return "[" + s + "]"
	})

	out := Highlight("OAuth and auth tokens", "AUTH tok", lipgloss.NewStyle(), hl)
	assert.Equal(t, "O[Auth] and [auth] [tok]ens", out)
	assert.Equal(t, []string{"Auth", "auth", "tok"}, marked)

	assert.Equal(t, "plain", Highlight("plain", "   ", lipgloss.NewStyle(), hl))
}

func TestRenderItemSwitchesOnKind(t *testing.T) {
	r := NewRenderer(nil)

	title := r.RenderItem(sampleItems()[0], "auth", true, 80)
	assert.Contains(t, title, "› ")
	assert.Contains(t, title, "Authentication")
	assert.Contains(t, title, "Overview › Authentication")

	param := r.RenderItem(sampleItems()[1], "amount", false, 80)
	assert.Contains(t, param, "amount.value")
	assert.Contains(t, param, "Payments › Create payment › Parameters")
	assert.NotContains(t, param, "› amount", "unselected rows have no cursor")
}

func TestRenderPanelStates(t *testing.T) {
	r := NewRenderer(nil)

	assert.Empty(t, r.RenderPanel(autocomplete.RenderInstruction{State: autocomplete.StatusClosed, Items: sampleItems()}, 80, 0))

	none := r.RenderPanel(autocomplete.RenderInstruction{State: autocomplete.StatusNoResults, QueryText: "zzz"}, 80, 0)
	assert.Contains(t, none, `No results for "zzz".`)
	assert.NotContains(t, none, "did not answer")

	quoted := r.RenderPanel(autocomplete.RenderInstruction{State: autocomplete.StatusNoResults, QueryText: `say "hi"`}, 80, 0)
	assert.Contains(t, quoted, `No results for "say "hi"".`)

	noneMissing := r.RenderPanel(autocomplete.RenderInstruction{
		State:     autocomplete.StatusNoResults,
		QueryText: "zzz",
		Failures:  []autocomplete.SourceFailure{{SourceID: "api", Err: errors.New("down")}},
	}, 80, 0)
	assert.Contains(t, noneMissing, `No results for "zzz".`)
	assert.Contains(t, noneMissing, "Some results are missing: api did not answer.")

	failed := r.RenderPanel(autocomplete.RenderInstruction{
		State:    autocomplete.StatusError,
		Failures: []autocomplete.SourceFailure{{SourceID: "docs", Err: errors.New("x")}, {SourceID: "api", Err: errors.New("y")}},
	}, 80, 0)
	assert.Contains(t, failed, "docs, api")
	assert.Contains(t, failed, "ctrl+r")

	loading := r.RenderPanel(autocomplete.RenderInstruction{State: autocomplete.StatusLoading, Loading: true}, 80, 0)
	assert.Contains(t, loading, "Searching")

	partial := r.RenderPanel(autocomplete.RenderInstruction{
		State:     autocomplete.StatusResults,
		Items:     sampleItems(),
		Selected:  autocomplete.NoSelection,
		QueryText: "a",
		Failures:  []autocomplete.SourceFailure{{SourceID: "api", Err: errors.New("down")}},
	}, 80, 0)
	assert.Contains(t, partial, "Authentication")
	assert.Contains(t, partial, "amount.value")
	assert.Contains(t, partial, "api did not answer")
}

func TestCustomItemRendererAndWindow(t *testing.T) {
	r := NewRenderer(func(item domain.ResultItem, query string, selected bool, width int) string {
		if selected {
			return "*" + item.Primary
		}
		return item.Primary
	})

	items := make([]domain.ResultItem, 5)
	for i := range items {
		items[i] = domain.ResultItem{Primary: string(rune('a' + i))}
	}

	out := r.RenderPanel(autocomplete.RenderInstruction{State: autocomplete.StatusResults, Items: items, Selected: 4}, 80, 2)
	lines := strings.Split(out, "\n")
	assert.Equal(t, []string{"d", "*e", "… 3 more"}, lines)
}

func TestWindow(t *testing.T) {
	s, e := window(10, -1, 3)
	assert.Equal(t, [2]int{0, 3}, [2]int{s, e})
	s, e = window(10, 7, 3)
	assert.Equal(t, [2]int{5, 8}, [2]int{s, e})
	s, e = window(2, 1, 3)
	assert.Equal(t, [2]int{0, 2}, [2]int{s, e})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "abcdef", truncate("abcdef", 0))
}
