package views

import (
	"fmt"
	"strings"

	"docsearch/internal/autocomplete"
)

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width       int
	Height      int
	Input       string // rendered text input
	Spinner     string // rendered spinner frame
	Focused     bool
	Instruction autocomplete.RenderInstruction
	HelpLine    string
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
	item   ItemRenderer
}

// NewRenderer creates a renderer. A nil item renderer uses RenderItem.
func NewRenderer(item ItemRenderer) *Renderer {
	r := &Renderer{styles: NewStyles()}
	r.item = item
	if r.item == nil {
		r.item = r.RenderItem
	}
	return r
}

// Styles returns the renderer's styles
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	title := r.styles.Title.Render("docsearch")
	if state.Instruction.Loading && state.Spinner != "" {
		title += " " + r.styles.StatusLoading.Render(state.Spinner+" searching")
	}
	content.WriteString(title)
	content.WriteString("\n")
	content.WriteString(state.Input)

	if panel := r.RenderPanel(state.Instruction, state.Width, r.maxItems(state.Height)); panel != "" {
		content.WriteString("\n")
		content.WriteString(r.styles.Panel.Render(panel))
	}

	if state.HelpLine != "" {
		content.WriteString("\n")
		content.WriteString(r.styles.Help.Render(state.HelpLine))
	}
	return r.styles.Main.Render(content.String())
}

// maxItems estimates how many three-line rows fit below the input
func (r *Renderer) maxItems(height int) int {
	if height <= 0 {
		return 0
	}
	n := (height - 10) / 3
	if n < 1 {
		n = 1
	}
	return n
}

// RenderPanel renders the result panel body for one instruction. It returns
// an empty string while the panel is closed. maxItems <= 0 shows every item.
func (r *Renderer) RenderPanel(ins autocomplete.RenderInstruction, width, maxItems int) string {
	switch ins.State {
	case autocomplete.StatusClosed:
		return ""

	case autocomplete.StatusNoResults:
		lines := []string{r.styles.Dim.Render(fmt.Sprintf("No results for \"%s\".", ins.QueryText))}
		if ins.PartialFailure() {
			lines = append(lines, r.missingNote(ins))
		}
		return strings.Join(lines, "\n")

	case autocomplete.StatusError:
		return r.styles.StatusError.Render(fmt.Sprintf("Search is unavailable (%s). Press ctrl+r to retry.",
			strings.Join(ins.FailedSources(), ", ")))

	case autocomplete.StatusLoading:
		if len(ins.Items) == 0 {
			return r.styles.StatusLoading.Render("Searching…")
		}
	}

	lines := []string{r.renderItems(ins, width, maxItems)}
	if ins.PartialFailure() {
		lines = append(lines, r.missingNote(ins))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) missingNote(ins autocomplete.RenderInstruction) string {
	return r.styles.StatusWarning.Render(fmt.Sprintf("Some results are missing: %s did not answer.",
		strings.Join(ins.FailedSources(), ", ")))
}

func (r *Renderer) renderItems(ins autocomplete.RenderInstruction, width, maxItems int) string {
	start, end := window(len(ins.Items), ins.Selected, maxItems)

	rows := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		rows = append(rows, r.item(ins.Items[i], ins.QueryText, i == ins.Selected, width))
	}
	if hidden := len(ins.Items) - (end - start); hidden > 0 {
		rows = append(rows, r.styles.Dim.Render(fmt.Sprintf("… %d more", hidden)))
	}
	return strings.Join(rows, "\n")
}

// window picks the visible slice of n rows so that selected stays in view
func window(n, selected, size int) (int, int) {
	if size <= 0 || n <= size {
		return 0, n
	}
	start := 0
	if selected >= size {
		start = selected - size + 1
	}
	return start, start + size
}
