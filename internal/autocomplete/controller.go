// Package autocomplete drives the type-ahead result panel: it turns input
// events into queries through a coordinator and resolved queries into render
// instructions for the host.
package autocomplete

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"docsearch/internal/coordinator"
	"docsearch/internal/domain"
	"docsearch/internal/eventbus"
)

// Option configures a Controller
type Option func(*Controller)

// WithNavigate sets the callback invoked with the URL of a chosen item
func WithNavigate(fn func(url string)) Option {
	return func(c *Controller) { c.onNavigate = fn }
}

// WithRender sets a callback that receives an instruction after every transition
func WithRender(fn func(RenderInstruction)) Option {
	return func(c *Controller) { c.onRender = fn }
}

// WithLogger sets the controller's logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithBus publishes navigation events on b
func WithBus(b eventbus.EventBus) Option {
	return func(c *Controller) { c.bus = b }
}

// Controller is the autocomplete state machine. Like the coordinator it is
// driven from a single update loop and is not safe for concurrent use.
type Controller struct {
	coord       *coordinator.Coordinator
	openOnFocus bool
	state       SessionState

	onNavigate func(url string)
	onRender   func(RenderInstruction)
	logger     *zap.Logger
	bus        eventbus.EventBus
}

// New creates a controller over coord
func New(coord *coordinator.Coordinator, opts ...Option) *Controller {
	c := &Controller{
		coord:  coord,
		state:  SessionState{Selected: NoSelection, Status: StatusClosed},
		logger: zap.NewNop(),
	}
	for _, d := range coord.Sources() {
		if d.OpenOnFocus {
			c.openOnFocus = true
		}
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.Named("autocomplete")
	return c
}

// State returns a copy of the session state
func (c *Controller) State() SessionState {
	s := c.state
	s.Items = append([]domain.ResultItem(nil), c.state.Items...)
	s.Failures = append([]SourceFailure(nil), c.state.Failures...)
	return s
}

// OpenOnFocus reports whether focusing the input opens the panel
func (c *Controller) OpenOnFocus() bool {
	return c.openOnFocus
}

// Render builds the instruction for the current state
func (c *Controller) Render() RenderInstruction {
	return RenderInstruction{
		State:     c.state.Status,
		Items:     append([]domain.ResultItem(nil), c.state.Items...),
		Selected:  c.state.Selected,
		QueryText: c.state.Query,
		Loading:   c.state.Loading,
		Failures:  append([]SourceFailure(nil), c.state.Failures...),
	}
}

// TextChanged handles an edit of the input text
func (c *Controller) TextChanged(text string) tea.Cmd {
	c.state.Query = text

	if strings.TrimSpace(text) == "" && !c.openOnFocus {
		c.coord.Cancel()
		c.state.ActiveSequence = c.coord.Sequence()
		c.state.Items = nil
		c.state.Failures = nil
		c.close()
		return nil
	}

	c.state.Status = StatusLoading
	c.emit()
	return c.coord.Submit(text)
}

// Focus handles the input gaining focus
func (c *Controller) Focus() tea.Cmd {
	if c.state.Status != StatusClosed || !c.openOnFocus {
		return nil
	}
	return c.issueNow()
}

// Blur handles the input losing focus
func (c *Controller) Blur() tea.Cmd {
	c.Dismiss()
	return nil
}

// Dismiss closes the panel and abandons pending work
func (c *Controller) Dismiss() {
	if c.state.Status == StatusClosed && !c.coord.Loading() {
		return
	}
	c.coord.Cancel()
	c.state.ActiveSequence = c.coord.Sequence()
	c.close()
}

// Retry re-issues the current text without waiting for the debounce
func (c *Controller) Retry() tea.Cmd {
	if strings.TrimSpace(c.state.Query) == "" && !c.openOnFocus {
		return nil
	}
	return c.issueNow()
}

// Key handles navigation keys
func (c *Controller) Key(k Key) tea.Cmd {
	switch k {
	case KeyEscape:
		c.Dismiss()
	case KeyArrowDown:
		c.move(1)
	case KeyArrowUp:
		c.move(-1)
	case KeyEnter:
		if c.state.Status != StatusResults {
			return nil
		}
		switch {
		case c.state.Selected != NoSelection:
			c.choose(c.state.Selected)
		// a lone result is chosen without highlighting it first
		case len(c.state.Items) == 1:
			c.choose(0)
		}
	}
	return nil
}

// Select chooses the item at index, as a pointer click would
func (c *Controller) Select(index int) tea.Cmd {
	if c.state.Status != StatusResults || index < 0 || index >= len(c.state.Items) {
		return nil
	}
	c.choose(index)
	return nil
}

// Update consumes coordinator messages; other messages are ignored
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case coordinator.DebounceMsg:
		q, cmd, ok := c.coord.HandleDebounce(msg)
		if !ok {
			return nil
		}
		c.markIssued(q)
		return cmd

	case coordinator.ResultMsg:
		res, ok := c.coord.HandleResult(msg)
		if !ok {
			return nil
		}
		c.apply(res)
	}
	return nil
}

// Resolve runs cmd and every command it leads to, feeding each message back
// into the controller, until no work is left. It blocks for debounce delays
// and fetches, so it is meant for non-interactive callers.
func (c *Controller) Resolve(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		queue = append(queue, c.Update(msg))
	}
}

func (c *Controller) issueNow() tea.Cmd {
	q, cmd := c.coord.IssueNow(c.state.Query)
	c.state.Status = StatusLoading
	c.markIssued(q)
	return cmd
}

func (c *Controller) markIssued(q domain.Query) {
	c.state.ActiveSequence = q.Seq
	c.state.Loading = true
	c.emit()
}

// apply replaces the item list with a resolved result set
func (c *Controller) apply(res coordinator.Resolution) {
	c.state.Loading = false
	c.state.Items = res.Items
	c.state.Failures = res.Failures
	c.state.Selected = NoSelection

	switch {
	case res.AllFailed:
		c.state.Status = StatusError
	case len(res.Items) == 0:
		c.state.Status = StatusNoResults
	default:
		c.state.Status = StatusResults
	}

	c.logger.Debug("results applied",
		zap.Uint64("seq", res.Query.Seq),
		zap.String("status", c.state.Status.String()),
		zap.Int("items", len(res.Items)))
	c.emit()
}

// move steps the selection circularly
func (c *Controller) move(delta int) {
	n := len(c.state.Items)
	if c.state.Status != StatusResults || n == 0 {
		return
	}

	switch {
	case c.state.Selected == NoSelection && delta > 0:
		c.state.Selected = 0
	case c.state.Selected == NoSelection:
		c.state.Selected = n - 1
	default:
		c.state.Selected = ((c.state.Selected+delta)%n + n) % n
	}
	c.emit()
}

func (c *Controller) choose(index int) {
	item := c.state.Items[index]
	c.coord.Cancel()
	c.state.ActiveSequence = c.coord.Sequence()
	c.close()

	c.logger.Info("navigating", zap.String("url", item.URL), zap.String("source", item.SourceID))
	if c.bus != nil {
		c.bus.Publish(domain.NavigatedEvent{URL: item.URL, Item: item})
	}
	if c.onNavigate != nil {
		c.onNavigate(item.URL)
	}
}

func (c *Controller) close() {
	c.state.Status = StatusClosed
	c.state.Loading = false
	c.state.Selected = NoSelection
	c.emit()
}

func (c *Controller) emit() {
	if c.onRender != nil {
		c.onRender(c.Render())
	}
}
