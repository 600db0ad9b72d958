package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"docsearch/internal/autocomplete"
	"docsearch/internal/coordinator"
	"docsearch/internal/eventbus"
	"docsearch/internal/ui/views"
)

// Option configures a Model
type Option func(*Model)

// WithBus passes the event bus to the controller
func WithBus(b eventbus.EventBus) Option {
	return func(m *Model) { m.bus = b }
}

// WithLogger sets the logger for the screen and its controller
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithQuery pre-fills the search field
func WithQuery(q string) Option {
	return func(m *Model) { m.initial = q }
}

// WithItemRenderer replaces the default result row formatting
func WithItemRenderer(r views.ItemRenderer) Option {
	return func(m *Model) { m.itemRenderer = r }
}

// Model is the search screen
type Model struct {
	ctrl         *autocomplete.Controller
	bus          eventbus.EventBus
	logger       *zap.Logger
	itemRenderer views.ItemRenderer
	initial      string

	width   int
	height  int
	focused bool
	chosen  string

	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	renderer *views.Renderer

	// Program reference for terminal management
	program *tea.Program
	helpOps *HelpOps
}

// NewModel creates the search screen over coord
func NewModel(coord *coordinator.Coordinator, opts ...Option) *Model {
	m := &Model{
		logger: zap.NewNop(),
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
	for _, o := range opts {
		o(m)
	}
	m.logger = m.logger.Named("ui")

	ctrlOpts := []autocomplete.Option{
		autocomplete.WithNavigate(m.navigate),
		autocomplete.WithLogger(m.logger),
	}
	if m.bus != nil {
		ctrlOpts = append(ctrlOpts, autocomplete.WithBus(m.bus))
	}
	m.ctrl = autocomplete.New(coord, ctrlOpts...)
	m.renderer = views.NewRenderer(m.itemRenderer)

	ti := textinput.New()
	ti.Placeholder = "Search the docs"
	ti.Prompt = "› "
	ti.PromptStyle = m.renderer.Styles().Prompt
	ti.CharLimit = 200
	ti.Width = 60
	ti.SetValue(m.initial)
	m.input = ti

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = m.renderer.Styles().StatusLoading
	m.spinner = s

	return m
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.helpOps = NewHelpOps(p)
}

// Chosen returns the URL picked by the user, if any
func (m *Model) Chosen() string {
	return m.chosen
}

// Controller exposes the underlying state machine
func (m *Model) Controller() *autocomplete.Controller {
	return m.ctrl
}

// Init focuses the input and starts the first query when one is pending
func (m *Model) Init() tea.Cmd {
	if m.initial == "" {
		return tea.Batch(textinput.Blink, m.spinner.Tick, m.focus())
	}
	m.focused = true
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.input.Focus(), m.ctrl.TextChanged(m.initial))
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if msg.Width > 10 {
			m.input.Width = msg.Width - 10
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case coordinator.DebounceMsg, coordinator.ResultMsg:
		return m, m.ctrl.Update(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case helpPagerMsg:
		if msg.err != nil {
			m.logger.Error("help pager failed", zap.Error(msg.err))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		return m, m.fetchHelpPager(RenderHelpContent())

	case key.Matches(msg, m.keys.Up):
		cmd = m.ctrl.Key(autocomplete.KeyArrowUp)

	case key.Matches(msg, m.keys.Down):
		cmd = m.ctrl.Key(autocomplete.KeyArrowDown)

	case key.Matches(msg, m.keys.Choose):
		cmd = m.ctrl.Key(autocomplete.KeyEnter)

	case key.Matches(msg, m.keys.Close):
		if !m.ctrl.Render().State.IsOpen() {
			return m, tea.Quit
		}
		cmd = m.ctrl.Key(autocomplete.KeyEscape)

	case key.Matches(msg, m.keys.Focus):
		if m.focused {
			m.focused = false
			m.input.Blur()
			cmd = m.ctrl.Blur()
		} else {
			cmd = m.focus()
		}

	case key.Matches(msg, m.keys.Retry):
		cmd = m.ctrl.Retry()

	default:
		if !m.focused {
			return m, nil
		}
		before := m.input.Value()
		m.input, cmd = m.input.Update(msg)
		if after := m.input.Value(); after != before {
			cmd = tea.Batch(cmd, m.ctrl.TextChanged(after))
		}
	}

	if m.chosen != "" {
		return m, tea.Quit
	}
	return m, cmd
}

func (m *Model) focus() tea.Cmd {
	m.focused = true
	return tea.Batch(m.input.Focus(), m.ctrl.Focus())
}

func (m *Model) navigate(url string) {
	m.chosen = url
}

// View renders the UI
func (m *Model) View() string {
	return m.renderer.Render(views.ViewState{
		Width:       m.width,
		Height:      m.height,
		Input:       m.input.View(),
		Spinner:     m.spinner.View(),
		Focused:     m.focused,
		Instruction: m.ctrl.Render(),
		HelpLine:    m.help.View(m.keys),
	})
}

// fetchHelpPager returns a command that shows help using ov pager
func (m *Model) fetchHelpPager(helpContent string) tea.Cmd {
	if m.helpOps == nil {
		return nil
	}
	return func() tea.Msg {
		return helpPagerMsg{err: m.helpOps.ShowHelpInPager(helpContent)}
	}
}
