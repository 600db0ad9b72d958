// Package coordinator turns a stream of query edits into at most one
// authoritative in-flight query and joins the per-source answers for it.
//
// A Coordinator is not safe for concurrent use. It is meant to be driven from
// a single bubbletea Update loop: timers and fetches run as tea.Cmds and come
// back as DebounceMsg and ResultMsg values.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"docsearch/internal/domain"
	"docsearch/internal/eventbus"
	"docsearch/internal/source"
)

// DefaultDelay is the debounce interval used when none is configured
const DefaultDelay = 150 * time.Millisecond

// Ticker schedules a single-shot timer message. tea.Tick satisfies it.
type Ticker func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

// Option configures a Coordinator
type Option func(*Coordinator)

// WithDelay sets the debounce interval; zero fires on the next message
func WithDelay(d time.Duration) Option {
	return func(c *Coordinator) { c.delay = d }
}

// WithFetchTimeout bounds every fetch of an issued query
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithTicker replaces tea.Tick, mainly for tests
func WithTicker(t Ticker) Option {
	return func(c *Coordinator) { c.tick = t }
}

// WithLogger sets the logger for issue, drop and failure records
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithBus publishes pipeline events on b
func WithBus(b eventbus.EventBus) Option {
	return func(c *Coordinator) { c.bus = b }
}

type outcome struct {
	items []domain.ResultItem
	err   error
}

// Coordinator owns debounce timing, sequence numbers and staleness checks
type Coordinator struct {
	sources []source.Descriptor
	delay   time.Duration
	timeout time.Duration
	tick    Ticker
	logger  *zap.Logger
	bus     eventbus.EventBus

	tag      uint64 // current debounce generation
	seq      uint64 // active sequence
	active   domain.Query
	outcomes map[string]outcome // nil when nothing is in flight
	resolved bool
	cancel   context.CancelFunc
}

// New creates a coordinator over sources
func New(sources []source.Descriptor, opts ...Option) (*Coordinator, error) {
	if len(sources) == 0 {
		return nil, errors.New("at least one source is required")
	}

	seen := make(map[string]bool, len(sources))
	normalized := make([]source.Descriptor, 0, len(sources))
	for _, d := range sources {
		nd, err := d.Normalize()
		if err != nil {
			return nil, err
		}
		if seen[nd.ID] {
			return nil, fmt.Errorf("duplicate source id %q", nd.ID)
		}
		seen[nd.ID] = true
		normalized = append(normalized, nd)
	}

	c := &Coordinator{
		sources: normalized,
		delay:   DefaultDelay,
		tick:    tea.Tick,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.Named("coordinator")
	return c, nil
}

// Sources returns the normalized descriptors
func (c *Coordinator) Sources() []source.Descriptor {
	return c.sources
}

// Active returns the most recently issued query
func (c *Coordinator) Active() domain.Query {
	return c.active
}

// Sequence returns the active sequence number
func (c *Coordinator) Sequence() uint64 {
	return c.seq
}

// Loading reports whether the active query still waits for sources
func (c *Coordinator) Loading() bool {
	return c.outcomes != nil && !c.resolved
}

// Submit restarts the debounce timer for text. Any earlier pending submit is
// abandoned: its timer still fires but HandleDebounce ignores it.
func (c *Coordinator) Submit(text string) tea.Cmd {
	c.tag++
	tag := c.tag
	fire := func(time.Time) tea.Msg { return DebounceMsg{Tag: tag, Text: text} }

	if c.delay <= 0 {
		return func() tea.Msg { return fire(time.Now()) }
	}
	return c.tick(c.delay, fire)
}

// HandleDebounce issues the query of the latest submit. It reports false for
// abandoned timers.
func (c *Coordinator) HandleDebounce(msg DebounceMsg) (domain.Query, tea.Cmd, bool) {
	if msg.Tag != c.tag {
		return domain.Query{}, nil, false
	}
	// consume the tag so a duplicate delivery cannot issue twice
	c.tag++
	q, cmd := c.issue(msg.Text)
	return q, cmd, true
}

// IssueNow skips the debounce and issues text immediately
func (c *Coordinator) IssueNow(text string) (domain.Query, tea.Cmd) {
	c.tag++
	return c.issue(text)
}

// Cancel abandons the pending debounce and the in-flight query. The sequence
// advances so any answer still on its way is treated as stale.
func (c *Coordinator) Cancel() {
	c.tag++
	c.release()
	c.seq++
	c.outcomes = nil
	c.resolved = false

	c.logger.Debug("query canceled", zap.Uint64("seq", c.seq))
	c.publish(domain.QueryCanceledEvent{Seq: c.seq})
}

// issue assigns the next sequence before any fetch runs
func (c *Coordinator) issue(text string) (domain.Query, tea.Cmd) {
	c.release()

	c.seq++
	q := domain.Query{Text: text, Seq: c.seq}
	c.active = q
	c.outcomes = make(map[string]outcome, len(c.sources))
	c.resolved = false

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	ids := make([]string, 0, len(c.sources))
	cmds := make([]tea.Cmd, 0, len(c.sources))
	for _, d := range c.sources {
		ids = append(ids, d.ID)
		if err := d.Validate(text); err != nil {
			cmds = append(cmds, rejected(q, d.ID, err))
			continue
		}
		cmds = append(cmds, c.fetch(ctx, d, q))
	}

	c.logger.Debug("query issued", zap.Uint64("seq", q.Seq), zap.String("query", q.Text), zap.Strings("sources", ids))
	c.publish(domain.QueryIssuedEvent{Query: q, Sources: ids})

	return q, tea.Batch(cmds...)
}

func rejected(q domain.Query, sourceID string, err error) tea.Cmd {
	return func() tea.Msg {
		return ResultMsg{Seq: q.Seq, SourceID: sourceID, Err: err}
	}
}

func (c *Coordinator) fetch(ctx context.Context, d source.Descriptor, q domain.Query) tea.Cmd {
	timeout := c.timeout
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = ResultMsg{Seq: q.Seq, SourceID: d.ID, Err: domain.Unavailable(fmt.Errorf("source panicked: %v", r))}
			}
		}()

		fctx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		items, err := d.Source.Fetch(fctx, q.Text, d.PageSize)
		return ResultMsg{Seq: q.Seq, SourceID: d.ID, Items: items, Err: err}
	}
}

// HandleResult records one source's answer. It reports a Resolution once every
// source of the active query has answered; answers for any other sequence are
// dropped silently.
func (c *Coordinator) HandleResult(msg ResultMsg) (Resolution, bool) {
	if msg.Seq != c.seq || c.outcomes == nil || c.resolved {
		c.logger.Debug("stale response dropped",
			zap.String("source", msg.SourceID), zap.Uint64("seq", msg.Seq), zap.Uint64("active", c.seq))
		c.publish(domain.StaleResponseDroppedEvent{SourceID: msg.SourceID, Seq: msg.Seq, Active: c.seq})
		return Resolution{}, false
	}
	if !c.known(msg.SourceID) {
		c.logger.Warn("response from unknown source", zap.String("source", msg.SourceID))
		return Resolution{}, false
	}
	if _, dup := c.outcomes[msg.SourceID]; dup {
		return Resolution{}, false
	}

	c.outcomes[msg.SourceID] = outcome{items: msg.Items, err: msg.Err}
	if msg.Err != nil && !errors.Is(msg.Err, domain.ErrInvalidQuery) {
		c.logger.Warn("source failed",
			zap.String("source", msg.SourceID), zap.Uint64("seq", msg.Seq), zap.Error(msg.Err))
		c.publish(domain.SourceFailedEvent{SourceID: msg.SourceID, Seq: msg.Seq, Err: msg.Err})
	}

	if len(c.outcomes) < len(c.sources) {
		return Resolution{}, false
	}

	res := c.resolve()
	c.resolved = true
	c.release()

	c.logger.Debug("results applied",
		zap.Uint64("seq", res.Query.Seq), zap.Int("items", len(res.Items)), zap.Int("failures", len(res.Failures)))
	c.publish(domain.ResultsAppliedEvent{
		Query:     res.Query,
		Count:     len(res.Items),
		Failed:    res.FailedSources(),
		AllFailed: res.AllFailed,
	})
	return res, true
}

// resolve joins the outcomes in configured source order
func (c *Coordinator) resolve() Resolution {
	res := Resolution{Query: c.active}
	for _, d := range c.sources {
		o := c.outcomes[d.ID]
		switch {
		case o.err == nil:
			res.Items = append(res.Items, o.items...)
		case errors.Is(o.err, domain.ErrInvalidQuery):
			// no results, not an error
		default:
			res.Failures = append(res.Failures, SourceFailure{
				SourceID: d.ID,
				Err:      &domain.SourceError{SourceID: d.ID, Err: domain.Unavailable(o.err)},
			})
		}
	}
	res.AllFailed = len(res.Failures) == len(c.sources)
	return res
}

func (c *Coordinator) known(id string) bool {
	for _, d := range c.sources {
		if d.ID == id {
			return true
		}
	}
	return false
}

// release cancels the context of the current query's fetches
func (c *Coordinator) release() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Coordinator) publish(e domain.DomainEvent) {
	if c.bus != nil {
		c.bus.Publish(e)
	}
}
