package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventQueryIssued          EventType = "QueryIssued"
	EventResultsApplied       EventType = "ResultsApplied"
	EventStaleResponseDropped EventType = "StaleResponseDropped"
	EventSourceFailed         EventType = "SourceFailed"
	EventQueryCanceled        EventType = "QueryCanceled"
	EventNavigated            EventType = "Navigated"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// QueryIssuedEvent is emitted when a debounced query is sent to the sources
type QueryIssuedEvent struct {
	Query   Query
	Sources []string
}

func (e QueryIssuedEvent) Type() EventType { return EventQueryIssued }

// ResultsAppliedEvent is emitted when a complete result set replaces the item list
type ResultsAppliedEvent struct {
	Query     Query
	Count     int
	Failed    []string // sources that failed while siblings answered
	AllFailed bool
}

func (e ResultsAppliedEvent) Type() EventType { return EventResultsApplied }

// StaleResponseDroppedEvent is emitted when a response for a superseded query arrives
type StaleResponseDroppedEvent struct {
	SourceID string
	Seq      uint64
	Active   uint64
}

func (e StaleResponseDroppedEvent) Type() EventType { return EventStaleResponseDropped }

// SourceFailedEvent is emitted when a source of the active query fails
type SourceFailedEvent struct {
	SourceID string
	Seq      uint64
	Err      error
}

func (e SourceFailedEvent) Type() EventType { return EventSourceFailed }

// QueryCanceledEvent is emitted when pending or in-flight work is abandoned
type QueryCanceledEvent struct {
	Seq uint64
}

func (e QueryCanceledEvent) Type() EventType { return EventQueryCanceled }

// NavigatedEvent is emitted when the user chooses a result
type NavigatedEvent struct {
	URL  string
	Item ResultItem
}

func (e NavigatedEvent) Type() EventType { return EventNavigated }
