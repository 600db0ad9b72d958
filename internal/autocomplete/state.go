package autocomplete

import (
	"docsearch/internal/coordinator"
	"docsearch/internal/domain"
)

// Status is the controller's visible state
type Status int

const (
	StatusClosed Status = iota
	StatusLoading
	StatusResults
	StatusNoResults
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "open/loading"
	case StatusResults:
		return "open/results"
	case StatusNoResults:
		return "open/no-results"
	case StatusError:
		return "open/error"
	default:
		return "closed"
	}
}

// IsOpen reports whether the result panel is shown
func (s Status) IsOpen() bool {
	return s != StatusClosed
}

// Key is the subset of keys the controller reacts to
type Key int

const (
	KeyArrowUp Key = iota
	KeyArrowDown
	KeyEnter
	KeyEscape
)

// NoSelection is the Selected value when no item is highlighted
const NoSelection = -1

// SourceFailure re-exports the coordinator's failure record
type SourceFailure = coordinator.SourceFailure

// SessionState is owned and mutated by the Controller only
type SessionState struct {
	Query          string
	ActiveSequence uint64
	Items          []domain.ResultItem
	Selected       int
	Status         Status
	Loading        bool
	Failures       []SourceFailure
}

// Open reports whether the result panel is shown
func (s SessionState) Open() bool {
	return s.Status.IsOpen()
}

// RenderInstruction is what the host draws after every transition
type RenderInstruction struct {
	State     Status
	Items     []domain.ResultItem
	Selected  int
	QueryText string
	Loading   bool
	Failures  []SourceFailure
}

// HasSelection reports whether an item is highlighted
func (r RenderInstruction) HasSelection() bool {
	return r.Selected >= 0 && r.Selected < len(r.Items)
}

// PartialFailure reports whether some sources failed while others answered
func (r RenderInstruction) PartialFailure() bool {
	return r.State != StatusError && len(r.Failures) > 0
}

// FailedSources lists the IDs of the failing sources
func (r RenderInstruction) FailedSources() []string {
	ids := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		ids = append(ids, f.SourceID)
	}
	return ids
}
