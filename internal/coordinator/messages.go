package coordinator

import "docsearch/internal/domain"

// DebounceMsg is delivered when a debounce timer fires
type DebounceMsg struct {
	Tag  uint64
	Text string
}

// ResultMsg carries one source's answer for one issued query
type ResultMsg struct {
	Seq      uint64
	SourceID string
	Items    []domain.ResultItem
	Err      error
}

// SourceFailure records a source that could not answer the active query
type SourceFailure struct {
	SourceID string
	Err      error
}

// Resolution is the joined outcome of every source for one query
type Resolution struct {
	Query     domain.Query
	Items     []domain.ResultItem
	Failures  []SourceFailure
	AllFailed bool
}

// FailedSources lists the IDs of failing sources
func (r Resolution) FailedSources() []string {
	ids := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		ids = append(ids, f.SourceID)
	}
	return ids
}
