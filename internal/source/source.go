// Package source defines the providers the search pipeline queries and the
// bundled in-process implementations.
package source

import (
	"context"
	"fmt"
	"strings"

	"docsearch/internal/domain"
)

// DefaultPageSize is the number of items requested when a descriptor does not set one
const DefaultPageSize = 10

// QuerySource produces ranked results for a query. Implementations return
// errors matching domain.ErrSourceUnavailable or domain.ErrInvalidQuery.
type QuerySource interface {
	Fetch(ctx context.Context, query string, pageSize int) ([]domain.ResultItem, error)
}

// QueryFunc adapts a function to QuerySource
type QueryFunc func(ctx context.Context, query string, pageSize int) ([]domain.ResultItem, error)

func (f QueryFunc) Fetch(ctx context.Context, query string, pageSize int) ([]domain.ResultItem, error) {
	return f(ctx, query, pageSize)
}

// Descriptor identifies one configured source
type Descriptor struct {
	ID          string
	OpenOnFocus bool
	PageSize    int
	Source      QuerySource
}

// NewDescriptor creates a descriptor with the default page size
func NewDescriptor(id string, src QuerySource) Descriptor {
	return Descriptor{ID: id, PageSize: DefaultPageSize, Source: src}
}

// Normalize fills in defaults and reports configuration errors
func (d Descriptor) Normalize() (Descriptor, error) {
	if d.ID == "" {
		return d, fmt.Errorf("source id is required")
	}
	if d.Source == nil {
		return d, fmt.Errorf("source %q has no query source", d.ID)
	}
	if d.PageSize <= 0 {
		d.PageSize = DefaultPageSize
	}
	return d, nil
}

// Validate rejects blank text unless the source opens on focus
func (d Descriptor) Validate(text string) error {
	if strings.TrimSpace(text) == "" && !d.OpenOnFocus {
		return &domain.SourceError{SourceID: d.ID, Err: domain.ErrInvalidQuery}
	}
	return nil
}

// Terms splits query text into lower-cased search terms
func Terms(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
