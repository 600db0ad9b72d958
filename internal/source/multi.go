package source

import (
	"context"

	"golang.org/x/sync/errgroup"

	"docsearch/internal/domain"
)

// Multi aggregates several indexes behind one source. Results keep the
// configured index order; any failing index fails the whole source.
type Multi struct {
	parts []QuerySource
}

// NewMulti creates an aggregate over parts
func NewMulti(parts ...QuerySource) *Multi {
	return &Multi{parts: parts}
}

func (m *Multi) Fetch(ctx context.Context, query string, pageSize int) ([]domain.ResultItem, error) {
	if len(m.parts) == 1 {
		return m.parts[0].Fetch(ctx, query, pageSize)
	}

	results := make([][]domain.ResultItem, len(m.parts))
	g, gctx := errgroup.WithContext(ctx)
	for i, part := range m.parts {
		g.Go(func() error {
			items, err := part.Fetch(gctx, query, pageSize)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []domain.ResultItem
	for _, items := range results {
		merged = append(merged, items...)
	}
	if pageSize > 0 && len(merged) > pageSize {
		merged = merged[:pageSize]
	}
	return merged, nil
}
