package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"docsearch/internal/domain"
)

// Static searches an in-memory set of records
type Static struct {
	id      string
	records []domain.Record
}

// NewStatic creates a source over records, attributing items to id
func NewStatic(id string, records []domain.Record) *Static {
	return &Static{id: id, records: records}
}

// LoadRecords reads a JSON array of records, as written by the indexer
func LoadRecords(path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}

	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse records file %s: %w", path, err)
	}
	return records, nil
}

type staticMatch struct {
	record domain.Record
	score  int
}

// Fetch matches every term case-insensitively. Primary text hits rank ahead of
// breadcrumb and content hits; ties keep record order.
func (s *Static) Fetch(ctx context.Context, query string, pageSize int) ([]domain.ResultItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := Terms(query)
	var matches []staticMatch
	for _, rec := range s.records {
		score, ok := scoreRecord(rec, terms)
		if ok {
			matches = append(matches, staticMatch{record: rec, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].record.Depth < matches[j].record.Depth
	})

	if pageSize > 0 && len(matches) > pageSize {
		matches = matches[:pageSize]
	}

	items := make([]domain.ResultItem, 0, len(matches))
	for _, m := range matches {
		items = append(items, m.record.Item(s.id))
	}
	return items, nil
}

func scoreRecord(rec domain.Record, terms []string) (int, bool) {
	primary := strings.ToLower(rec.Title + " " + rec.Parameter)
	trail := strings.ToLower(strings.Join(rec.Breadcrumbs, " "))
	content := strings.ToLower(rec.Content)

	score := 0
	for _, term := range terms {
		switch {
		case strings.Contains(primary, term):
			score += 3
		case strings.Contains(trail, term):
			score += 2
		case strings.Contains(content, term):
			score++
		default:
			return 0, false
		}
	}
	return score, true
}
