package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BreadcrumbSeparator joins breadcrumbs for display and for the legacy string encoding
const BreadcrumbSeparator = " › "

// Kind tags the layout a result item is rendered with
type Kind int

const (
	KindTitle Kind = iota
	KindParameter
)

func (k Kind) String() string {
	switch k {
	case KindParameter:
		return "parameter"
	default:
		return "title"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	*k = KindFromType(string(text))
	return nil
}

// KindFromType maps an index record type to an item kind
func KindFromType(recordType string) Kind {
	if recordType == "parameter" {
		return KindParameter
	}
	return KindTitle
}

// Query is a query text stamped with the sequence number it was issued under
type Query struct {
	Text string
	Seq  uint64
}

// ResultItem represents a single search match as shown to the user
type ResultItem struct {
	SourceID    string   `json:"source"`
	ObjectID    string   `json:"objectID,omitempty"`
	Kind        Kind     `json:"kind"`
	Primary     string   `json:"primary"`               // title, or parameter name for KindParameter
	Snippet     string   `json:"snippet,omitempty"`     // content excerpt
	Breadcrumbs []string `json:"breadcrumbs,omitempty"` // area › page › section
	URL         string   `json:"url"`                   // navigation target
}

// Trail returns the breadcrumbs joined for display
func (i ResultItem) Trail() string {
	return strings.Join(i.Breadcrumbs, BreadcrumbSeparator)
}

// Breadcrumbs decodes from either a JSON array or a single joined string
type Breadcrumbs []string

func (b *Breadcrumbs) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*b = list
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return fmt.Errorf("breadcrumbs must be a string or a list of strings: %w", err)
	}
	if joined == "" {
		*b = nil
		return nil
	}
	*b = strings.Split(joined, BreadcrumbSeparator)
	return nil
}

// Record is one indexed document section or parameter
type Record struct {
	ObjectID    string      `json:"objectID,omitempty"`
	Title       string      `json:"title"`
	Permalink   string      `json:"permalink"`
	Section     string      `json:"section,omitempty"`
	Content     string      `json:"content"`
	Breadcrumbs Breadcrumbs `json:"breadcrumbs"`
	Type        string      `json:"type"`
	Parameter   string      `json:"parameter,omitempty"`
	Depth       int         `json:"depth"`
}

// Item converts the record into a result item attributed to sourceID
func (r Record) Item(sourceID string) ResultItem {
	kind := KindFromType(r.Type)
	primary := r.Title
	if kind == KindParameter && r.Parameter != "" {
		primary = r.Parameter
	}

	return ResultItem{
		SourceID:    sourceID,
		ObjectID:    r.ObjectID,
		Kind:        kind,
		Primary:     primary,
		Snippet:     r.Content,
		Breadcrumbs: append([]string(nil), r.Breadcrumbs...),
		URL:         r.Permalink,
	}
}
