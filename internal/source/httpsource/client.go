// Package httpsource queries an Algolia-compatible search API over HTTP.
package httpsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"docsearch/internal/domain"
	"docsearch/internal/source"
)

const defaultTimeout = 10 * time.Second

// QueryRequest is the body of POST /1/indexes/{index}/query
type QueryRequest struct {
	Query       string `json:"query"`
	HitsPerPage int    `json:"hitsPerPage"`
}

// QueryResponse is the subset of the search response the client reads
type QueryResponse struct {
	Hits   []Hit  `json:"hits"`
	NbHits int    `json:"nbHits"`
	Query  string `json:"query"`
}

// Hit is one record as returned by the search API
type Hit struct {
	domain.Record
	SnippetResult map[string]Snippet `json:"_snippetResult,omitempty"`
}

// Snippet is a highlighted excerpt of one attribute
type Snippet struct {
	Value string `json:"value"`
}

// Config configures a Client
type Config struct {
	BaseURL   string
	Index     string
	AppID     string
	APIKey    string
	RateLimit float64 // requests per second, 0 = unlimited
	Timeout   time.Duration
}

// Client is a QuerySource backed by a remote index
type Client struct {
	id       string
	endpoint string
	appID    string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
}

// New creates a client attributing items to id
func New(id string, cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("source %q: url is required", id)
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("source %q: index is required", id)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("source %q: invalid url: %w", id, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		id:       id,
		endpoint: base.JoinPath("1", "indexes", cfg.Index, "query").String(),
		appID:    cfg.AppID,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c, nil
}

// Fetch implements source.QuerySource
func (c *Client) Fetch(ctx context.Context, query string, pageSize int) ([]domain.ResultItem, error) {
	if pageSize <= 0 {
		pageSize = source.DefaultPageSize
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, domain.Unavailable(fmt.Errorf("rate limit: %w", err))
		}
	}

	body, err := json.Marshal(QueryRequest{Query: query, HitsPerPage: pageSize})
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.appID != "" {
		req.Header.Set("X-Algolia-Application-Id", c.appID)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Algolia-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.Unavailable(fmt.Errorf("querying %s: %w", c.endpoint, err))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var out QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, domain.Unavailable(fmt.Errorf("decoding response: %w", err))
	}

	items := make([]domain.ResultItem, 0, len(out.Hits))
	for _, hit := range out.Hits {
		item := hit.Record.Item(c.id)
		if snip, ok := hit.SnippetResult["content"]; ok && snip.Value != "" {
			item.Snippet = stripMarks(snip.Value)
		}
		items = append(items, item)
	}
	return items, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))

	// 400 and 422 reject the query itself; anything else is a backend failure
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	return domain.Unavailable(err)
}

var markReplacer = strings.NewReplacer("<em>", "", "</em>", "", "<mark>", "", "</mark>", "")

// stripMarks removes server-side highlight tags; highlighting is the renderer's job
func stripMarks(s string) string {
	return markReplacer.Replace(s)
}
