package httpsource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/autocomplete"
	"docsearch/internal/coordinator"
	"docsearch/internal/domain"
	"docsearch/internal/source"
)

func TestFetchSendsQueryAndMapsHits(t *testing.T) {
	var got QueryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/1/indexes/docs/query", r.URL.Path)
		assert.Equal(t, "APP", r.Header.Get("X-Algolia-Application-Id"))
		assert.Equal(t, "KEY", r.Header.Get("X-Algolia-API-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits":[
			{"objectID":"1","title":"Authentication","permalink":"https://docs.example.com/auth","content":"Use an API key.","breadcrumbs":"Overview › Authentication","type":"text",
			 "_snippetResult":{"content":{"value":"Use an <em>API</em> key."}}},
			{"objectID":"2","title":"Parameter ` + "`amount`" + `","permalink":"https://docs.example.com/payments","content":"An amount object.","breadcrumbs":["Payments"],"type":"parameter","parameter":"amount"}
		],"nbHits":2,"query":"auth"}`))
	}))
	defer srv.Close()

	c, err := New("docs", Config{BaseURL: srv.URL + "/", Index: "docs", AppID: "APP", APIKey: "KEY"})
	require.NoError(t, err)

	items, err := c.Fetch(context.Background(), "auth", 5)
	require.NoError(t, err)
	assert.Equal(t, QueryRequest{Query: "auth", HitsPerPage: 5}, got)

	require.Len(t, items, 2)
	assert.Equal(t, "Authentication", items[0].Primary)
	assert.Equal(t, "Use an API key.", items[0].Snippet)
	assert.Equal(t, []string{"Overview", "Authentication"}, items[0].Breadcrumbs)
	assert.Equal(t, "docs", items[0].SourceID)
	assert.Equal(t, domain.KindParameter, items[1].Kind)
	assert.Equal(t, "amount", items[1].Primary)
}

func TestFetchClassifiesFailures(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusBadRequest)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"nope"}`, int(status.Load()))
	}))
	defer srv.Close()

	c, err := New("docs", Config{BaseURL: srv.URL, Index: "docs"})
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)

	status.Store(http.StatusUnprocessableEntity)
	_, err = c.Fetch(context.Background(), "auth", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)

	for _, code := range []int{
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusTooManyRequests,
		http.StatusServiceUnavailable,
	} {
		status.Store(int32(code))
		_, err = c.Fetch(context.Background(), "auth", 10)
		assert.ErrorIs(t, err, domain.ErrSourceUnavailable, "status %d", code)
		assert.NotErrorIs(t, err, domain.ErrInvalidQuery, "status %d", code)
	}
}

func TestBackendRejectionShowsErrorState(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"message":"denied"}`, code)
			}))
			defer srv.Close()

			client, err := New("docs", Config{BaseURL: srv.URL, Index: "docs"})
			require.NoError(t, err)
			coord, err := coordinator.New([]source.Descriptor{source.NewDescriptor("docs", client)}, coordinator.WithDelay(0))
			require.NoError(t, err)

			c := autocomplete.New(coord)
			c.Resolve(c.TextChanged("auth"))

			r := c.Render()
			assert.Equal(t, autocomplete.StatusError, r.State)
			assert.Equal(t, []string{"docs"}, r.FailedSources())
		})
	}
}

func TestFetchUnreachableServerIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, err := New("docs", Config{BaseURL: addr, Index: "docs", Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "auth", 10)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestFetchReturnsContextErrorWhenCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := New("docs", Config{BaseURL: srv.URL, Index: "docs", RateLimit: 100})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Fetch(ctx, "auth", 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New("docs", Config{Index: "docs"})
	assert.Error(t, err)

	_, err = New("docs", Config{BaseURL: "http://localhost"})
	assert.Error(t, err)
}
