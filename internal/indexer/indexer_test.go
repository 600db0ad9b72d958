package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/domain"
)

const createPaymentPage = `<!DOCTYPE html>
<html>
<body>
<div class="content">
  <div class="section">
    <h1>Create payment<a class="headerlink" href="#">¶</a></h1>
    <p>Creates a payment. <span class="api-name__beta">BETA</span></p>
    <div class="admonition warning">
      <p class="admonition-title">Warning</p>
      <p>Amounts are strings.</p>
    </div>
    <div class="section">
      <h2>Parameters</h2>
      <p>Send these as JSON.</p>
      <div class="parameter">
        <div class="parameter__name"><code>amount</code></div>
        <div class="parameter__description"><p>The amount to charge.</p></div>
        <p class="parameter__children-button">Show child parameters</p>
        <div class="parameter__children">
          <div class="parameter">
            <div class="parameter__name"><code>value</code></div>
            <div class="parameter__description"><p>A string with the exact amount.</p></div>
          </div>
        </div>
      </div>
    </div>
  </div>
</div>
</body>
</html>
`

func testIndexer() *Indexer {
	return New(Options{
		BaseURL: "https://docs.example.com/",
		Exclude: []string{"/reference/v1/"},
		Areas:   []Area{{Match: "/payments/", Name: "Payments"}},
	}, nil)
}

func TestURLFor(t *testing.T) {
	base := "https://docs.example.com/"
	assert.Equal(t, base+"payments/create", URLFor(base, "html/payments/create.html"))
	assert.Equal(t, base+"payments/create", URLFor(base, "payments/create.html"))
	assert.Equal(t, base, URLFor(base, "index.html"))
	assert.Equal(t, base+"guides/index", URLFor(base, "guides/index.html"))
}

func TestParsePage(t *testing.T) {
	records, err := testIndexer().Parse(strings.NewReader(createPaymentPage), "html/payments/create.html")
	require.NoError(t, err)
	require.Len(t, records, 4)

	intro := records[0]
	assert.Equal(t, "text", intro.Type)
	assert.Equal(t, "Create payment", intro.Title)
	assert.Equal(t, "https://docs.example.com/payments/create", intro.Permalink)
	assert.Empty(t, intro.Section)
	assert.Equal(t, domain.Breadcrumbs{"Payments", "Create payment"}, intro.Breadcrumbs)
	assert.Contains(t, intro.Content, "Creates a payment.")
	assert.NotContains(t, intro.Content, "BETA")
	assert.NotContains(t, intro.Content, "¶")
	assert.Contains(t, intro.Content, "Warning:")
	assert.Contains(t, intro.Content, "Amounts are strings.")
	assert.NotContains(t, intro.Content, "Send these as JSON.", "nested sections are indexed separately")
	assert.Equal(t, 0, intro.Depth)

	params := records[1]
	assert.Equal(t, "Parameters", params.Section)
	assert.Equal(t, "Send these as JSON.", params.Content)
	assert.Equal(t, domain.Breadcrumbs{"Payments", "Create payment", "Parameters"}, params.Breadcrumbs)
	assert.Equal(t, 1, params.Depth)

	amount := records[2]
	assert.Equal(t, "parameter", amount.Type)
	assert.Equal(t, "amount", amount.Parameter)
	assert.Equal(t, "Parameter `amount`", amount.Title)
	assert.Equal(t, "The amount to charge.", amount.Content)
	assert.Equal(t, 2, amount.Depth)

	value := records[3]
	assert.Equal(t, "amount.value", value.Parameter)
	assert.Equal(t, "A string with the exact amount.", value.Content)
	assert.Equal(t, 3, value.Depth)

	ids := map[string]bool{}
	for _, r := range records {
		ids[r.ObjectID] = true
	}
	assert.Len(t, ids, 4, "object ids are unique")
}

func TestParseSkipsNonPages(t *testing.T) {
	ix := testIndexer()

	recs, err := ix.Parse(strings.NewReader("<html><body><div class=\"content\"><h1>x</h1></div></body></html>"), "a.html")
	require.NoError(t, err)
	assert.Empty(t, recs, "missing doctype")

	recs, err = ix.Parse(strings.NewReader("<!DOCTYPE html>\n<html><body><p>no content</p></body></html>"), "b.html")
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = ix.Parse(strings.NewReader("<!DOCTYPE html>\n<div class=\"content\"><p>no title</p></div>"), "c.html")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestWalkHonoursExcludes(t *testing.T) {
	root := t.TempDir()
	write := func(rel, body string) {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	write("html/payments/create.html", createPaymentPage)
	write("html/reference/v1/payments.html", createPaymentPage)
	write("html/_static/app.js", "console.log('x')")

	records, err := testIndexer().Walk(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, records, 4)
	for _, r := range records {
		assert.Equal(t, "https://docs.example.com/payments/create", r.Permalink)
	}
}

func TestWalkStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testIndexer().Walk(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
