package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreadcrumbsDecodesBothEncodings(t *testing.T) {
	var list Record
	require.NoError(t, json.Unmarshal([]byte(`{"breadcrumbs":["Payments","Create payment"]}`), &list))
	assert.Equal(t, Breadcrumbs{"Payments", "Create payment"}, list.Breadcrumbs)

	var joined Record
	require.NoError(t, json.Unmarshal([]byte(`{"breadcrumbs":"Payments › Create payment › Parameters"}`), &joined))
	assert.Equal(t, Breadcrumbs{"Payments", "Create payment", "Parameters"}, joined.Breadcrumbs)

	var empty Record
	require.NoError(t, json.Unmarshal([]byte(`{"breadcrumbs":""}`), &empty))
	assert.Empty(t, empty.Breadcrumbs)

	var bad Record
	assert.Error(t, json.Unmarshal([]byte(`{"breadcrumbs":42}`), &bad))
}

func TestRecordItemUsesParameterNameForParameters(t *testing.T) {
	rec := Record{
		Title:       "Parameter `amount.value`",
		Permalink:   "https://docs.example.com/payments/create",
		Content:     "A string containing the exact amount.",
		Breadcrumbs: Breadcrumbs{"Payments", "Create payment"},
		Type:        "parameter",
		Parameter:   "amount.value",
	}

	item := rec.Item("docs")
	assert.Equal(t, KindParameter, item.Kind)
	assert.Equal(t, "amount.value", item.Primary)
	assert.Equal(t, "docs", item.SourceID)
	assert.Equal(t, "Payments › Create payment", item.Trail())

	rec.Type = "text"
	item = rec.Item("docs")
	assert.Equal(t, KindTitle, item.Kind)
	assert.Equal(t, "Parameter `amount.value`", item.Primary)
}

func TestUnavailableWrapsOnce(t *testing.T) {
	err := Unavailable(errors.New("connection refused"))
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Same(t, err, Unavailable(err))
	assert.NoError(t, Unavailable(nil))

	var srcErr error = &SourceError{SourceID: "docs", Err: err}
	assert.ErrorIs(t, srcErr, ErrSourceUnavailable)
	assert.Contains(t, srcErr.Error(), `"docs"`)
}

func TestResultItemJSON(t *testing.T) {
	item := ResultItem{SourceID: "docs", Kind: KindParameter, Primary: "amount", URL: "https://docs.example.com/p"}
	data, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"docs","kind":"parameter","primary":"amount","url":"https://docs.example.com/p"}`, string(data))

	var back ResultItem
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, item, back)
}
