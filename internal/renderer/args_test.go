package renderer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONKeepsNumbers(t *testing.T) {
	var args map[string]any
	require.NoError(t, DecodeJSON([]byte(`{
		"count": 1000000,
		"negative": -42,
		"price": 19.99,
		"exp": 1e3,
		"huge": 12345678901234567890,
		"nested": {"ids": [1, 2.5]}
	}`), &args))

	args = NormalizeArgs(args)
	assert.Equal(t, int64(1000000), args["count"])
	assert.Equal(t, int64(-42), args["negative"])
	assert.Equal(t, 19.99, args["price"])
	assert.Equal(t, float64(1000), args["exp"])
	assert.Equal(t, json.Number("12345678901234567890"), args["huge"])
	assert.Equal(t, map[string]any{"ids": []any{int64(1), 2.5}}, args["nested"])
}

func TestDecodeJSONRejectsTrailingData(t *testing.T) {
	var args map[string]any
	assert.Error(t, DecodeJSON([]byte(`{"a":1} {"b":2}`), &args))
	assert.Error(t, DecodeJSON([]byte(`{"a":1}x`), &args))
	assert.NoError(t, DecodeJSON([]byte(" {\"a\":1}\n"), &args))
}

func TestNormalizeArgsNil(t *testing.T) {
	assert.Nil(t, NormalizeArgs(nil))
}

func TestRenderIntegerArgsVerbatim(t *testing.T) {
	d := newDispatcher(t, map[string]string{
		"components/counter.gohtml": `<span>{{ .count }}</span>{{ if gt .count 5 }}<b>many</b>{{ end }}`,
	})

	var args map[string]any
	require.NoError(t, DecodeJSON([]byte(`{"count":1000000}`), &args))

	html := d.Render(context.Background(), "components.counter", NormalizeArgs(args), nil)
	assert.Contains(t, html, "<span>1000000</span>")
	assert.Contains(t, html, "<b>many</b>")
}

func TestFallbackCardKeepsLargeIntegers(t *testing.T) {
	d := newDispatcher(t, nil)

	var args map[string]any
	require.NoError(t, DecodeJSON([]byte(`{"id":12345678901234567890}`), &args))

	html := d.Render(context.Background(), "components.missing", NormalizeArgs(args), nil)
	assert.Contains(t, html, "12345678901234567890")
	assert.NotContains(t, html, "12345678901234567000")
}
