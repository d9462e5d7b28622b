package views

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLP(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$ 0"},
		{950, "$ 950"},
		{1000, "$ 1.000"},
		{500000, "$ 500.000"},
		{1250000, "$ 1.250.000"},
		{-20000, "$ -20.000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CLP(tt.in))
	}
}

func TestParse_RendersPages(t *testing.T) {
	tmpl, err := Parse()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = tmpl.ExecuteTemplate(&buf, "form", map[string]any{
		"Title":   "Nuevo cliente",
		"Action":  "/ui/customers",
		"Variant": "Corporate",
		"Values":  map[string]string{"name": "<b>Tienda</b>"},
		"Tiers":   []string{"Gold"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `name="tax_id"`)
	assert.Contains(t, buf.String(), "&lt;b&gt;Tienda&lt;/b&gt;")
	assert.NotContains(t, buf.String(), `name="credit_limit"`)
}
