package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderTokens(t *testing.T) {
	assert.Equal(t, []string{"order", "date"}, headerTokens("Order Date"))
	assert.Equal(t, []string{"order", "date"}, headerTokens("order_date"))
	assert.Equal(t, []string{"order", "date"}, headerTokens("OrderDate"))
	assert.Equal(t, []string{"sale"}, headerTokens("SALES"))
	assert.Equal(t, []string{"category"}, headerTokens("Categories"))
	assert.Equal(t, []string{"region"}, headerTokens("Régión"))
	assert.Equal(t, []string{"status"}, headerTokens("Status"))
}

func TestHeaderSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"Order Date", "order date", 1, 1},
		{"order-date", "Order Date", 1, 1},
		{"Sales", "sale", 1, 1},
		{"Product Name", "product name", 1, 1},
		{"Revenu", "revenue", 0.8, 0.9},
		{"Sales Rep", "sales", 0, 0.75},
		{"Unit Price", "sales", 0, 0.5},
		{"Customer ID", "date", 0, 0.3},
	}
	for _, tt := range tests {
		got := headerSimilarity(tt.a, tt.b)
		assert.GreaterOrEqual(t, got, tt.min, "%s vs %s", tt.a, tt.b)
		assert.LessOrEqual(t, got, tt.max, "%s vs %s", tt.a, tt.b)
	}
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("abc", "abc"))
	assert.Equal(t, 3, levenshteinDistance("", "abc"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
}

func TestHasToken(t *testing.T) {
	assert.True(t, hasToken("Invoice Date", "date"))
	assert.True(t, hasToken("Item Description", "item"))
	assert.False(t, hasToken("Updated", "date"))
}
