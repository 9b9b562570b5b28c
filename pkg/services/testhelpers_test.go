package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bizinsight-api/pkg/models"
)

func newTable(header []string, rows ...[]string) *models.Table {
	t := &models.Table{Header: header}
	for i, cells := range rows {
		t.Rows = append(t.Rows, models.RawRow{Line: i + 2, Columns: header, Cells: cells})
	}
	return t
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func month(y int, m time.Month) models.CalendarMonth {
	return models.CalendarMonth{Year: y, Month: m}
}

func defaultAliasTables() []models.RoleAliases {
	return []models.RoleAliases{
		{Role: models.RoleDate, Required: true,
			Aliases:  []string{"order date", "date", "transaction date", "invoice date"},
			Keywords: []string{"date"}},
		{Role: models.RoleRevenue, Required: true,
			Aliases: []string{"sales", "revenue", "total sales", "amount", "total"}},
		{Role: models.RoleProduct,
			Aliases:  []string{"product name", "product", "item"},
			Keywords: []string{"product", "item", "sku"}},
		{Role: models.RoleRegion,
			Aliases:  []string{"region", "territory"},
			Keywords: []string{"region"}},
	}
}

func defaultNormalizer() *SchemaNormalizer {
	return NewSchemaNormalizer(defaultAliasTables(), NormalizerOptions{
		Threshold:            0.75,
		NumericFallbackRatio: 0.8,
		NumericSampleSize:    50,
		IdentifierTokens:     []string{"id", "code", "zip", "postal", "phone"},
	})
}
