package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizinsight-api/pkg/models"
)

func sampleRows(t *testing.T) []models.CleanedRow {
	return []models.CleanedRow{
		{Date: day(2024, time.March, 2), Revenue: dec(t, "50"), Product: "B", Region: "East"},
		{Date: day(2024, time.January, 5), Revenue: dec(t, "100.25"), Product: "A", Region: "West"},
		{Date: day(2024, time.January, 28), Revenue: dec(t, "-20.25"), Product: "B", Region: "West"},
		{Date: day(2023, time.December, 31), Revenue: dec(t, "10"), Product: "C"},
		{Date: day(2024, time.March, 15), Revenue: dec(t, "30"), Product: ""},
	}
}

func TestMonthlyGroupsSortsAndDoesNotFillGaps(t *testing.T) {
	monthly := NewTimeAggregator().Monthly(sampleRows(t))
	require.Len(t, monthly, 3)

	assert.Equal(t, month(2023, time.December), monthly[0].Month)
	assert.Equal(t, month(2024, time.January), monthly[1].Month)
	assert.Equal(t, month(2024, time.March), monthly[2].Month)

	assert.True(t, monthly[1].TotalRevenue.Equal(dec(t, "80")))
	assert.Equal(t, 2, monthly[1].Orders)
	assert.True(t, monthly[2].TotalRevenue.Equal(dec(t, "80")))
}

func TestMonthlyIsIdempotent(t *testing.T) {
	ta := NewTimeAggregator()
	rows := sampleRows(t)
	first, err := json.Marshal(ta.Monthly(rows))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(ta.Monthly(rows))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestMonthlySumEqualsInputSum(t *testing.T) {
	rows := sampleRows(t)
	total := dec(t, "0")
	for _, r := range rows {
		total = total.Add(r.Revenue)
	}
	sum := dec(t, "0")
	for _, m := range NewTimeAggregator().Monthly(rows) {
		sum = sum.Add(m.TotalRevenue)
	}
	assert.True(t, total.Equal(sum))
}

func TestTopProducts(t *testing.T) {
	top := NewTimeAggregator().TopProducts(sampleRows(t), 3)
	require.Len(t, top, 3)
	assert.Equal(t, "A", top[0].Product)
	assert.Equal(t, "B", top[1].Product)
	assert.True(t, top[1].TotalRevenue.Equal(dec(t, "29.75")))
	assert.Equal(t, "C", top[2].Product)
}

func TestTopProductsTieBreaksByName(t *testing.T) {
	rows := []models.CleanedRow{
		{Date: day(2024, 1, 1), Revenue: dec(t, "5"), Product: "zeta"},
		{Date: day(2024, 1, 1), Revenue: dec(t, "5"), Product: "alpha"},
		{Date: day(2024, 1, 1), Revenue: dec(t, "1"), Product: "mid"},
	}
	top := NewTimeAggregator().TopProducts(rows, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "alpha", top[0].Product)
	assert.Equal(t, "zeta", top[1].Product)
}

func TestRegions(t *testing.T) {
	regions := NewTimeAggregator().Regions(sampleRows(t))
	require.Len(t, regions, 2)
	assert.Equal(t, "West", regions[0].Region)
	assert.True(t, regions[0].TotalRevenue.Equal(dec(t, "80")))
	assert.Equal(t, "East", regions[1].Region)

	assert.Nil(t, NewTimeAggregator().Regions([]models.CleanedRow{{Date: day(2024, 1, 1), Revenue: dec(t, "1")}}))
}

func TestSummarize(t *testing.T) {
	s := NewTimeAggregator().Summarize(sampleRows(t))
	assert.True(t, s.TotalRevenue.Equal(dec(t, "170")))
	assert.Equal(t, 5, s.OrderCount)
	assert.Equal(t, "A", s.TopProduct)
	assert.Equal(t, "2023-12-31", s.StartDate)
	assert.Equal(t, "2024-03-15", s.EndDate)
}
