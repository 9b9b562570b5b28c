package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"bizinsight-api/pkg/models"
)

// TimeAggregator rolls cleaned transactions up by calendar month, product and region.
// All methods are pure; repeated calls on the same rows give identical output.
type TimeAggregator struct{}

func NewTimeAggregator() *TimeAggregator {
	return &TimeAggregator{}
}

// Monthly returns one entry per month that has at least one row, ascending. Months with no rows are not filled.
func (ta *TimeAggregator) Monthly(rows []models.CleanedRow) []models.MonthlyRevenue {
	byMonth := make(map[models.CalendarMonth]*models.MonthlyRevenue)
	for _, r := range rows {
		m := models.MonthOf(r.Date)
		agg, ok := byMonth[m]
		if !ok {
			agg = &models.MonthlyRevenue{Month: m, TotalRevenue: decimal.Zero}
			byMonth[m] = agg
		}
		agg.TotalRevenue = agg.TotalRevenue.Add(r.Revenue)
		agg.Orders++
	}

	out := make([]models.MonthlyRevenue, 0, len(byMonth))
	for _, agg := range byMonth {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month.Before(out[j].Month)
	})
	return out
}

// TopProducts ranks products by total revenue, descending, ties by name. Rows without a product are ignored.
func (ta *TimeAggregator) TopProducts(rows []models.CleanedRow, n int) []models.ProductTotal {
	totals := make(map[string]*models.ProductTotal)
	for _, r := range rows {
		if r.Product == "" {
			continue
		}
		pt, ok := totals[r.Product]
		if !ok {
			pt = &models.ProductTotal{Product: r.Product, TotalRevenue: decimal.Zero}
			totals[r.Product] = pt
		}
		pt.TotalRevenue = pt.TotalRevenue.Add(r.Revenue)
		pt.Orders++
	}

	out := make([]models.ProductTotal, 0, len(totals))
	for _, pt := range totals {
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalRevenue.Cmp(out[j].TotalRevenue); c != 0 {
			return c > 0
		}
		return out[i].Product < out[j].Product
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Regions returns revenue per region, largest first. Nil when no row carries a region.
func (ta *TimeAggregator) Regions(rows []models.CleanedRow) []models.RegionTotal {
	totals := make(map[string]*models.RegionTotal)
	for _, r := range rows {
		if r.Region == "" {
			continue
		}
		rt, ok := totals[r.Region]
		if !ok {
			rt = &models.RegionTotal{Region: r.Region, TotalRevenue: decimal.Zero}
			totals[r.Region] = rt
		}
		rt.TotalRevenue = rt.TotalRevenue.Add(r.Revenue)
		rt.Orders++
	}
	if len(totals) == 0 {
		return nil
	}

	out := make([]models.RegionTotal, 0, len(totals))
	for _, rt := range totals {
		out = append(out, *rt)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalRevenue.Cmp(out[j].TotalRevenue); c != 0 {
			return c > 0
		}
		return out[i].Region < out[j].Region
	})
	return out
}

// Summarize builds the compact dataset context used by the assistant.
func (ta *TimeAggregator) Summarize(rows []models.CleanedRow) models.DatasetSummary {
	s := models.DatasetSummary{TotalRevenue: decimal.Zero, OrderCount: len(rows)}
	if len(rows) == 0 {
		return s
	}
	start, end := rows[0].Date, rows[0].Date
	for _, r := range rows {
		s.TotalRevenue = s.TotalRevenue.Add(r.Revenue)
		if r.Date.Before(start) {
			start = r.Date
		}
		if r.Date.After(end) {
			end = r.Date
		}
	}
	s.StartDate = start.Format("2006-01-02")
	s.EndDate = end.Format("2006-01-02")
	if top := ta.TopProducts(rows, 1); len(top) > 0 {
		s.TopProduct = top[0].Product
	}
	return s
}
