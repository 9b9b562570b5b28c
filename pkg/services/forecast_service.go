package services

import (
	"fmt"
	"time"

	"bizinsight-api/pkg/models"
)

const (
	MethodLinearTrend         = "linear_trend"
	MethodLinearTrendSeasonal = "linear_trend_seasonal"

	seasonPeriod = 12
)

// ForecastService projects a monthly revenue series forward with an additive trend plus
// calendar-month seasonality. Seasonality is only estimated once two full years of span
// exist and every calendar month has been observed; otherwise the trend is used alone.
type ForecastService struct {
	horizon           int
	seasonalMinMonths int
}

func NewForecastService(horizon int) *ForecastService {
	if horizon <= 0 {
		horizon = 6
	}
	return &ForecastService{horizon: horizon, seasonalMinMonths: 2 * seasonPeriod}
}

// Forecast never fails the run: when no projection can be made it returns an unavailable
// result together with an error wrapping models.ErrForecastUnavailable.
func (fs *ForecastService) Forecast(monthly []models.MonthlyRevenue) (models.ForecastResult, error) {
	result := models.ForecastResult{Horizon: fs.horizon}

	if len(monthly) < 2 {
		return fs.unavailable(result, fmt.Sprintf("insufficient data: need at least 2 months of history, got %d", len(monthly)))
	}

	first := monthly[0].Month
	x := make([]float64, len(monthly))
	y := make([]float64, len(monthly))
	for i, m := range monthly {
		x[i] = float64(m.Month.MonthsSince(first))
		y[i] = m.TotalRevenue.InexactFloat64()
	}

	slope, intercept, err := linearFit(x, y)
	if err != nil {
		return fs.unavailable(result, fmt.Sprintf("trend fit failed: %v", err))
	}

	span := monthly[len(monthly)-1].Month.MonthsSince(first) + 1
	seasonal, ok := fs.seasonalEffects(monthly, x, y, slope, intercept, span)
	result.Method = MethodLinearTrend
	if ok {
		result.Method = MethodLinearTrendSeasonal
	}

	predict := func(idx float64, month time.Month) float64 {
		v := slope*idx + intercept
		if ok {
			v += seasonal[month]
		}
		return v
	}

	result.Fitted = make([]models.ForecastPoint, len(monthly))
	for i, m := range monthly {
		v := predict(x[i], m.Month.Month)
		if !allFinite(v) {
			return fs.unavailable(result, "model produced a non-finite fitted value")
		}
		result.Fitted[i] = models.ForecastPoint{Month: m.Month, PredictedRevenue: v, Fitted: true}
	}

	last := monthly[len(monthly)-1].Month
	lastX := x[len(x)-1]
	result.Points = make([]models.ForecastPoint, fs.horizon)
	for h := 1; h <= fs.horizon; h++ {
		m := last.AddMonths(h)
		v := predict(lastX+float64(h), m.Month)
		if !allFinite(v) {
			return fs.unavailable(result, "model produced a non-finite forecast value")
		}
		result.Points[h-1] = models.ForecastPoint{Month: m, PredictedRevenue: v}
	}

	result.Available = true
	return result, nil
}

// seasonalEffects averages the trend residuals per calendar month and centers them on zero.
func (fs *ForecastService) seasonalEffects(monthly []models.MonthlyRevenue, x, y []float64, slope, intercept float64, span int) (map[time.Month]float64, bool) {
	if span < fs.seasonalMinMonths {
		return nil, false
	}

	residuals := make(map[time.Month][]float64, seasonPeriod)
	for i, m := range monthly {
		residuals[m.Month.Month] = append(residuals[m.Month.Month], y[i]-(slope*x[i]+intercept))
	}
	if len(residuals) < seasonPeriod {
		return nil, false
	}

	// fixed month order keeps the float sums reproducible
	effects := make(map[time.Month]float64, seasonPeriod)
	var total float64
	for month := time.January; month <= time.December; month++ {
		effects[month] = calculateMean(residuals[month])
		total += effects[month]
	}
	offset := total / seasonPeriod
	for month := time.January; month <= time.December; month++ {
		effects[month] -= offset
	}
	return effects, true
}

func (fs *ForecastService) unavailable(result models.ForecastResult, reason string) (models.ForecastResult, error) {
	result.Available = false
	result.Reason = reason
	result.Method = ""
	result.Fitted = nil
	result.Points = nil
	return result, fmt.Errorf("%w: %s", models.ErrForecastUnavailable, reason)
}
