package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bizinsight-api/pkg/logger"
	"bizinsight-api/pkg/models"
)

// bestSellersShown is how many products the revenue ranking lists; only the first
// topProducts of them are sent to the recommendation engine.
const bestSellersShown = 10

const (
	skipReasonRequested = "recommendations were not requested"
	skipReasonNoProduct = "no product column was found"
	skipReasonNoNames   = "no row has a product name"
)

// PipelineInput is everything one analysis run needs.
type PipelineInput struct {
	FileName            string
	Table               *models.Table
	Overrides           map[models.Role]string
	SkipRecommendations bool
}

// PipelineService runs normalize, clean, aggregate, forecast and recommend for one upload.
// It holds no per-run state; every call builds a fresh PipelineResult.
type PipelineService struct {
	normalizer  *SchemaNormalizer
	cleaner     *DataCleaner
	aggregator  *TimeAggregator
	forecaster  *ForecastService
	recommender *RecommendationService
	topProducts int
	bestSellers int
	now         func() time.Time
}

func NewPipelineService(normalizer *SchemaNormalizer, forecaster *ForecastService, recommender *RecommendationService, topProducts int) *PipelineService {
	if topProducts <= 0 {
		topProducts = 3
	}
	return &PipelineService{
		normalizer:  normalizer,
		cleaner:     NewDataCleaner(),
		aggregator:  NewTimeAggregator(),
		forecaster:  forecaster,
		recommender: recommender,
		topProducts: topProducts,
		bestSellers: max(bestSellersShown, topProducts),
		now:         time.Now,
	}
}

// PreviewSchema resolves the role map only, so an operator can confirm or override it.
func (ps *PipelineService) PreviewSchema(table *models.Table, overrides map[models.Role]string) (models.ColumnRoleMap, error) {
	return ps.normalizer.Resolve(table, overrides)
}

// Run executes the whole pipeline. Schema, format and empty-data failures are fatal and
// returned as errors; forecast and signal failures are recorded on the result.
func (ps *PipelineService) Run(ctx context.Context, in PipelineInput) (*models.PipelineResult, error) {
	if in.Table == nil {
		return nil, fmt.Errorf("%w: no table", models.ErrUnsupportedFile)
	}

	runID := uuid.NewString()
	log := logger.FromContext(ctx).With("run_id", runID, "file", in.FileName)
	ctx = logger.ToContext(ctx, log)
	started := ps.now()

	result := &models.PipelineResult{
		RunID:       runID,
		FileName:    in.FileName,
		GeneratedAt: started.UTC(),
	}

	roles, err := ps.normalizer.Resolve(in.Table, in.Overrides)
	result.Columns = roles
	if err != nil {
		log.Warn("schema resolution failed", "error", err)
		return result, err
	}
	log.Info("schema resolved", "roles", describeRoles(roles))

	rows, report, err := ps.cleaner.Clean(in.Table, roles)
	result.Cleaning = report
	if err != nil {
		log.Warn("cleaning failed", "error", err, "total_rows", report.TotalRows)
		return result, err
	}
	log.Info("rows cleaned",
		"total", report.TotalRows,
		"retained", report.RetainedRows,
		"bad_date", report.DroppedInvalidDate,
		"bad_revenue", report.DroppedInvalidRevenue,
	)

	result.Monthly = ps.aggregator.Monthly(rows)
	result.Regions = ps.aggregator.Regions(rows)
	result.Summary = ps.aggregator.Summarize(rows)

	forecast, err := ps.forecaster.Forecast(result.Monthly)
	result.Forecast = forecast
	if err != nil {
		if !errors.Is(err, models.ErrForecastUnavailable) {
			return result, err
		}
		log.Info("forecast unavailable", "reason", forecast.Reason)
	}

	_, hasProduct := roles.Column(models.RoleProduct)
	if hasProduct {
		result.TopProducts = ps.aggregator.TopProducts(rows, ps.bestSellers)
	}

	switch {
	case in.SkipRecommendations:
		result.Recommendations = models.RecommendationSection{Skipped: true, Reason: skipReasonRequested}
	case !hasProduct:
		result.Recommendations = models.RecommendationSection{Skipped: true, Reason: skipReasonNoProduct}
	case len(result.TopProducts) == 0:
		result.Recommendations = models.RecommendationSection{Skipped: true, Reason: skipReasonNoNames}
	default:
		candidates := result.TopProducts[:min(ps.topProducts, len(result.TopProducts))]
		result.Recommendations = models.RecommendationSection{Items: ps.recommender.Recommend(ctx, candidates)}
	}

	log.Info("pipeline finished",
		"months", len(result.Monthly),
		"forecast", result.Forecast.Available,
		"recommendations", len(result.Recommendations.Items),
		"elapsed", ps.now().Sub(started),
	)
	return result, nil
}

// RecommendProducts runs only the recommendation branch for caller-supplied product names.
func (ps *PipelineService) RecommendProducts(ctx context.Context, names []string) []models.Recommendation {
	products := make([]models.ProductTotal, 0, len(names))
	for _, n := range names {
		products = append(products, models.ProductTotal{Product: n})
	}
	return ps.recommender.Recommend(ctx, products)
}

func describeRoles(m models.ColumnRoleMap) map[string]string {
	out := make(map[string]string, len(m.Roles))
	for role, res := range m.Roles {
		if res.Resolved {
			out[string(role)] = fmt.Sprintf("%s (%s)", res.Column, res.Source)
		}
	}
	return out
}
