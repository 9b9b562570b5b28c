package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"bizinsight-api/pkg/logger"
	"bizinsight-api/pkg/models"
)

const (
	promoteTrendThreshold    = 10.0
	repositionTrendThreshold = -10.0

	signalTrend     = "trend"
	signalSentiment = "sentiment"
)

// RecommendationOptions bounds the external fan-out.
type RecommendationOptions struct {
	MaxConcurrency    int
	RatePerSec        float64
	FetchTimeout      time.Duration
	TrendWindowMonths int
	MentionLimit      int
	Now               func() time.Time
}

// RecommendationService fuses a popularity trend and mention sentiment per product into a growth action.
type RecommendationService struct {
	trend    TrendProvider
	mentions MentionProvider
	scorer   *SentimentScorer
	opts     RecommendationOptions
}

func NewRecommendationService(trend TrendProvider, mentions MentionProvider, scorer *SentimentScorer, opts RecommendationOptions) *RecommendationService {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 3
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 5
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 8 * time.Second
	}
	if opts.TrendWindowMonths <= 0 {
		opts.TrendWindowMonths = 3
	}
	if opts.MentionLimit <= 0 {
		opts.MentionLimit = 5
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if scorer == nil {
		scorer = NewSentimentScorer()
	}
	return &RecommendationService{trend: trend, mentions: mentions, scorer: scorer, opts: opts}
}

// Recommend evaluates each product independently and returns results in input order.
// Provider failures become per-product warnings; this method never fails the run.
func (rs *RecommendationService) Recommend(ctx context.Context, products []models.ProductTotal) []models.Recommendation {
	out := make([]models.Recommendation, len(products))
	if len(products) == 0 {
		return out
	}

	// pacing is per run
	limiter := rate.NewLimiter(rate.Limit(rs.opts.RatePerSec), rs.opts.MaxConcurrency)

	var g errgroup.Group
	g.SetLimit(rs.opts.MaxConcurrency)
	for i, p := range products {
		i, p := i, p
		g.Go(func() error {
			out[i] = rs.recommendOne(ctx, limiter, p)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (rs *RecommendationService) recommendOne(ctx context.Context, limiter *rate.Limiter, product models.ProductTotal) models.Recommendation {
	log := logger.FromContext(ctx).With("product", product.Product)
	rec := models.Recommendation{Product: product.Product, TotalRevenue: product.TotalRevenue}

	trend := rs.fetchTrend(ctx, limiter, product.Product)
	if trend.OK() {
		rec.Signal.TrendScore, rec.Signal.TrendChangePercent = TrendMetrics(trend.Value)
		rec.Signal.TrendPoints = len(trend.Value)
	} else {
		log.Warn("trend signal unavailable, using neutral", "error", trend.Err)
		rec.Warnings = append(rec.Warnings, models.SignalWarning{Signal: signalTrend, Message: trend.Err.Error()})
	}

	mentions := rs.fetchMentions(ctx, limiter, product.Product)
	switch {
	case !mentions.OK():
		log.Warn("sentiment signal unavailable, using neutral", "error", mentions.Err)
		rec.Warnings = append(rec.Warnings, models.SignalWarning{Signal: signalSentiment, Message: mentions.Err.Error()})
	default:
		score, n, ok := rs.scorer.Mean(mentions.Value)
		rec.Signal.SentimentScore = score
		rec.Signal.MentionCount = n
		if !ok {
			rec.Signal.NoMentions = true
			rec.Warnings = append(rec.Warnings, models.SignalWarning{Signal: signalSentiment, Message: "no mentions found"})
		}
	}
	rec.Signal.SentimentLabel = models.LabelForScore(rec.Signal.SentimentScore)

	rec.Action, rec.Message = DecideAction(product.Product, rec.Signal)
	return rec
}

func (rs *RecommendationService) fetchTrend(ctx context.Context, limiter *rate.Limiter, product string) SignalResult[[]InterestPoint] {
	if err := limiter.Wait(ctx); err != nil {
		return SignalResult[[]InterestPoint]{Err: cancelledErr(signalTrend, err)}
	}
	fctx, cancel := context.WithTimeout(ctx, rs.opts.FetchTimeout)
	defer cancel()

	window := LastMonths(rs.opts.Now(), rs.opts.TrendWindowMonths)
	points, err := rs.trend.FetchInterestSeries(fctx, product, window)
	if err != nil {
		return SignalResult[[]InterestPoint]{Err: providerErr(signalTrend, err)}
	}
	if len(points) == 0 {
		return SignalResult[[]InterestPoint]{Err: fmt.Errorf("%w: trend: empty series", models.ErrSignalProvider)}
	}
	return SignalResult[[]InterestPoint]{Value: points}
}

func (rs *RecommendationService) fetchMentions(ctx context.Context, limiter *rate.Limiter, product string) SignalResult[[]string] {
	if err := limiter.Wait(ctx); err != nil {
		return SignalResult[[]string]{Err: cancelledErr(signalSentiment, err)}
	}
	fctx, cancel := context.WithTimeout(ctx, rs.opts.FetchTimeout)
	defer cancel()

	texts, err := rs.mentions.FetchMentions(fctx, product, rs.opts.MentionLimit)
	if err != nil {
		return SignalResult[[]string]{Err: providerErr(signalSentiment, err)}
	}
	if len(texts) > rs.opts.MentionLimit {
		texts = texts[:rs.opts.MentionLimit]
	}
	return SignalResult[[]string]{Value: texts}
}

func providerErr(signal string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: timed out", models.ErrSignalProvider, signal)
	}
	if errors.Is(err, context.Canceled) {
		return cancelledErr(signal, err)
	}
	if errors.Is(err, models.ErrSignalProvider) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", models.ErrSignalProvider, signal, err)
}

func cancelledErr(signal string, err error) error {
	return fmt.Errorf("%w: %s: cancelled: %v", models.ErrSignalProvider, signal, err)
}

// TrendMetrics returns the mean index and the mean period-over-period percent change.
// Pairs whose previous value is zero are skipped; fewer than two points give a change of 0.
func TrendMetrics(points []InterestPoint) (score, changePercent float64) {
	if len(points) == 0 {
		return 0, 0
	}
	sorted := make([]InterestPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	values := make([]float64, len(sorted))
	for i, p := range sorted {
		values[i] = p.Value
	}
	score = calculateMean(values)

	var changes []float64
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		changes = append(changes, (values[i]-values[i-1])/values[i-1]*100)
	}
	return score, calculateMean(changes)
}

// DecideAction applies the rules in priority order. All comparisons are strict.
func DecideAction(product string, s models.ProductSignal) (models.RecommendationAction, string) {
	switch {
	case s.TrendChangePercent > promoteTrendThreshold && s.SentimentScore > 0:
		return models.ActionPromote, fmt.Sprintf(
			"Interest in %s is rising (%+.1f%%) and customers speak positively. Increase promotion and stock.",
			product, s.TrendChangePercent)
	case s.TrendChangePercent < repositionTrendThreshold:
		return models.ActionReposition, fmt.Sprintf(
			"Interest in %s is falling (%+.1f%%). Revisit pricing, positioning or bundling.",
			product, s.TrendChangePercent)
	case s.SentimentScore < 0:
		return models.ActionAddressConcerns, fmt.Sprintf(
			"Customer sentiment about %s is negative (%.2f). Investigate complaints before investing in growth.",
			product, s.SentimentScore)
	default:
		return models.ActionStabilize, fmt.Sprintf(
			"Signals for %s are steady. Keep the current strategy and monitor.", product)
	}
}
