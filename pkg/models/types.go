package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the semantic meaning a column serves regardless of its literal header name.
type Role string

const (
	RoleDate    Role = "date"
	RoleRevenue Role = "revenue"
	RoleProduct Role = "product"
	RoleRegion  Role = "region"
)

// RoleAliases is the ranked candidate table used to infer one role from a header.
type RoleAliases struct {
	Role     Role
	Aliases  []string // priority order, most specific first
	Keywords []string // token containment pass, used only when no alias matches
	Required bool
}

// Table is a decoded upload: a header row plus its data rows.
type Table struct {
	Header []string
	Rows   []RawRow
}

// RawRow represents a single source line as read from the input table.
type RawRow struct {
	Line    int      // 1-based line number in the source, header is line 1
	Columns []string // shared with Table.Header
	Cells   []string
}

// Value returns the raw cell for column, or "" when the row is short or the column is unknown.
func (r RawRow) Value(column string) string {
	for i, c := range r.Columns {
		if c == column {
			if i < len(r.Cells) {
				return r.Cells[i]
			}
			return ""
		}
	}
	return ""
}

// ColumnIndex returns the position of column in the header, or -1.
func (t *Table) ColumnIndex(column string) int {
	for i, h := range t.Header {
		if h == column {
			return i
		}
	}
	return -1
}

// ResolutionSource describes how a role was bound to a column.
type ResolutionSource string

const (
	SourceAlias           ResolutionSource = "alias"
	SourceKeyword         ResolutionSource = "keyword"
	SourceNumericFallback ResolutionSource = "numeric_fallback"
	SourceOverride        ResolutionSource = "override"
)

// ColumnResolution is the tagged outcome for one role: resolved to a column, or unresolved.
type ColumnResolution struct {
	Role         Role             `json:"role"`
	Column       string           `json:"column,omitempty"`
	Resolved     bool             `json:"resolved"`
	Required     bool             `json:"required"`
	Source       ResolutionSource `json:"source,omitempty"`
	MatchedAlias string           `json:"matched_alias,omitempty"`
	Similarity   float64          `json:"similarity,omitempty"`
}

// ColumnRoleMap maps each canonical role to a header column.
type ColumnRoleMap struct {
	Header []string                  `json:"header"`
	Roles  map[Role]ColumnResolution `json:"roles"`
}

// Column returns the column bound to role.
func (m ColumnRoleMap) Column(role Role) (string, bool) {
	res, ok := m.Roles[role]
	if !ok || !res.Resolved {
		return "", false
	}
	return res.Column, true
}

// Unresolved lists the required roles that have no column.
func (m ColumnRoleMap) Unresolved() []Role {
	var missing []Role
	for _, role := range []Role{RoleDate, RoleRevenue, RoleProduct, RoleRegion} {
		res, ok := m.Roles[role]
		if ok && res.Required && !res.Resolved {
			missing = append(missing, role)
		}
	}
	return missing
}

// CleanedRow is a RawRow whose date and revenue coerced successfully.
type CleanedRow struct {
	Line    int             `json:"line"`
	Date    time.Time       `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Product string          `json:"product,omitempty"`
	Region  string          `json:"region,omitempty"`
}

// CleaningReport holds retained and dropped row counts for one run.
type CleaningReport struct {
	TotalRows             int      `json:"total_rows"`
	RetainedRows          int      `json:"retained_rows"`
	DroppedRows           int      `json:"dropped_rows"`
	DroppedInvalidDate    int      `json:"dropped_invalid_date"`
	DroppedInvalidRevenue int      `json:"dropped_invalid_revenue"`
	SampleErrors          []string `json:"sample_errors,omitempty"` // first few rejected rows
}

// MonthlyRevenue is one entry of the monthly aggregate.
type MonthlyRevenue struct {
	Month        CalendarMonth   `json:"month"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Orders       int             `json:"orders"`
}

// ForecastPoint is a predicted (or fitted, for historical months) monthly revenue.
type ForecastPoint struct {
	Month            CalendarMonth `json:"month"`
	PredictedRevenue float64       `json:"predicted_revenue"`
	Fitted           bool          `json:"fitted"`
}

// ForecastResult carries either the projection or the reason it is unavailable.
type ForecastResult struct {
	Available bool            `json:"available"`
	Reason    string          `json:"reason,omitempty"`
	Method    string          `json:"method,omitempty"` // "linear_trend" or "linear_trend_seasonal"
	Horizon   int             `json:"horizon"`
	Points    []ForecastPoint `json:"points,omitempty"` // future months only
	Fitted    []ForecastPoint `json:"fitted,omitempty"` // historical months, for continuity display
}

// ProductTotal is a product's revenue over the whole dataset.
type ProductTotal struct {
	Product      string          `json:"product"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Orders       int             `json:"orders"`
}

// RegionTotal is a region's revenue over the whole dataset.
type RegionTotal struct {
	Region       string          `json:"region"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Orders       int             `json:"orders"`
}

// DatasetSummary is the small context handed to the conversational assistant.
type DatasetSummary struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	OrderCount   int             `json:"order_count"`
	TopProduct   string          `json:"top_product,omitempty"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
}

// SentimentLabel is derived from the sign of a sentiment score.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "Positive"
	SentimentNegative SentimentLabel = "Negative"
	SentimentNeutral  SentimentLabel = "Neutral"
)

// LabelForScore maps a polarity score to its label: >0 Positive, <0 Negative, otherwise Neutral.
func LabelForScore(score float64) SentimentLabel {
	switch {
	case score > 0:
		return SentimentPositive
	case score < 0:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// ProductSignal is the fused external view of one product.
type ProductSignal struct {
	TrendScore         float64        `json:"trend_score"`          // mean interest index over the window
	TrendChangePercent float64        `json:"trend_change_percent"` // mean period-over-period change
	TrendPoints        int            `json:"trend_points"`
	SentimentScore     float64        `json:"sentiment_score"` // -1 to 1
	SentimentLabel     SentimentLabel `json:"sentiment_label"`
	MentionCount       int            `json:"mention_count"`
	NoMentions         bool           `json:"no_mentions"` // score defaulted because nothing was found
}

// RecommendationAction is the categorical growth suggestion.
type RecommendationAction string

const (
	ActionPromote         RecommendationAction = "Promote"
	ActionReposition      RecommendationAction = "Reposition"
	ActionAddressConcerns RecommendationAction = "AddressConcerns"
	ActionStabilize       RecommendationAction = "Stabilize"
)

// SignalWarning records a non-fatal provider failure for one product and one signal.
type SignalWarning struct {
	Signal  string `json:"signal"` // "trend" or "sentiment"
	Message string `json:"message"`
}

// Recommendation is computed fresh per request from the current ProductSignal.
type Recommendation struct {
	Product      string               `json:"product"`
	TotalRevenue decimal.Decimal      `json:"total_revenue"`
	Action       RecommendationAction `json:"action"`
	Message      string               `json:"message"`
	Signal       ProductSignal        `json:"signal"`
	Warnings     []SignalWarning      `json:"warnings,omitempty"`
}

// RecommendationSection is either the per-product recommendations or the reason they were skipped.
type RecommendationSection struct {
	Skipped bool             `json:"skipped"`
	Reason  string           `json:"reason,omitempty"`
	Items   []Recommendation `json:"items,omitempty"`
}

// PipelineResult is built once per run and handed explicitly to every consumer.
type PipelineResult struct {
	RunID           string                `json:"run_id"`
	FileName        string                `json:"file_name"`
	GeneratedAt     time.Time             `json:"generated_at"`
	Columns         ColumnRoleMap         `json:"columns"`
	Cleaning        CleaningReport        `json:"cleaning"`
	Monthly         []MonthlyRevenue      `json:"monthly"`
	Forecast        ForecastResult        `json:"forecast"`
	TopProducts     []ProductTotal        `json:"top_products,omitempty"`
	Regions         []RegionTotal         `json:"regions,omitempty"`
	Recommendations RecommendationSection `json:"recommendations"`
	Summary         DatasetSummary        `json:"summary"`
}
