package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bizinsight-api/pkg/models"
)

// TimeRange is a closed interval of instants.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// LastMonths returns the window covering the n months up to now.
func LastMonths(now time.Time, n int) TimeRange {
	return TimeRange{Start: now.AddDate(0, -n, 0), End: now}
}

// InterestPoint is one observation of a popularity index, 0 to 100.
type InterestPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TrendProvider returns a popularity index series for a search term.
type TrendProvider interface {
	FetchInterestSeries(ctx context.Context, query string, window TimeRange) ([]InterestPoint, error)
}

// MentionProvider returns recent free-text mentions of a search term.
type MentionProvider interface {
	FetchMentions(ctx context.Context, query string, limit int) ([]string, error)
}

// SignalResult is the explicit outcome of one provider call.
type SignalResult[T any] struct {
	Value T
	Err   error
}

// OK reports whether the call succeeded.
func (r SignalResult[T]) OK() bool {
	return r.Err == nil
}

// HTTPTrendProvider calls GET {base}/interest?q=&start=&end=.
type HTTPTrendProvider struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPTrendProvider(baseURL string, client *http.Client) *HTTPTrendProvider {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTrendProvider{baseURL: baseURL, httpClient: client}
}

type interestResponse struct {
	Points []struct {
		Timestamp string   `json:"timestamp"`
		Value     *float64 `json:"value"`
	} `json:"points"`
}

func (p *HTTPTrendProvider) FetchInterestSeries(ctx context.Context, query string, window TimeRange) ([]InterestPoint, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("start", window.Start.Format("2006-01-02"))
	params.Set("end", window.End.Format("2006-01-02"))

	var body interestResponse
	if err := getJSON(ctx, p.httpClient, p.baseURL+"/interest?"+params.Encode(), nil, &body); err != nil {
		return nil, fmt.Errorf("%w: trend %q: %w", models.ErrSignalProvider, query, err)
	}

	points := make([]InterestPoint, 0, len(body.Points))
	for i, raw := range body.Points {
		if raw.Value == nil {
			return nil, fmt.Errorf("%w: trend %q: point %d has no value", models.ErrSignalProvider, query, i)
		}
		v := *raw.Value
		if math.IsNaN(v) || v < 0 || v > 100 {
			return nil, fmt.Errorf("%w: trend %q: point %d value %v outside 0-100", models.ErrSignalProvider, query, i, v)
		}
		ts, err := parseTimestamp(raw.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: trend %q: point %d: %v", models.ErrSignalProvider, query, i, err)
		}
		points = append(points, InterestPoint{Timestamp: ts, Value: v})
	}
	return points, nil
}

// HTTPMentionProvider calls GET {base}/mentions?q=&limit= with an optional bearer key.
type HTTPMentionProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPMentionProvider(baseURL, apiKey string, client *http.Client) *HTTPMentionProvider {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPMentionProvider{baseURL: baseURL, apiKey: apiKey, httpClient: client}
}

type mentionsResponse struct {
	Mentions []struct {
		Text string `json:"text"`
	} `json:"mentions"`
}

func (p *HTTPMentionProvider) FetchMentions(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	var body mentionsResponse
	if err := getJSON(ctx, p.httpClient, p.baseURL+"/mentions?"+params.Encode(), headers, &body); err != nil {
		return nil, fmt.Errorf("%w: mentions %q: %w", models.ErrSignalProvider, query, err)
	}

	texts := make([]string, 0, len(body.Mentions))
	for _, m := range body.Mentions {
		if len(texts) == limit {
			break
		}
		texts = append(texts, m.Text)
	}
	return texts, nil
}

// DisabledTrendProvider is wired when no trend endpoint is configured.
type DisabledTrendProvider struct{}

func (DisabledTrendProvider) FetchInterestSeries(context.Context, string, TimeRange) ([]InterestPoint, error) {
	return nil, fmt.Errorf("%w: trend: %w", models.ErrSignalProvider, models.ErrProviderNotConfigured)
}

// DisabledMentionProvider is wired when no mention endpoint is configured.
type DisabledMentionProvider struct{}

func (DisabledMentionProvider) FetchMentions(context.Context, string, int) ([]string, error) {
	return nil, fmt.Errorf("%w: mentions: %w", models.ErrSignalProvider, models.ErrProviderNotConfigured)
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(snippet))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q", s)
}
