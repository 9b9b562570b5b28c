package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizinsight-api/pkg/models"
)

func TestHTTPTrendProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/interest", r.URL.Path)
		assert.Equal(t, "Widget Pro", r.URL.Query().Get("q"))
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start"))
		assert.Equal(t, "2024-04-01", r.URL.Query().Get("end"))
		_, _ = w.Write([]byte(`{"points":[{"timestamp":"2024-01-07","value":40},{"timestamp":"2024-01-14T00:00:00Z","value":50}]}`))
	}))
	defer srv.Close()

	p := NewHTTPTrendProvider(srv.URL, srv.Client())
	points, err := p.FetchInterestSeries(context.Background(), "Widget Pro",
		TimeRange{Start: day(2024, time.January, 1), End: day(2024, time.April, 1)})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 40.0, points[0].Value)
	assert.Equal(t, day(2024, time.January, 14), points[1].Timestamp.UTC())
}

func TestHTTPTrendProviderRejectsMalformed(t *testing.T) {
	bodies := map[string]string{
		"out of range": `{"points":[{"timestamp":"2024-01-07","value":140}]}`,
		"missing":      `{"points":[{"timestamp":"2024-01-07"}]}`,
		"bad time":     `{"points":[{"timestamp":"yesterday","value":1}]}`,
		"not json":     `<html>`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := NewHTTPTrendProvider(srv.URL, nil).FetchInterestSeries(context.Background(), "x", LastMonths(time.Now(), 3))
			assert.ErrorIs(t, err, models.ErrSignalProvider)
		})
	}
}

func TestHTTPTrendProviderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewHTTPTrendProvider(srv.URL, nil).FetchInterestSeries(context.Background(), "x", LastMonths(time.Now(), 3))
	require.ErrorIs(t, err, models.ErrSignalProvider)
	assert.Contains(t, err.Error(), "429")
}

func TestHTTPMentionProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mentions", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"mentions":[{"text":"great"},{"text":"bad"},{"text":"extra"}]}`))
	}))
	defer srv.Close()

	texts, err := NewHTTPMentionProvider(srv.URL, "k", nil).FetchMentions(context.Background(), "Widget", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"great", "bad"}, texts)
}

func TestHTTPProviderHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewHTTPMentionProvider(srv.URL, "", nil).FetchMentions(ctx, "x", 5)
	assert.ErrorIs(t, err, models.ErrSignalProvider)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSlowHTTPTrendProviderIsReportedAsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	opts := fastOptions()
	opts.FetchTimeout = 20 * time.Millisecond
	mentions := &fakeMentions{texts: map[string][]string{"Lamp": {"great"}}}
	recs := NewRecommendationService(NewHTTPTrendProvider(srv.URL, nil), mentions, nil, opts).
		Recommend(context.Background(), products("Lamp"))

	require.Len(t, recs, 1)
	require.Len(t, recs[0].Warnings, 1)
	assert.Equal(t, "trend", recs[0].Warnings[0].Signal)
	assert.Contains(t, recs[0].Warnings[0].Message, "timed out")
	assert.Equal(t, models.ActionStabilize, recs[0].Action)
}

func TestDisabledProviders(t *testing.T) {
	_, err := DisabledTrendProvider{}.FetchInterestSeries(context.Background(), "x", TimeRange{})
	assert.ErrorIs(t, err, models.ErrSignalProvider)
	assert.ErrorIs(t, err, models.ErrProviderNotConfigured)

	_, err = DisabledMentionProvider{}.FetchMentions(context.Background(), "x", 5)
	assert.ErrorIs(t, err, models.ErrProviderNotConfigured)
}
