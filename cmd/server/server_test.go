package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "bizinsight-api/configs"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testApp(t *testing.T, trendURL string) *app {
	t.Helper()
	cfg := config.LoadConfig()
	cfg.TrendProviderURL = trendURL
	cfg.MentionProviderURL = ""
	cfg.AzureOpenAIEndpoint = ""
	require.NoError(t, cfg.Validate())
	return buildApp(cfg, config.DefaultSchemaConfig(), config.DefaultAssistantPrompt())
}

func TestApplicationSetup(t *testing.T) {
	a := testApp(t, "")
	assert.NotNil(t, a.analysis)
	assert.NotNil(t, a.assistant)
	assert.False(t, a.health.Assistant)
	assert.False(t, a.health.TrendSignal)
}

func TestRouterSetup(t *testing.T) {
	r := setupRouter(testApp(t, ""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, serviceName, body["service"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/monitoring/logs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAnalysisThroughRouterWithTrendProvider(t *testing.T) {
	trend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"points":[{"timestamp":"2024-01-07","value":20},{"timestamp":"2024-01-14","value":10}]}`))
	}))
	defer trend.Close()

	a := testApp(t, trend.URL)
	assert.True(t, a.health.TrendSignal)
	r := setupRouter(a)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "sales.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("Date;Item;Revenue\n01/15/2024;Lamp;12,50\n02/15/2024;Lamp;30\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Result struct {
			Recommendations struct {
				Items []struct {
					Product  string `json:"product"`
					Action   string `json:"action"`
					Warnings []struct {
						Signal string `json:"signal"`
					} `json:"warnings"`
				} `json:"items"`
			} `json:"recommendations"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	items := body.Result.Recommendations.Items
	require.Len(t, items, 1)
	assert.Equal(t, "Lamp", items[0].Product)
	assert.Equal(t, "Reposition", items[0].Action)
	require.Len(t, items[0].Warnings, 1)
	assert.Equal(t, "sentiment", items[0].Warnings[0].Signal)
}
