package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizinsight-api/pkg/azure"
	"bizinsight-api/pkg/models"
)

func testSummary(t *testing.T) models.DatasetSummary {
	return models.DatasetSummary{
		TotalRevenue: dec(t, "12345.5"),
		OrderCount:   42,
		TopProduct:   "Widget",
		StartDate:    "2024-01-01",
		EndDate:      "2024-06-30",
	}
}

func TestBuildAssistantUserPrompt(t *testing.T) {
	p := BuildAssistantUserPrompt("Which product sells best?", testSummary(t))
	assert.Contains(t, p, "Total revenue: 12345.50")
	assert.Contains(t, p, "Orders: 42")
	assert.Contains(t, p, "Top product: Widget")
	assert.Contains(t, p, "Period: 2024-01-01 to 2024-06-30")
	assert.Contains(t, p, "## Question\nWhich product sells best?")
}

func TestAssistantAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req azure.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, "You are")
		assert.Contains(t, req.Messages[1].Content, "Top product: Widget")
		assert.Equal(t, 600, req.MaxTokens)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Widget leads.  "}}]}`))
	}))
	defer srv.Close()

	as := NewAssistantService(azure.NewOpenAIClient(srv.URL, "k", "v", "d"), nil)
	answer, err := as.Ask(context.Background(), "Which product sells best?", testSummary(t))
	require.NoError(t, err)
	assert.Equal(t, "Widget leads.", answer)
}

func TestAssistantAskErrors(t *testing.T) {
	unconfigured := NewAssistantService(azure.NewOpenAIClient("", "", "v", "d"), nil)
	assert.False(t, unconfigured.Available())

	_, err := unconfigured.Ask(context.Background(), "   ", testSummary(t))
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	_, err = unconfigured.Ask(context.Background(), "hello", testSummary(t))
	assert.ErrorIs(t, err, ErrAssistantUnavailable)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()
	_, err = NewAssistantService(azure.NewOpenAIClient(srv.URL, "k", "v", "d"), nil).
		Ask(context.Background(), "hello", testSummary(t))
	assert.Error(t, err)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héllo", truncateRunes("héllo", 5))
	assert.Equal(t, "hé", truncateRunes("héllo", 2))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))
	assert.Equal(t, "", truncateRunes("abc", 0))
}

func TestAssistantAskTruncatesLongQuestionOnRuneBoundary(t *testing.T) {
	prompts := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req azure.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		prompts <- req.Messages[1].Content
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	question := "a" + strings.Repeat("é", maxQuestionLength+50)
	_, err := NewAssistantService(azure.NewOpenAIClient(srv.URL, "k", "v", "d"), nil).
		Ask(context.Background(), question, testSummary(t))
	require.NoError(t, err)

	userPrompt := <-prompts
	assert.True(t, utf8.ValidString(userPrompt))
	assert.True(t, strings.HasSuffix(userPrompt, "a"+strings.Repeat("é", maxQuestionLength-1)))
	assert.NotContains(t, userPrompt, strings.Repeat("é", maxQuestionLength))
}
