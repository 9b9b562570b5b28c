package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	config "bizinsight-api/configs"
	"bizinsight-api/pkg/azure"
	"bizinsight-api/pkg/logger"
	"bizinsight-api/pkg/models"
)

// maxQuestionLength is counted in runes.
const maxQuestionLength = 2000

var (
	// ErrAssistantUnavailable is returned when no Azure OpenAI deployment is configured.
	ErrAssistantUnavailable = errors.New("assistant is not configured")
	// ErrEmptyQuestion is returned for blank questions.
	ErrEmptyQuestion = errors.New("question is empty")
)

// AssistantService answers free-text questions about a dataset summary with a single
// stateless chat completion.
type AssistantService struct {
	client  *azure.OpenAIClient
	prompt  *config.AssistantPromptConfig
	timeout time.Duration
}

func NewAssistantService(client *azure.OpenAIClient, prompt *config.AssistantPromptConfig) *AssistantService {
	if prompt == nil {
		prompt = config.DefaultAssistantPrompt()
	}
	return &AssistantService{client: client, prompt: prompt, timeout: 30 * time.Second}
}

// Available reports whether Ask can reach a model.
func (as *AssistantService) Available() bool {
	return as.client.Configured()
}

// Ask sends the system prompt, the summary and the question, and returns the model's answer.
func (as *AssistantService) Ask(ctx context.Context, question string, summary models.DatasetSummary) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	question = truncateRunes(question, maxQuestionLength)
	if !as.Available() {
		return "", ErrAssistantUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, as.timeout)
	defer cancel()

	messages := []azure.ChatMessage{
		{Role: "system", Content: as.prompt.BuildSystemPrompt()},
		{Role: "user", Content: BuildAssistantUserPrompt(question, summary)},
	}
	resp, err := as.client.ChatCompletion(ctx, messages, as.prompt.Generation.MaxTokens, as.prompt.Generation.Temperature, 0.95)
	if err != nil {
		logger.FromContext(ctx).Error("assistant call failed", "error", err)
		return "", fmt.Errorf("assistant: %w", err)
	}
	answer, err := resp.FirstContent()
	if err != nil {
		return "", fmt.Errorf("assistant: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// BuildAssistantUserPrompt renders the dataset context block followed by the question.
func BuildAssistantUserPrompt(question string, s models.DatasetSummary) string {
	var b strings.Builder
	b.WriteString("## Dataset summary\n")
	fmt.Fprintf(&b, "- Total revenue: %s\n", s.TotalRevenue.StringFixed(2))
	fmt.Fprintf(&b, "- Orders: %d\n", s.OrderCount)
	if s.TopProduct != "" {
		fmt.Fprintf(&b, "- Top product: %s\n", s.TopProduct)
	}
	if s.StartDate != "" || s.EndDate != "" {
		fmt.Fprintf(&b, "- Period: %s to %s\n", s.StartDate, s.EndDate)
	}
	b.WriteString("\n## Question\n")
	b.WriteString(question)
	return b.String()
}

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
