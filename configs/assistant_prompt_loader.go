package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AssistantPromptConfig defines the structure of assistant_prompt.yaml
type AssistantPromptConfig struct {
	System struct {
		Role     string `yaml:"role"`
		Version  string `yaml:"version"`
		Language string `yaml:"language"`
	} `yaml:"system"`

	ResponseGuidelines []struct {
		Priority  int    `yaml:"priority"`
		Condition string `yaml:"condition"`
		Action    string `yaml:"action"`
	} `yaml:"response_guidelines"`

	Tone struct {
		Style       string `yaml:"style"`
		Personality string `yaml:"personality"`
	} `yaml:"tone"`

	Constraints []string `yaml:"constraints"`

	Generation struct {
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"generation"`
}

// DefaultAssistantPrompt is used when no prompt file is present.
func DefaultAssistantPrompt() *AssistantPromptConfig {
	c := &AssistantPromptConfig{}
	c.System.Role = "a business analyst who answers questions about an uploaded sales dataset"
	c.System.Language = "English"
	c.Tone.Style = "concise"
	c.Tone.Personality = "practical"
	c.Constraints = []string{
		"Answer only from the dataset summary provided.",
		"Say so when the summary does not contain the answer.",
	}
	c.Generation.MaxTokens = 600
	c.Generation.Temperature = 0.3
	return c
}

// LoadAssistantPrompt reads the assistant prompt from path. A missing file yields the default prompt.
func LoadAssistantPrompt(path string) (*AssistantPromptConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAssistantPrompt(), nil
		}
		return nil, fmt.Errorf("read assistant prompt: %w", err)
	}

	var cfg AssistantPromptConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse assistant prompt: %w", err)
	}

	def := DefaultAssistantPrompt()
	if cfg.System.Role == "" {
		cfg.System.Role = def.System.Role
	}
	if cfg.System.Language == "" {
		cfg.System.Language = def.System.Language
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = def.Generation.MaxTokens
	}
	return &cfg, nil
}

// BuildSystemPrompt renders the system message.
func (c *AssistantPromptConfig) BuildSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are %s.\n", c.System.Role))
	sb.WriteString(fmt.Sprintf("Respond in %s.\n\n", c.System.Language))

	if len(c.ResponseGuidelines) > 0 {
		sb.WriteString("## Guidelines\n")
		for _, g := range c.ResponseGuidelines {
			sb.WriteString(fmt.Sprintf("%d. %s -> %s\n", g.Priority, g.Condition, g.Action))
		}
		sb.WriteString("\n")
	}

	if c.Tone.Style != "" || c.Tone.Personality != "" {
		sb.WriteString("## Tone\n")
		if c.Tone.Style != "" {
			sb.WriteString(fmt.Sprintf("- Style: %s\n", c.Tone.Style))
		}
		if c.Tone.Personality != "" {
			sb.WriteString(fmt.Sprintf("- Personality: %s\n", c.Tone.Personality))
		}
		sb.WriteString("\n")
	}

	if len(c.Constraints) > 0 {
		sb.WriteString("## Constraints\n")
		for _, constraint := range c.Constraints {
			sb.WriteString(fmt.Sprintf("- %s\n", constraint))
		}
	}

	return sb.String()
}
