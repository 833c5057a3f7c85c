package llmx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	anthropicAPIURL     = "https://api.anthropic.com/v1/messages"
	anthropicAPIVersion = "2023-06-01"
)

// AnthropicConfig configures the Anthropic-backed provider.
type AnthropicConfig struct {
	Model   string
	APIKey  string
	Timeout time.Duration
}

// AnthropicProvider implements Provider against Anthropic's Messages API.
type AnthropicProvider struct {
	cfg    AnthropicConfig
	client *http.Client
}

// NewAnthropicProvider constructs an Anthropic-backed provider, reading the
// API key from ANTHROPIC_API_KEY when not set explicitly.
func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &AnthropicProvider{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) IsAvailable(ctx context.Context) (bool, error) {
	if p.cfg.APIKey == "" {
		return false, &ErrProviderUnavailable{Provider: "anthropic", Reason: "ANTHROPIC_API_KEY not set"}
	}
	return true, nil
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type anthropicErrorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Chat implements Provider.
func (p *AnthropicProvider) Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	model := p.cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	var system string
	var rest []anthropicMessage
	for _, m := range messages {
		if m.Role == "system" {
			system = m.Content
			continue
		}
		rest = append(rest, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	reqBody := anthropicRequest{Model: model, MaxTokens: maxTokens, System: system, Messages: rest}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicAPIURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr anthropicErrorEnvelope
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("anthropic error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("anthropic status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("anthropic response carried no content blocks")
	}
	return parsed.Content[0].Text, nil
}

// GenerateWithReasoning has no native "thinking" separation in the Messages
// API used here, so the prompt requests an explicit split and the response
// is parsed the same way the Ollama provider does.
func (p *AnthropicProvider) GenerateWithReasoning(ctx context.Context, prompt, systemPrompt string, maxTokens int) (ReasoningResult, error) {
	reasoningPrompt := prompt + "\n\nThink step by step first, then answer. Format your response exactly as:\nThinking: <reasoning>\nAnswer: <final answer>"
	raw, err := p.Chat(ctx, []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: reasoningPrompt},
	}, ChatOptions{MaxTokens: maxTokens})
	if err != nil {
		return ReasoningResult{}, err
	}
	return splitReasoning(raw), nil
}
