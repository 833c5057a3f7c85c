package llmx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaConfig configures the Ollama-backed provider.
type OllamaConfig struct {
	Endpoint   string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// OllamaProvider implements Provider against a local Ollama server.
type OllamaProvider struct {
	cfg    OllamaConfig
	client *http.Client
}

// NewOllamaProvider constructs an Ollama-backed provider.
func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &OllamaProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) IsAvailable(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.Endpoint+"/api/tags", nil)
	if err != nil {
		return false, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false, &ErrProviderUnavailable{Provider: "ollama", Reason: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, &ErrProviderUnavailable{Provider: "ollama", Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	return true, nil
}

type ollamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ollamaChatMessage    `json:"messages"`
	Stream   bool                   `json:"stream"`
	Format   string                 `json:"format,omitempty"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Chat implements Provider.
func (p *OllamaProvider) Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	msgs := make([]ollamaChatMessage, len(messages))
	for i, m := range messages {
		msgs[i] = ollamaChatMessage{Role: m.Role, Content: m.Content}
	}

	reqBody := ollamaChatRequest{
		Model:    p.cfg.Model,
		Messages: msgs,
		Stream:   false,
		Options: map[string]interface{}{
			"temperature": opts.Temperature,
		},
	}
	if opts.JSONMode {
		reqBody.Format = "json"
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint+"/api/chat", bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("ollama status %d: %s", resp.StatusCode, string(b))
			continue
		}

		var chatResp ollamaChatResponse
		err = json.NewDecoder(resp.Body).Decode(&chatResp)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return chatResp.Message.Content, nil
	}

	return "", fmt.Errorf("ollama chat failed after %d attempts: %w", p.cfg.MaxRetries+1, lastErr)
}

// GenerateWithReasoning asks the model to think step by step before
// answering, then splits the response on a "Thinking:"/"Answer:" marker pair
// the reasoning prompt requests (spec §6 "enable_thinking").
func (p *OllamaProvider) GenerateWithReasoning(ctx context.Context, prompt, systemPrompt string, maxTokens int) (ReasoningResult, error) {
	reasoningPrompt := prompt + "\n\nThink step by step first, then answer. Format your response exactly as:\nThinking: <reasoning>\nAnswer: <final answer>"

	raw, err := p.Chat(ctx, []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: reasoningPrompt},
	}, ChatOptions{MaxTokens: maxTokens, Temperature: 0.2})
	if err != nil {
		return ReasoningResult{}, err
	}

	return splitReasoning(raw), nil
}

func splitReasoning(raw string) ReasoningResult {
	const thinkMarker = "Thinking:"
	const answerMarker = "Answer:"

	thinkIdx := strings.Index(raw, thinkMarker)
	answerIdx := strings.Index(raw, answerMarker)

	if thinkIdx < 0 || answerIdx < 0 || answerIdx < thinkIdx {
		return ReasoningResult{Answer: strings.TrimSpace(raw)}
	}

	thinking := strings.TrimSpace(raw[thinkIdx+len(thinkMarker) : answerIdx])
	answer := strings.TrimSpace(raw[answerIdx+len(answerMarker):])
	return ReasoningResult{Thinking: thinking, Answer: answer}
}
