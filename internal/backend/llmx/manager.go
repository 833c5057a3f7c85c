package llmx

import (
	"fmt"
	"time"
)

// ManagerConfig selects and configures the active provider (spec §6 env).
type ManagerConfig struct {
	Provider   string // "ollama" | "anthropic"
	Model      string
	Endpoint   string
	Timeout    time.Duration
	MaxRetries int
}

// NewManagedProvider constructs the configured provider. It is the single
// construction point so callers (analyzer, SQL executor, generator) share
// one provider instance per process, matching the "process-wide singleton,
// reentrant" backend-client policy (spec §5).
func NewManagedProvider(cfg ManagerConfig) (Provider, error) {
	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaProvider(OllamaConfig{
			Endpoint:   cfg.Endpoint,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		}), nil
	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
