package generator

import (
	"context"
	"testing"

	"github.com/simpleflo/rdfusion/internal/backend/llmx"
)

type stubProvider struct {
	lastMaxTokens int
}

func (s *stubProvider) Name() string { return "stub" }
func (s *stubProvider) IsAvailable(ctx context.Context) (bool, error) { return true, nil }
func (s *stubProvider) Chat(ctx context.Context, messages []llmx.Message, opts llmx.ChatOptions) (string, error) {
	s.lastMaxTokens = opts.MaxTokens
	return "answer", nil
}
func (s *stubProvider) GenerateWithReasoning(ctx context.Context, prompt, systemPrompt string, maxTokens int) (llmx.ReasoningResult, error) {
	return llmx.ReasoningResult{}, nil
}

func TestGenerateUsesComplexBudgetForMultiEntity(t *testing.T) {
	stub := &stubProvider{}
	g := New(stub)
	_, err := g.Generate(context.Background(), Input{Query: "q", Context: "table", MultiEntity: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.lastMaxTokens != complexTokenBudget {
		t.Fatalf("expected complex token budget %d, got %d", complexTokenBudget, stub.lastMaxTokens)
	}
}

func TestGenerateUsesBaseBudgetForSingleTable(t *testing.T) {
	stub := &stubProvider{}
	g := New(stub)
	_, err := g.Generate(context.Background(), Input{Query: "q", Context: "table"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.lastMaxTokens != baseTokenBudget {
		t.Fatalf("expected base token budget %d, got %d", baseTokenBudget, stub.lastMaxTokens)
	}
}

func TestGenerateApologizesWithoutProvider(t *testing.T) {
	g := New(nil)
	resp, err := g.Generate(context.Background(), Input{})
	if err != nil {
		t.Fatalf("expected nil error when no llm provider is configured, got %v", err)
	}
	if resp != apologyMessage {
		t.Fatalf("expected apology message when no llm provider is configured, got %q", resp)
	}
}
