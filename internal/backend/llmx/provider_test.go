package llmx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaProvider_Name(t *testing.T) {
	p := NewOllamaProvider(OllamaConfig{Endpoint: "http://localhost:11434", Model: "qwen2.5:14b"})
	if p.Name() != "ollama" {
		t.Errorf("expected ollama, got %s", p.Name())
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"models": []map[string]string{{"name": "qwen2.5:14b"}}})
	}))
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{Endpoint: server.URL, Model: "qwen2.5:14b"})
	ok, err := p.IsAvailable(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected available, got ok=%v err=%v", ok, err)
	}
}

func TestOllamaProvider_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": `{"query_type":"sql"}`},
			"done":    true,
		})
	}))
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{Endpoint: server.URL, Model: "qwen2.5:14b"})
	out, err := p.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, ChatOptions{JSONMode: true})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if out != `{"query_type":"sql"}` {
		t.Errorf("unexpected content: %s", out)
	}
}

func TestSplitReasoning(t *testing.T) {
	r := splitReasoning("Thinking: because X\nAnswer: the result is Y")
	if r.Thinking != "because X" {
		t.Errorf("expected thinking 'because X', got %q", r.Thinking)
	}
	if r.Answer != "the result is Y" {
		t.Errorf("expected answer 'the result is Y', got %q", r.Answer)
	}
}

func TestSplitReasoning_NoMarkers(t *testing.T) {
	r := splitReasoning("plain answer")
	if r.Answer != "plain answer" {
		t.Errorf("expected fallback to full text, got %q", r.Answer)
	}
	if r.Thinking != "" {
		t.Errorf("expected empty thinking, got %q", r.Thinking)
	}
}

func TestNewManagedProvider(t *testing.T) {
	p, err := NewManagedProvider(ManagerConfig{Provider: "ollama", Model: "qwen2.5:14b", Endpoint: "http://localhost:11434"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("expected ollama provider, got %s", p.Name())
	}

	if _, err := NewManagedProvider(ManagerConfig{Provider: "bogus"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
