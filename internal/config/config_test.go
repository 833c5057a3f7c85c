package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
	if cfg.SocketPath == "" {
		t.Error("SocketPath should not be empty")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel should be 'info', got %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat should be 'json', got %s", cfg.LogFormat)
	}
}

func TestDefaultConfig_UnixSocketPath(t *testing.T) {
	cfg := DefaultConfig()
	if !strings.HasSuffix(cfg.SocketPath, ".sock") {
		t.Errorf("socket path should end with .sock, got %s", cfg.SocketPath)
	}
}

func TestDefaultConfig_APIDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout should be 30s, got %v", cfg.API.ReadTimeout)
	}
	if cfg.API.WriteTimeout != 2*time.Minute {
		t.Errorf("WriteTimeout should be 2m, got %v", cfg.API.WriteTimeout)
	}
	if cfg.API.IdleTimeout != 120*time.Second {
		t.Errorf("IdleTimeout should be 120s, got %v", cfg.API.IdleTimeout)
	}
}

func TestDefaultConfig_SQLDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if !strings.HasSuffix(cfg.SQL.Path, "catalog.db") {
		t.Errorf("SQL.Path should end with catalog.db, got %s", cfg.SQL.Path)
	}
	if !strings.Contains(cfg.SQL.Path, cfg.DataDir) {
		t.Errorf("SQL.Path should be within DataDir")
	}
	if cfg.SQL.StatementTimeout != 30*time.Second {
		t.Errorf("StatementTimeout should be 30s, got %v", cfg.SQL.StatementTimeout)
	}
	if cfg.SQL.Workers != 4 {
		t.Errorf("SQL.Workers should be 4, got %d", cfg.SQL.Workers)
	}
}

func TestDefaultConfig_VectorDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Vector.Host != "localhost" {
		t.Errorf("Vector.Host should be 'localhost', got %s", cfg.Vector.Host)
	}
	if cfg.Vector.Port != 6334 {
		t.Errorf("Vector.Port should be 6334, got %d", cfg.Vector.Port)
	}
	if cfg.Vector.Dimension != 768 {
		t.Errorf("Vector.Dimension should be 768, got %d", cfg.Vector.Dimension)
	}
	if cfg.Vector.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("Vector.EmbeddingModel should be 'nomic-embed-text', got %s", cfg.Vector.EmbeddingModel)
	}
}

func TestDefaultConfig_ESDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.ES.Enabled {
		t.Error("ES.Enabled should default to true")
	}
	if len(cfg.ES.Addresses) == 0 {
		t.Error("ES.Addresses should not be empty")
	}
	expectedEntities := []string{"patent", "project", "equip", "proposal", "evalp", "ancm"}
	for _, e := range expectedEntities {
		if _, ok := cfg.ES.Indices[e]; !ok {
			t.Errorf("ES.Indices should map entity %q to an index", e)
		}
	}
}

func TestDefaultConfig_GraphDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Graph.Host != "localhost" {
		t.Errorf("Graph.Host should be 'localhost', got %s", cfg.Graph.Host)
	}
	if cfg.Graph.Port != 6379 {
		t.Errorf("Graph.Port should be 6379, got %d", cfg.Graph.Port)
	}
	if cfg.Graph.PageRankTTL != 10*time.Minute {
		t.Errorf("Graph.PageRankTTL should be 10m, got %v", cfg.Graph.PageRankTTL)
	}
}

func TestDefaultConfig_LLMDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.Provider != "ollama" {
		t.Errorf("LLM.Provider should be 'ollama', got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "qwen2.5:14b" {
		t.Errorf("LLM.Model should be 'qwen2.5:14b', got %s", cfg.LLM.Model)
	}
	if cfg.LLM.Endpoint != "http://localhost:11434" {
		t.Errorf("LLM.Endpoint should be 'http://localhost:11434', got %s", cfg.LLM.Endpoint)
	}
	if cfg.LLM.MaxRetries != 2 {
		t.Errorf("LLM.MaxRetries should be 2, got %d", cfg.LLM.MaxRetries)
	}
}

func TestDefaultConfig_AnalyzerDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Analyzer.UseReasoningMode {
		t.Error("Analyzer.UseReasoningMode should default to false")
	}
	if !cfg.Analyzer.ExcludeEquipmentOnCapability {
		t.Error("Analyzer.ExcludeEquipmentOnCapability should default to true")
	}
}

func TestDefaultConfig_WorkflowDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Workflow.SubQueryMaxWorkers != 3 {
		t.Errorf("Workflow.SubQueryMaxWorkers should be 3, got %d", cfg.Workflow.SubQueryMaxWorkers)
	}
	if cfg.Workflow.ParallelBranchTimeout != 60*time.Second {
		t.Errorf("Workflow.ParallelBranchTimeout should be 60s, got %v", cfg.Workflow.ParallelBranchTimeout)
	}
}

func TestConfig_EnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := &Config{DataDir: tmpDir}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	info, err := os.Stat(tmpDir)
	if err != nil {
		t.Fatalf("DataDir not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", tmpDir)
	}
}

func TestLoad_DefaultsWhenNoConfig(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.LogLevel == "" {
		t.Error("LogLevel should have default value")
	}
	if cfg.Vector.Dimension != 768 {
		t.Errorf("Vector.Dimension should fall back to default, got %d", cfg.Vector.Dimension)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RDFUSION_LOG_LEVEL", "debug")
	t.Setenv("RDFUSION_LLM_MODEL", "llama3:8b")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel should be overridden to 'debug', got %s", cfg.LogLevel)
	}
	if cfg.LLM.Model != "llama3:8b" {
		t.Errorf("LLM.Model should be overridden to 'llama3:8b', got %s", cfg.LLM.Model)
	}
}

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/.rdfusion", filepath.Join(homeDir, ".rdfusion")},
		{"~/", homeDir},
		{"~", homeDir},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		result := expandPath(tt.input)
		if result != tt.expected {
			t.Errorf("expandPath(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}
