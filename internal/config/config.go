// Package config handles configuration loading for the retrieval
// orchestrator: viper-backed, nested mapstructure config with environment
// overrides and sane defaults, the same shape the teacher uses for Conduit.
package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	if path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return homeDir
	}
	return path
}

// Config holds all orchestrator configuration.
type Config struct {
	DataDir    string `mapstructure:"data_dir"`
	SocketPath string `mapstructure:"socket"`
	LogLevel   string `mapstructure:"log_level"`
	LogFormat  string `mapstructure:"log_format"`

	API       APIConfig      `mapstructure:"api"`
	SQL       SQLConfig      `mapstructure:"sql"`
	Vector    VectorConfig   `mapstructure:"vector"`
	ES        ESConfig       `mapstructure:"es"`
	Graph     GraphConfig    `mapstructure:"graph"`
	LLM       LLMConfig      `mapstructure:"llm"`
	Analyzer  AnalyzerConfig `mapstructure:"analyzer"`
	Workflow  WorkflowConfig `mapstructure:"workflow"`
	Resources ResourcesConfig `mapstructure:"resources"`
}

// ResourcesConfig holds the paths to the bit-exact static resources spec §6
// names (the synonym file; the schema catalog and country-code map are
// compiled into the `catalog` package rather than loaded from disk).
type ResourcesConfig struct {
	SynonymFile string `mapstructure:"synonym_file"`
}

// APIConfig holds the HTTP/SSE server's timeout configuration.
type APIConfig struct {
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// SQLConfig holds the relational backend's connection settings.
type SQLConfig struct {
	Path              string        `mapstructure:"path"`
	StatementTimeout  time.Duration `mapstructure:"statement_timeout"`
	Workers           int           `mapstructure:"workers"`
}

// VectorConfig holds the dense-vector store's connection settings.
type VectorConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	CollectionName string `mapstructure:"collection_name"`
	Dimension      int    `mapstructure:"dimension"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	OllamaHost     string `mapstructure:"ollama_host"`
}

// ESConfig holds the keyword/aggregation engine's connection settings.
type ESConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addresses []string      `mapstructure:"addresses"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// Indices maps an entity type to its ES index name.
	Indices map[string]string `mapstructure:"indices"`
}

// GraphConfig holds the graph-analytics service's connection settings.
type GraphConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	GraphName      string        `mapstructure:"graph_name"`
	Password       string        `mapstructure:"password"`
	PageRankTTL    time.Duration `mapstructure:"pagerank_ttl"`
	LouvainTTL     time.Duration `mapstructure:"louvain_ttl"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
}

// LLMConfig holds the chat-completion backend's settings.
type LLMConfig struct {
	Provider            string        `mapstructure:"provider"` // "ollama" | "anthropic"
	Model               string        `mapstructure:"model"`
	Endpoint            string        `mapstructure:"endpoint"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRetries          int           `mapstructure:"max_retries"`
	ReasoningTimeout    time.Duration `mapstructure:"reasoning_timeout"`
}

// AnalyzerConfig holds query-analyzer feature flags (spec §6 env vars).
type AnalyzerConfig struct {
	UseReasoningMode            bool `mapstructure:"use_reasoning_mode"`
	ExcludeEquipmentOnCapability bool `mapstructure:"exclude_equipment_on_capability"`
}

// WorkflowConfig holds workflow-engine concurrency/timeout settings (spec §5).
type WorkflowConfig struct {
	SubQueryMaxWorkers    int           `mapstructure:"sub_query_max_workers"`
	ParallelBranchTimeout time.Duration `mapstructure:"parallel_branch_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".rdfusion")

	return &Config{
		DataDir:    dataDir,
		SocketPath: filepath.Join(dataDir, "rdfusion.sock"),
		LogLevel:   "info",
		LogFormat:  "json",

		API: APIConfig{
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  120 * time.Second,
		},

		SQL: SQLConfig{
			Path:             filepath.Join(dataDir, "catalog.db"),
			StatementTimeout: 30 * time.Second,
			Workers:          4,
		},

		Vector: VectorConfig{
			Host:           "localhost",
			Port:           6334,
			CollectionName: "rdfusion_corpus",
			Dimension:      768,
			EmbeddingModel: "nomic-embed-text",
			OllamaHost:     "http://localhost:11434",
		},

		ES: ESConfig{
			Enabled:   true,
			Addresses: []string{"http://localhost:9200"},
			Timeout:   30 * time.Second,
			Indices: map[string]string{
				"patent":   "patents",
				"project":  "projects",
				"equip":    "equipment",
				"proposal": "proposals",
				"evalp":    "evaluations",
				"ancm":     "announcements",
			},
		},

		Graph: GraphConfig{
			Host:         "localhost",
			Port:         6379,
			GraphName:    "rdfusion_kg",
			PageRankTTL:  10 * time.Minute,
			LouvainTTL:   10 * time.Minute,
			QueryTimeout: 120 * time.Second,
		},

		LLM: LLMConfig{
			Provider:         "ollama",
			Model:            "qwen2.5:14b",
			Endpoint:         "http://localhost:11434",
			Timeout:          120 * time.Second,
			MaxRetries:       2,
			ReasoningTimeout: 180 * time.Second,
		},

		Analyzer: AnalyzerConfig{
			UseReasoningMode:             false,
			ExcludeEquipmentOnCapability: true,
		},

		Workflow: WorkflowConfig{
			SubQueryMaxWorkers:    3,
			ParallelBranchTimeout: 60 * time.Second,
		},

		Resources: ResourcesConfig{
			SynonymFile: filepath.Join(dataDir, "synonyms.txt"),
		},
	}
}

// Load loads configuration from files and environment.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("rdfusion")
	v.SetConfigType("yaml")

	homeDir, _ := os.UserHomeDir()
	v.AddConfigPath(filepath.Join(homeDir, ".rdfusion"))
	v.AddConfigPath("/etc/rdfusion")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RDFUSION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows, so bind every leaf key to its
	// RDFUSION_<SECTION>_<KEY> variable.
	var bindEnv func(t reflect.Type, prefix string)
	bindEnv = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			key := prefix + t.Field(i).Tag.Get("mapstructure")
			if t.Field(i).Type.Kind() == reflect.Struct {
				bindEnv(t.Field(i).Type, key+".")
			} else {
				_ = v.BindEnv(key)
			}
		}
	}
	bindEnv(reflect.TypeOf(*cfg), "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	cfg.DataDir = expandPath(cfg.DataDir)
	cfg.SocketPath = expandPath(cfg.SocketPath)
	cfg.SQL.Path = expandPath(cfg.SQL.Path)
	cfg.Resources.SynonymFile = expandPath(cfg.Resources.SynonymFile)

	return cfg, nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return nil
}
