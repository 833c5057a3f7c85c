// Package analyzer classifies a user query into a typed retrieval plan:
// query type/subtype, entity set, structured keywords, and (for compound
// queries) a sub-query decomposition (spec §4.1).
package analyzer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/simpleflo/rdfusion/internal/backend/llmx"
	"github.com/simpleflo/rdfusion/internal/observability"
	"github.com/simpleflo/rdfusion/pkg/models"
)

// Config controls analyzer feature flags (spec §9 open question).
// UseReasoningMode selects the reasoning preamble in the classification
// prompt. ExcludeEquipmentOnCapability is carried from configuration but
// nothing reads it: the ES Scout's domain filter drops the equipment domain
// on a capability cue unconditionally.
type Config struct {
	UseReasoningMode             bool
	ExcludeEquipmentOnCapability bool
}

// Result is the analyzer's output contract (spec §4.1).
type Result struct {
	QueryType    models.QueryType
	QuerySubtype models.QuerySubtype
	RankingType  models.RankingType
	Keywords     []string
	Structured   models.StructuredKeywords
	EntityTypes  []string
	IsCompound   bool
	SubQueries   []models.SubQuery
	IsEquipment  bool
	QueryIntent  string
	Error        string
}

// Analyzer turns a raw query into a Result.
type Analyzer struct {
	llm    llmx.Provider
	cfg    Config
	logger zerolog.Logger
}

// New constructs an Analyzer backed by an LLM provider.
func New(llm llmx.Provider, cfg Config) *Analyzer {
	return &Analyzer{llm: llm, cfg: cfg, logger: observability.Logger("analyzer")}
}

// Analyze implements the analyzer contract (spec §4.1).
func (a *Analyzer) Analyze(ctx context.Context, query, sessionID string, level models.Level) *Result {
	log := observability.WithSessionID(a.logger, sessionID)

	if res, ok := matchGreeting(query); ok {
		log.Info().Str("path", "greeting").Msg("fast path")
		return res
	}

	if res, ok := matchEquipment(query); ok {
		log.Info().Str("path", "equipment").Msg("fast path")
		return res
	}

	res, err := a.classifyWithLLM(ctx, query)
	if err != nil {
		log.Warn().Err(err).Msg("analyzer LLM classification failed")
		return &Result{
			QueryType:   models.QueryTypeSimple,
			QueryIntent: "분류 실패",
			Error:       err.Error(),
		}
	}

	applyPostProcessing(query, res)
	decomposeCompound(query, res)

	return res
}

// classifyWithLLM issues the single structured-JSON classification call
// (spec §4.1 "LLM path") and returns the raw, pre-postprocessing result.
func (a *Analyzer) classifyWithLLM(ctx context.Context, query string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	prompt := buildClassificationPrompt(query, a.cfg.UseReasoningMode)
	raw, err := a.llm.Chat(ctx, []llmx.Message{
		{Role: "system", Content: classificationSystemPrompt},
		{Role: "user", Content: prompt},
	}, llmx.ChatOptions{MaxTokens: 800, Temperature: 0.1, JSONMode: true})
	if err != nil {
		return nil, err
	}

	parsed, err := parseClassification(raw)
	if err != nil {
		return nil, err
	}
	return parsed, nil
}
