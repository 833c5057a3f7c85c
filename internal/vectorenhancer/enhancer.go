// Package vectorenhancer implements the Vector Enhancer: a keyword
// expansion pass that mines dense-search hits for terms worth adding to the
// query before SQL/ES execution (spec §4.4).
package vectorenhancer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/simpleflo/rdfusion/internal/backend/llmx"
	"github.com/simpleflo/rdfusion/internal/backend/vectorx"
	"github.com/simpleflo/rdfusion/internal/keyword"
	"github.com/simpleflo/rdfusion/internal/observability"
)

// hitsPerCollection bounds the dense-search fetch per entity collection
// before payload concatenation (spec §4.4 "up to 100 hits per collection").
const hitsPerCollection = 100

// Enhancer runs the per-entity dense-search → tokenize → frequency-filter →
// payload-verify → optional-LLM-review pipeline.
type Enhancer struct {
	store      *vectorx.Store
	embeddings *vectorx.EmbeddingService
	llm        llmx.Provider // optional; nil skips the review step
	logger     zerolog.Logger
}

// New constructs an Enhancer. llm may be nil to skip the optional review
// step (spec §4.4 "Optionally run an LLM review step").
func New(store *vectorx.Store, embeddings *vectorx.EmbeddingService, llm llmx.Provider) *Enhancer {
	return &Enhancer{store: store, embeddings: embeddings, llm: llm, logger: observability.Logger("vectorenhancer")}
}

// EntityExtraction is the per-entity diagnostic detail backing
// `keyword_extraction_result` (spec §4.4 contract).
type EntityExtraction struct {
	HitCount          int      `json:"hit_count"`
	CandidateKeywords []string `json:"candidate_keywords"`
	LLMReviewed       bool     `json:"llm_reviewed"`
}

// Result is the Vector Enhancer's contract output: `state →
// {expanded_keywords, entity_keywords, keyword_extraction_result}`.
type Result struct {
	ExpandedKeywords []string
	EntityKeywords   map[string][]string
	Detail           map[string]EntityExtraction
}

// Run executes the single- or multi-entity pipeline depending on
// len(entityTypes) (spec §4.4 "Single-entity case" / "Multi-entity case").
func (e *Enhancer) Run(ctx context.Context, query string, keywords, entityTypes []string) (Result, error) {
	result := Result{EntityKeywords: map[string][]string{}, Detail: map[string]EntityExtraction{}}
	if len(entityTypes) == 0 || e.store == nil || e.embeddings == nil {
		return result, nil
	}

	vector, err := e.embeddings.Embed(ctx, query)
	if err != nil {
		e.logger.Warn().Err(err).Msg("vector enhancer embed failed, skipping expansion")
		return result, nil
	}

	hitsByEntity, err := e.store.SearchMany(ctx, entityTypes, vector, vectorx.SearchOptions{Limit: hitsPerCollection})
	if err != nil {
		return result, fmt.Errorf("vector enhancer search: %w", err)
	}

	var unionOrder []string
	seen := make(map[string]bool)

	// Multi-entity case runs the single-entity pipeline per entity
	// independently so one entity's dominant vocabulary cannot dilute
	// another's (spec §4.4 "prevents cross-entity keyword dilution").
	for _, entityType := range entityTypes {
		hits := hitsByEntity[entityType]
		payloads := make([]string, 0, len(hits))
		for _, h := range hits {
			payloads = append(payloads, h.Payload)
		}

		candidates := keyword.ExtractCandidates(keywords, payloads)
		reviewed := false
		if e.llm != nil && len(candidates) > 0 {
			filtered, err := e.reviewWithLLM(ctx, keywords, candidates)
			if err != nil {
				e.logger.Warn().Err(err).Str("entity", entityType).Msg("vector enhancer llm review failed, keeping unreviewed candidates")
			} else {
				candidates = filtered
				reviewed = true
			}
		}

		result.EntityKeywords[entityType] = candidates
		result.Detail[entityType] = EntityExtraction{HitCount: len(hits), CandidateKeywords: candidates, LLMReviewed: reviewed}

		for _, c := range candidates {
			if !seen[c] {
				seen[c] = true
				unionOrder = append(unionOrder, c)
			}
		}
	}

	result.ExpandedKeywords = unionOrder
	return result, nil
}

// reviewWithLLM sends (original_keywords, candidate_expansion) to the LLM
// and returns the filtered JSON array it responds with (spec §4.4).
func (e *Enhancer) reviewWithLLM(ctx context.Context, original, candidates []string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Original keywords: %s\nCandidate expansion keywords: %s\n\nReturn a JSON array containing only the candidate keywords that are genuinely relevant additions to the original keywords. Respond with the JSON array only.",
		strings.Join(original, ", "), strings.Join(candidates, ", "),
	)
	content, err := e.llm.Chat(ctx, []llmx.Message{
		{Role: "system", Content: "You filter candidate search keywords. Respond with a JSON array of strings only."},
		{Role: "user", Content: prompt},
	}, llmx.ChatOptions{JSONMode: true, MaxTokens: 256})
	if err != nil {
		return nil, err
	}

	var filtered []string
	if err := json.Unmarshal([]byte(extractJSONArray(content)), &filtered); err != nil {
		return nil, fmt.Errorf("decode llm review response: %w", err)
	}
	return filtered, nil
}

// extractJSONArray strips common LLM wrapping (code fences, surrounding
// prose) down to the first top-level JSON array.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end < start {
		return "[]"
	}
	return s[start : end+1]
}
