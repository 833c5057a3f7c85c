// Package generator turns the Merger's fused context into the final answer
// text via the LLM chat backend (spec §4.8).
package generator

import (
	"context"
	"fmt"

	"github.com/simpleflo/rdfusion/internal/backend/llmx"
	"github.com/simpleflo/rdfusion/pkg/models"
)

// baseTokenBudget and complexTokenBudget implement spec §4.8 "Token budget
// scales with structural complexity: multi-entity or dual-table outputs
// get a higher cap than single-table answers."
const (
	baseTokenBudget    = 800
	complexTokenBudget = 2000
)

// noHallucinationRule is the system-prompt clause spec §4.8 requires
// ("Must not invent facts outside provided context").
const noHallucinationRule = "Answer using only the facts present in the provided context tables. Do not invent organizations, counts, dates, or other facts that are not in the context. If the context is insufficient to answer, say so plainly."

// noDataMessage is emitted when every upstream source failed to produce any
// context (spec §7 "MergeError ... generator produces a 'no data found'
// answer"); it is returned without an LLM call since there is nothing in
// context for the model to ground an answer in.
const noDataMessage = "요청하신 조건에 해당하는 데이터를 찾지 못했습니다. 검색어나 조건을 조정해 다시 시도해 주세요."

// apologyMessage is the fixed template for spec §7 "ResponseGenerationError
// ... surfaced to the user with a fixed apology template; the turn is still
// considered complete."
const apologyMessage = "답변을 생성하는 중 오류가 발생했습니다. 잠시 후 다시 시도해 주세요."

// Generator produces the final natural-language answer from merged context.
type Generator struct {
	llm llmx.Provider
}

// New constructs a Generator over the shared LLM chat backend.
func New(llm llmx.Provider) *Generator {
	return &Generator{llm: llm}
}

// Input is the Generator's contract input (spec §4.8).
type Input struct {
	Query          string
	Level          models.Level
	Subtype        models.QuerySubtype
	ContextQuality float64
	Context        string // pre-formatted Markdown tables from the Merger
	MultiEntity    bool   // multiple entity tables present
	DualTable      bool   // e.g. complex_ranking's SQL+ES dual table
	IsGreeting     bool   // analyzer greeting/help fast path (spec §4.1)
	HadSources     bool   // at least one upstream branch attempted retrieval
}

// Generate produces the final response string. On every failure path it
// returns a non-empty response and a nil error — per spec §7 the turn is
// always considered complete; only the response text signals the failure.
func (g *Generator) Generate(ctx context.Context, in Input) (string, error) {
	if !in.IsGreeting && in.HadSources && in.Context == "" {
		// MergeError: every source failed to produce context (spec §7).
		return noDataMessage, nil
	}

	if g.llm == nil {
		return apologyMessage, nil
	}

	maxTokens := baseTokenBudget
	if in.MultiEntity || in.DualTable {
		maxTokens = complexTokenBudget
	}

	systemPrompt := fmt.Sprintf(
		"%s\n\nRespond at a level appropriate for audience tier %q. Query type: %s.",
		noHallucinationRule, in.Level, in.Subtype,
	)
	userPrompt := fmt.Sprintf("Question: %s\n\nContext quality score: %.2f\n\nContext:\n%s", in.Query, in.ContextQuality, in.Context)

	content, err := g.llm.Chat(ctx, []llmx.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}, llmx.ChatOptions{MaxTokens: maxTokens, Temperature: 0.2})
	if err != nil {
		// ResponseGenerationError (spec §7): fixed apology, turn still completes.
		return apologyMessage, nil
	}
	return content, nil
}
