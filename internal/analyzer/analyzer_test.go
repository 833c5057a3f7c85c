package analyzer

import (
	"context"
	"testing"

	"github.com/simpleflo/rdfusion/internal/backend/llmx"
	"github.com/simpleflo/rdfusion/pkg/models"
)

// stubProvider is a fixed-response llmx.Provider for analyzer tests.
type stubProvider struct {
	response string
	err      error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) IsAvailable(ctx context.Context) (bool, error) { return true, nil }

func (s *stubProvider) Chat(ctx context.Context, messages []llmx.Message, opts llmx.ChatOptions) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubProvider) GenerateWithReasoning(ctx context.Context, prompt, systemPrompt string, maxTokens int) (llmx.ReasoningResult, error) {
	return llmx.ReasoningResult{Answer: s.response}, s.err
}

func TestAnalyze_GreetingFastPath(t *testing.T) {
	a := New(&stubProvider{}, Config{})
	res := a.Analyze(context.Background(), "안녕하세요 도움말 좀 줄래?", "sess-1", models.LevelGeneral)
	if res.QueryType != models.QueryTypeSimple {
		t.Fatalf("expected simple query type, got %s", res.QueryType)
	}
}

func TestAnalyze_EquipmentFastPath(t *testing.T) {
	a := New(&stubProvider{}, Config{})
	res := a.Analyze(context.Background(), "수도권 지역에 측정기 보유 현황 알려줘", "sess-2", models.LevelGeneral)
	if !res.IsEquipment {
		t.Fatalf("expected equipment fast path, got %+v", res)
	}
	if res.QueryType != models.QueryTypeSQL || res.QuerySubtype != models.SubtypeList {
		t.Errorf("unexpected type/subtype: %s/%s", res.QueryType, res.QuerySubtype)
	}
}

func TestAnalyze_LLMPath_CountryAndKeywordScrub(t *testing.T) {
	a := New(&stubProvider{response: `{"query_type":"rag","query_subtype":"concept","keywords":["배터리","한국"],"entity_types":["patent"]}`}, Config{})
	res := a.Analyze(context.Background(), "한국 배터리 관련 특허 찾아줘", "sess-3", models.LevelExpert)
	if len(res.Structured.Country) != 1 || res.Structured.Country[0] != "KR" {
		t.Fatalf("expected country KR extracted, got %+v", res.Structured.Country)
	}
	for _, kw := range res.Keywords {
		if kw == "한국" {
			t.Errorf("country token should be scrubbed from keywords: %+v", res.Keywords)
		}
	}
}

func TestAnalyze_ExplicitEntityOverrideSynthesizesSubQueries(t *testing.T) {
	a := New(&stubProvider{response: `{"query_type":"sql","query_subtype":"list","keywords":["배터리"],"entity_types":[]}`}, Config{})
	res := a.Analyze(context.Background(), "배터리 관련 특허와 과제를 모두 보여줘", "sess-4", models.LevelExpert)
	if !res.IsCompound {
		t.Fatalf("expected compound decomposition, got %+v", res)
	}
	if len(res.SubQueries) != 2 {
		t.Fatalf("expected 2 sub-queries, got %d", len(res.SubQueries))
	}
	for i, sq := range res.SubQueries {
		if sq.Index != i || sq.Priority != i {
			t.Errorf("sub-query %d has wrong index/priority: %+v", i, sq)
		}
	}
}

func TestAnalyze_LLMFailureFallsBackToSimple(t *testing.T) {
	a := New(&stubProvider{err: errBoom}, Config{})
	res := a.Analyze(context.Background(), "매우 복잡한 질의입니다 분석해줘", "sess-5", models.LevelGeneral)
	if res.QueryType != models.QueryTypeSimple || res.Error == "" {
		t.Fatalf("expected simple fallback with error recorded, got %+v", res)
	}
}

func TestAnalyze_TrendRegexOverridesSubtype(t *testing.T) {
	a := New(&stubProvider{response: `{"query_type":"sql","query_subtype":"list","keywords":["반도체"],"entity_types":["patent"]}`}, Config{})
	res := a.Analyze(context.Background(), "반도체 특허 연도별 동향 분석", "sess-6", models.LevelExpert)
	if res.QuerySubtype != models.SubtypeTrendAnalysis {
		t.Fatalf("expected trend_analysis override, got %s", res.QuerySubtype)
	}
}

var errBoom = &boomError{}

type boomError struct{}

func (e *boomError) Error() string { return "boom" }
