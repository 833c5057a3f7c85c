package workflow

import (
	"context"

	"github.com/simpleflo/rdfusion/internal/analyzer"
	"github.com/simpleflo/rdfusion/internal/backend/sqlx"
	"github.com/simpleflo/rdfusion/internal/esscout"
	"github.com/simpleflo/rdfusion/internal/generator"
	"github.com/simpleflo/rdfusion/internal/merger"
	"github.com/simpleflo/rdfusion/internal/rag"
	"github.com/simpleflo/rdfusion/internal/searchconfig"
	"github.com/simpleflo/rdfusion/internal/vectorenhancer"
	"github.com/simpleflo/rdfusion/pkg/models"
)

// AnalyzerNode runs the query analyzer and resolves its SearchConfig in one
// step, matching spec §4.1's contract which names `search_config` among the
// analyzer's own outputs.
type AnalyzerNode struct {
	analyzer *analyzer.Analyzer
	resolver *searchconfig.Resolver
}

func NewAnalyzerNode(a *analyzer.Analyzer, r *searchconfig.Resolver) *AnalyzerNode {
	return &AnalyzerNode{analyzer: a, resolver: r}
}

func (n *AnalyzerNode) Name() string { return NodeAnalyzer }

func (n *AnalyzerNode) Run(ctx context.Context, state *models.WorkflowState) (*models.WorkflowState, error) {
	res := n.analyzer.Analyze(ctx, state.Query, state.SessionID, state.Level)

	next := state.Clone()
	next.QueryType = res.QueryType
	next.QuerySubtype = res.QuerySubtype
	next.RankingType = res.RankingType
	next.Keywords = res.Keywords
	next.StructuredKeywords = res.Structured
	if len(res.EntityTypes) > 0 {
		next.EntityTypes = res.EntityTypes
	}
	next.IsCompound = res.IsCompound
	next.SubQueries = res.SubQueries
	next.IsEquipmentQuery = res.IsEquipment
	next.QueryIntent = res.QueryIntent
	if res.Error != "" {
		next.Error = res.Error
	}

	next.SearchConfig = n.resolver.Resolve(next.QuerySubtype, next.RankingType, next.QueryType, next.EntityTypes)
	return next, nil
}

// ESScoutNode runs the ES Scout cross-domain existence probe (spec §4.3).
type ESScoutNode struct {
	scout *esscout.Scout
}

func NewESScoutNode(s *esscout.Scout) *ESScoutNode { return &ESScoutNode{scout: s} }

func (n *ESScoutNode) Name() string { return NodeESScout }

func (n *ESScoutNode) Run(ctx context.Context, state *models.WorkflowState) (*models.WorkflowState, error) {
	res := n.scout.Run(ctx, state.Query, state.Keywords, state.EntityTypes)

	next := state.Clone()
	next.ESDocIDs = res.ESDocIDs
	next.DomainHits = res.DomainHits
	if len(res.EntityTypes) > 0 {
		next.EntityTypes = res.EntityTypes
	}
	if len(res.Keywords) > 0 {
		next.SynonymKeywords = res.Keywords
	}
	return next, nil
}

// VectorEnhancerNode runs the Vector Enhancer keyword expansion pass (spec
// §4.4).
type VectorEnhancerNode struct {
	enhancer *vectorenhancer.Enhancer
}

func NewVectorEnhancerNode(e *vectorenhancer.Enhancer) *VectorEnhancerNode {
	return &VectorEnhancerNode{enhancer: e}
}

func (n *VectorEnhancerNode) Name() string { return NodeVectorEnhancer }

func (n *VectorEnhancerNode) Run(ctx context.Context, state *models.WorkflowState) (*models.WorkflowState, error) {
	res, err := n.enhancer.Run(ctx, state.Query, state.Keywords, state.EntityTypes)
	if err != nil {
		return state, err
	}

	next := state.Clone()
	next.ExpandedKeywords = res.ExpandedKeywords
	next.EntityKeywords = res.EntityKeywords
	return next, nil
}

// SQLNode runs the SQL executor (spec §4.5).
type SQLNode struct {
	executor *sqlx.Executor
}

func NewSQLNode(e *sqlx.Executor) *SQLNode { return &SQLNode{executor: e} }

func (n *SQLNode) Name() string { return NodeSQL }

func (n *SQLNode) Run(ctx context.Context, state *models.WorkflowState) (*models.WorkflowState, error) {
	keywords := append(append([]string{}, state.Keywords...), state.ExpandedKeywords...)
	results, sources := n.executor.Execute(ctx, sqlx.Request{
		Query:        state.Query,
		QuerySubtype: state.QuerySubtype,
		EntityTypes:  state.EntityTypes,
		Keywords:     keywords,
		Structured:   state.StructuredKeywords,
		ESDocIDs:     state.ESDocIDs,
	})

	next := state.Clone()
	next.MultiSQLResults = results
	if len(state.EntityTypes) == 1 {
		if r, ok := results[state.EntityTypes[0]]; ok {
			next.SQLResult = r
		}
	}
	next.Sources = append(next.Sources, sources...)
	return next, nil
}

// RAGNode runs the RAG Retriever (spec §4.6).
type RAGNode struct {
	retriever *rag.Retriever
}

func NewRAGNode(r *rag.Retriever) *RAGNode { return &RAGNode{retriever: r} }

func (n *RAGNode) Name() string { return NodeRAG }

func (n *RAGNode) Run(ctx context.Context, state *models.WorkflowState) (*models.WorkflowState, error) {
	countries := state.StructuredKeywords.Country
	keywords := append(append([]string{}, state.Keywords...), state.ExpandedKeywords...)
	res, err := n.retriever.Run(ctx, state.Query, keywords, countries, state.EntityTypes, state.QuerySubtype, state.SearchConfig)
	if err != nil {
		return state, err
	}

	next := state.Clone()
	next.RAGResults = res.RAGResults
	if len(res.ESRankingResults) > 0 {
		next.ESRankingResults = res.ESRankingResults
		next.StatisticsType = string(state.QuerySubtype)
	}
	next.Sources = append(next.Sources, res.Sources...)
	return next, nil
}

// MergerNode fuses sql_result/multi_sql_results/rag_results/es_ranking_results
// into the final source set (spec §4.7).
type MergerNode struct{}

func NewMergerNode() *MergerNode { return &MergerNode{} }

func (n *MergerNode) Name() string { return NodeMerger }

func (n *MergerNode) Run(ctx context.Context, state *models.WorkflowState) (*models.WorkflowState, error) {
	next := state.Clone()

	if state.RankingType == models.RankingComplex {
		var esRanking, graphRanking []models.RankingRow
		esRanking = state.ESRankingResults
		next.SQLResult = merger.MergeComplexRanking(state.SQLResult, esRanking, graphRanking, merger.DefaultRRFConstant)
	}

	var priority map[string]int
	if state.SearchConfig != nil {
		priority = state.SearchConfig.MergePriority
	}
	next.Sources = merger.MergeSources(state.Sources, priority)

	return next, nil
}

// GeneratorNode produces the final answer text (spec §4.8).
type GeneratorNode struct {
	generator *generator.Generator
}

func NewGeneratorNode(g *generator.Generator) *GeneratorNode { return &GeneratorNode{generator: g} }

func (n *GeneratorNode) Name() string { return NodeGenerator }

func (n *GeneratorNode) Run(ctx context.Context, state *models.WorkflowState) (*models.WorkflowState, error) {
	multiEntity := len(state.MultiSQLResults) > 1 || len(state.EntityTypes) > 1
	dualTable := state.RankingType == models.RankingComplex
	quality := merger.ScoreContextQuality(state)
	hadSources := state.SearchConfig != nil && len(state.SearchConfig.PrimarySources) > 0

	response, err := n.generator.Generate(ctx, generator.Input{
		Query:          state.Query,
		Level:          state.Level,
		Subtype:        state.QuerySubtype,
		ContextQuality: quality,
		Context:        RenderContext(state),
		MultiEntity:    multiEntity,
		DualTable:      dualTable,
		IsGreeting:     state.QueryIntent == "인사",
		HadSources:     hadSources,
	})
	if err != nil {
		return state, err
	}

	next := state.Clone()
	next.Response = response
	next.ContextQuality = quality
	return next, nil
}
