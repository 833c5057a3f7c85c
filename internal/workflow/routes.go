package workflow

import "github.com/simpleflo/rdfusion/pkg/models"

// Node names as they appear in the static topology (spec §4.9).
const (
	NodeAnalyzer        = "analyzer"
	NodeESScout         = "es_scout"
	NodeVectorEnhancer  = "vector_enhancer"
	NodeSQL             = "sql_node"
	NodeRAG             = "rag_node"
	NodeParallel        = "parallel"
	NodeParallelRanking = "parallel_ranking"
	NodeSubQueries      = "sub_queries"
	NodeMerger          = "merger"
	NodeGenerator       = "generator"
)

func primarySourcesEqual(cfg *models.SearchConfig, sources ...models.SearchSource) bool {
	if cfg == nil || len(cfg.PrimarySources) != len(sources) {
		return false
	}
	for i, s := range sources {
		if cfg.PrimarySources[i] != s {
			return false
		}
	}
	return true
}

func hasEntity(entityTypes []string, targets ...string) bool {
	set := make(map[string]bool, len(targets))
	for _, t := range targets {
		set[t] = true
	}
	for _, e := range entityTypes {
		if set[e] {
			return true
		}
	}
	return false
}

// RouteAfterESScout implements spec §4.9 "After es_scout".
func RouteAfterESScout(state *models.WorkflowState) string {
	switch {
	case state.QueryType == models.QueryTypeSimple && len(state.EntityTypes) == 0 && len(state.Keywords) == 0:
		return NodeGenerator
	case state.QuerySubtype == models.SubtypeConcept:
		return NodeRAG
	case state.QuerySubtype == models.SubtypeTrendAnalysis || state.QuerySubtype == models.SubtypeCrosstabAnalysis:
		return NodeSQL
	default:
		// Including compound, so keyword expansion runs even for compound
		// queries (spec §4.9).
		return NodeVectorEnhancer
	}
}

// RouteAfterVectorEnhancer implements spec §4.9 "After vector_enhancer".
func RouteAfterVectorEnhancer(state *models.WorkflowState) string {
	switch {
	case hasEntity(state.EntityTypes, "evalp", "evalp_pref", "evalp_detail", "ancm"):
		return NodeSQL
	case state.IsCompound:
		return NodeSubQueries
	case primarySourcesEqual(state.SearchConfig, models.SourceSQL):
		return NodeSQL
	case primarySourcesEqual(state.SearchConfig, models.SourceVector):
		return NodeRAG
	case state.RankingType == models.RankingComplex:
		return NodeParallelRanking
	default:
		switch state.QueryType {
		case models.QueryTypeSQL:
			return NodeSQL
		case models.QueryTypeRAG:
			return NodeRAG
		default:
			return NodeParallel
		}
	}
}

// RouteAfterSQLNode implements spec §4.9 "After sql_node".
func RouteAfterSQLNode(state *models.WorkflowState) string {
	if state.StatisticsType != "" && len(state.ESStatistics) > 0 {
		return NodeGenerator
	}
	if state.QueryType == models.QueryTypeHybrid || len(state.MultiSQLResults) > 1 {
		return NodeMerger
	}
	return NodeGenerator
}

// RouteAfterRAGNode implements spec §4.9 "After rag_node".
func RouteAfterRAGNode(state *models.WorkflowState) string {
	if state.QueryType == models.QueryTypeHybrid {
		return NodeMerger
	}
	return NodeGenerator
}

// RouteToGenerator always proceeds to the generator; used after merger.
// The fan-out nodes (parallel, parallel_ranking, sub_queries) route to
// merger via RouteToMerger, so they reach the generator through merger.
func RouteToGenerator(state *models.WorkflowState) string { return NodeGenerator }

// RouteToMerger always proceeds to the merger.
func RouteToMerger(state *models.WorkflowState) string { return NodeMerger }

// RouteExit ends the turn.
func RouteExit(state *models.WorkflowState) string { return "" }
