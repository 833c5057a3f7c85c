package models

import "time"

// QueryType is the coarse retrieval mode chosen by the analyzer.
type QueryType string

const (
	QueryTypeSQL    QueryType = "sql"
	QueryTypeRAG    QueryType = "rag"
	QueryTypeHybrid QueryType = "hybrid"
	QueryTypeSimple QueryType = "simple"
)

// QuerySubtype is the fine-grained intent label that drives SearchConfig
// resolution (spec §4.2).
type QuerySubtype string

const (
	SubtypeList               QuerySubtype = "list"
	SubtypeAggregation        QuerySubtype = "aggregation"
	SubtypeRanking            QuerySubtype = "ranking"
	SubtypeTrendAnalysis      QuerySubtype = "trend_analysis"
	SubtypeCrosstabAnalysis   QuerySubtype = "crosstab_analysis"
	SubtypeImpactRanking      QuerySubtype = "impact_ranking"
	SubtypeNationalityRanking QuerySubtype = "nationality_ranking"
	SubtypeConcept            QuerySubtype = "concept"
	SubtypeCompound           QuerySubtype = "compound"
	SubtypeRecommendation     QuerySubtype = "recommendation"
	SubtypeComparison         QuerySubtype = "comparison"
	SubtypeEvalpScore         QuerySubtype = "evalp_score"
	SubtypeEvalpPref          QuerySubtype = "evalp_pref"
)

// RankingType distinguishes a single-source ranking from one needing
// multi-source fusion (spec §4.1 ranking classifier).
type RankingType string

const (
	RankingSimple  RankingType = "simple"
	RankingComplex RankingType = "complex"
)

// Level is the requester's access/detail tier.
type Level string

const (
	LevelL1        Level = "L1"
	LevelL2        Level = "L2"
	LevelL3        Level = "L3"
	LevelL4        Level = "L4"
	LevelL5        Level = "L5"
	LevelL6        Level = "L6"
	LevelElementary Level = "elementary"
	LevelGeneral    Level = "general"
	LevelExpert     Level = "expert"
)

// MergeStrategy controls how compound sub-query results are combined.
type MergeStrategy string

const (
	MergeParallel   MergeStrategy = "parallel"
	MergeSequential MergeStrategy = "sequential"
)

// MaxHistoryLength bounds conversation_history per spec invariant §3.3.
const MaxHistoryLength = 20

// ChatMessage is one turn of conversation history.
type ChatMessage struct {
	Role      string    `json:"role"` // "user" | "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// StructuredKeywords holds the analyzer's typed keyword buckets (spec §3).
// Country tokens and entity-type nouns live here, never in Keywords.
type StructuredKeywords struct {
	Tech    []string `json:"tech,omitempty"`
	Org     []string `json:"org,omitempty"`
	Country []string `json:"country,omitempty"`
	Region  []string `json:"region,omitempty"`
	Filter  []string `json:"filter,omitempty"`
	Metric  []string `json:"metric,omitempty"`
}

// SubQuery is one decomposed piece of a compound query (spec §3).
type SubQuery struct {
	Index       int          `json:"index"`
	Intent      string       `json:"intent"`
	Subtype     QuerySubtype `json:"subtype"`
	QueryType   QueryType    `json:"query_type"`
	Keywords    []string     `json:"keywords"`
	EntityTypes []string     `json:"entity_types"`
	DependsOn   *int         `json:"depends_on,omitempty"`
	Priority    int          `json:"priority"`
	Context     interface{}  `json:"context,omitempty"`
}

// SubQueryResult carries a sub-query's outcome plus its original index so
// compound output can be re-sorted deterministically (spec invariant §3.8).
type SubQueryResult struct {
	Index      int         `json:"index"`
	SubQuery   SubQuery    `json:"sub_query"`
	SQLResult  *SQLResult  `json:"sql_result,omitempty"`
	RAGResults []SearchResult `json:"rag_results,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// SourceRef records provenance of a piece of context handed to the generator.
type SourceRef struct {
	Type       string `json:"type"` // "sql" | "vector" | "graph" | "elasticsearch"
	NodeID     string `json:"node_id,omitempty"`
	SQL        string `json:"sql,omitempty"`
	EntityType string `json:"entity_type,omitempty"`
	Label      string `json:"label,omitempty"`
}

// StatsBucket is one bucket of an ES aggregation result.
type StatsBucket struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// StatsBucketSet is the result of an ES aggregation for one entity.
type StatsBucketSet struct {
	Total   int           `json:"total"`
	Buckets []StatsBucket `json:"buckets"`
}

// WorkflowState is the immutable-per-node, merge-on-return record threaded
// through every workflow node (spec §3). Each node receives a state and
// returns an updated clone of it; the engine carries that clone forward.
type WorkflowState struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	Level     Level  `json:"level"`

	QueryType    QueryType    `json:"query_type"`
	QuerySubtype QuerySubtype `json:"query_subtype"`
	RankingType  RankingType  `json:"ranking_type"`

	Keywords           []string `json:"keywords"`
	SynonymKeywords    []string `json:"synonym_keywords"`
	ExpandedKeywords   []string `json:"expanded_keywords"`
	EntityKeywords     map[string][]string `json:"entity_keywords,omitempty"`
	StructuredKeywords StructuredKeywords  `json:"structured_keywords"`
	EntityTypes        []string `json:"entity_types"`

	IsCompound    bool          `json:"is_compound"`
	SubQueries    []SubQuery    `json:"sub_queries,omitempty"`
	MergeStrategy MergeStrategy `json:"merge_strategy,omitempty"`

	SearchConfig *SearchConfig `json:"search_config,omitempty"`

	ESDocIDs   map[string][]string `json:"es_doc_ids,omitempty"`
	DomainHits map[string]int      `json:"domain_hits,omitempty"`

	SQLResult        *SQLResult            `json:"sql_result,omitempty"`
	MultiSQLResults  map[string]*SQLResult `json:"multi_sql_results,omitempty"`

	RAGResults       []SearchResult  `json:"rag_results,omitempty"`
	ESRankingResults []RankingRow    `json:"es_ranking_results,omitempty"`

	ESStatistics    map[string]*StatsBucketSet `json:"es_statistics,omitempty"`
	StatisticsType  string                     `json:"statistics_type,omitempty"`

	SubQueryResults []SubQueryResult `json:"sub_query_results,omitempty"`

	Sources []SourceRef `json:"sources,omitempty"`

	Response            string        `json:"response"`
	ConversationHistory  []ChatMessage `json:"conversation_history,omitempty"`

	ContextQuality float64            `json:"context_quality"`
	StageTiming    map[string]float64 `json:"stage_timing,omitempty"`

	Error string `json:"error,omitempty"`

	// IsEquipmentQuery flags the equipment fast path (spec §4.1, scenario 5).
	IsEquipmentQuery bool `json:"is_equipment_query,omitempty"`
	// QueryIntent carries a human-readable classification label, including
	// the analyzer-failure sentinel "분류 실패" (spec §4.1 failure path).
	QueryIntent string `json:"query_intent,omitempty"`
}

// RankingRow is one row of an ES terms-aggregation ranking (spec §4.6).
type RankingRow struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Score float64 `json:"score,omitempty"`
}

// NewWorkflowState constructs a fresh per-turn state (spec §3 "Lifecycle").
func NewWorkflowState(query, sessionID string, level Level, entityTypes []string) *WorkflowState {
	return &WorkflowState{
		Query:           query,
		SessionID:       sessionID,
		Level:           level,
		EntityTypes:     append([]string(nil), entityTypes...),
		EntityKeywords:  map[string][]string{},
		ESDocIDs:        map[string][]string{},
		DomainHits:      map[string]int{},
		MultiSQLResults: map[string]*SQLResult{},
		ESStatistics:    map[string]*StatsBucketSet{},
		StageTiming:     map[string]float64{},
	}
}

// Clone returns a copy of the state whose slices and maps are copied one
// level deep (pointer fields are shared), used by each node as the base it
// updates and returns.
func (s *WorkflowState) Clone() *WorkflowState {
	clone := *s
	clone.Keywords = append([]string(nil), s.Keywords...)
	clone.SynonymKeywords = append([]string(nil), s.SynonymKeywords...)
	clone.ExpandedKeywords = append([]string(nil), s.ExpandedKeywords...)
	clone.EntityTypes = append([]string(nil), s.EntityTypes...)
	clone.SubQueries = append([]SubQuery(nil), s.SubQueries...)
	clone.RAGResults = append([]SearchResult(nil), s.RAGResults...)
	clone.ESRankingResults = append([]RankingRow(nil), s.ESRankingResults...)
	clone.SubQueryResults = append([]SubQueryResult(nil), s.SubQueryResults...)
	clone.Sources = append([]SourceRef(nil), s.Sources...)
	clone.ConversationHistory = append([]ChatMessage(nil), s.ConversationHistory...)

	clone.EntityKeywords = make(map[string][]string, len(s.EntityKeywords))
	for k, v := range s.EntityKeywords {
		clone.EntityKeywords[k] = append([]string(nil), v...)
	}
	clone.ESDocIDs = make(map[string][]string, len(s.ESDocIDs))
	for k, v := range s.ESDocIDs {
		clone.ESDocIDs[k] = append([]string(nil), v...)
	}
	clone.DomainHits = make(map[string]int, len(s.DomainHits))
	for k, v := range s.DomainHits {
		clone.DomainHits[k] = v
	}
	clone.MultiSQLResults = make(map[string]*SQLResult, len(s.MultiSQLResults))
	for k, v := range s.MultiSQLResults {
		clone.MultiSQLResults[k] = v
	}
	clone.ESStatistics = make(map[string]*StatsBucketSet, len(s.ESStatistics))
	for k, v := range s.ESStatistics {
		clone.ESStatistics[k] = v
	}
	clone.StageTiming = make(map[string]float64, len(s.StageTiming))
	for k, v := range s.StageTiming {
		clone.StageTiming[k] = v
	}
	return &clone
}

// WorkflowResult is the outward-facing shape of a completed turn (spec §6).
type WorkflowResult struct {
	SessionID           string             `json:"session_id"`
	Response            string             `json:"response"`
	Sources             []SourceRef        `json:"sources"`
	ContextQuality      float64            `json:"context_quality"`
	StageTiming         map[string]float64 `json:"stage_timing"`
	Error               string             `json:"error,omitempty"`
	ConversationHistory []ChatMessage      `json:"conversation_history"`
}
