package models

// SearchSource identifies one of the four physical backends.
type SearchSource string

const (
	SourceSQL    SearchSource = "sql"
	SourceVector SearchSource = "vector"
	SourceES     SearchSource = "es"
	SourceGraph  SearchSource = "graph"
)

// GraphRAGStrategy selects how the RAG retriever combines graph and vector
// search for a given subtype (spec §4.6).
type GraphRAGStrategy string

const (
	GraphRAGNone           GraphRAGStrategy = "NONE"
	GraphRAGVectorOnly     GraphRAGStrategy = "VECTOR_ONLY"
	GraphRAGGraphOnly      GraphRAGStrategy = "GRAPH_ONLY"
	GraphRAGGraphEnhanced  GraphRAGStrategy = "GRAPH_ENHANCED"
	GraphRAGHybrid         GraphRAGStrategy = "HYBRID"
)

// ESMode selects how the ES backend is used for a given subtype (spec §4.2).
type ESMode string

const (
	ESModeOff          ESMode = "OFF"
	ESModeKeywordBoost ESMode = "KEYWORD_BOOST"
	ESModeAggregation  ESMode = "AGGREGATION"
)

// SearchConfig is the per-request retrieval strategy resolved from the
// query's subtype and entity types (spec §4.2).
type SearchConfig struct {
	PrimarySources  []SearchSource `json:"primary_sources"`
	FallbackSources []SearchSource `json:"fallback_sources"`

	GraphRAGStrategy GraphRAGStrategy `json:"graph_rag_strategy"`
	ESMode           ESMode           `json:"es_mode"`

	MergePriority map[string]int `json:"merge_priority"`

	SQLLimit int `json:"sql_limit"`
	RAGLimit int `json:"rag_limit"`
	ESLimit  int `json:"es_limit"`

	NeedVectorEnhancement bool `json:"need_vector_enhancement"`

	UseLoader  bool   `json:"use_loader"`
	LoaderName string `json:"loader_name,omitempty"`
}

// Clone returns a deep-enough copy for per-call mutation (the resolver
// deep-copies the static subtype table before adjusting it).
func (c *SearchConfig) Clone() *SearchConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.PrimarySources = append([]SearchSource(nil), c.PrimarySources...)
	clone.FallbackSources = append([]SearchSource(nil), c.FallbackSources...)
	clone.MergePriority = make(map[string]int, len(c.MergePriority))
	for k, v := range c.MergePriority {
		clone.MergePriority[k] = v
	}
	return &clone
}

// HasPrimary reports whether src is a primary source.
func (c *SearchConfig) HasPrimary(src SearchSource) bool {
	for _, s := range c.PrimarySources {
		if s == src {
			return true
		}
	}
	return false
}

// SearchResult is a normalized hit from the vector/graph/ES-ranking
// backends (spec §3).
type SearchResult struct {
	NodeID          string                 `json:"node_id"`
	Name            string                 `json:"name"`
	EntityType      string                 `json:"entity_type"`
	Description     string                 `json:"description"`
	Score           float64                `json:"score"`
	RelatedEntities []string               `json:"related_entities,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// SQLResult is the outcome of one SQL execution (spec §3).
type SQLResult struct {
	Success          bool            `json:"success"`
	Columns          []string        `json:"columns"`
	Rows             [][]interface{} `json:"rows"`
	RowCount         int             `json:"row_count"`
	Error            string          `json:"error,omitempty"`
	ExecutionTimeMs  float64         `json:"execution_time_ms"`
	GeneratedSQL     string          `json:"generated_sql"`
}

// Validate checks SQL invariant §3.6: every populated row has the same
// length as Columns.
func (r *SQLResult) Validate() bool {
	if r == nil {
		return true
	}
	for _, row := range r.Rows {
		if len(row) != len(r.Columns) {
			return false
		}
	}
	return true
}
