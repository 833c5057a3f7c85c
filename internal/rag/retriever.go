// Package rag implements the RAG Retriever: strategy dispatch across the
// vector and graph backends, ES aggregation modes, and graph
// cross-validation scoring (spec §4.6).
package rag

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/simpleflo/rdfusion/internal/backend/esx"
	"github.com/simpleflo/rdfusion/internal/backend/graphx"
	"github.com/simpleflo/rdfusion/internal/backend/vectorx"
	"github.com/simpleflo/rdfusion/internal/merger"
	"github.com/simpleflo/rdfusion/internal/observability"
	"github.com/simpleflo/rdfusion/pkg/models"
)

// graphExpansionDecay is the weight applied to community-mate nodes added
// during GRAPH_ENHANCED expansion (spec §4.6).
const graphExpansionDecay = 0.5

// communityBoostLarge/Pair/Isolated implement spec §4.6 "Graph
// cross-validation (Phase 96 semantics)".
const (
	communityBoostLarge    = 1.2 // community size >= 3
	communityBoostPair     = 1.1 // community size == 2
	communityBoostIsolated = 0.9 // no community / size 1
)

// Retriever dispatches a query across the vector and graph backends
// according to the resolved SearchConfig's GraphRAGStrategy.
type Retriever struct {
	vectors    *vectorx.Store
	embeddings *vectorx.EmbeddingService
	graph      *graphx.Store
	es         *esx.Client
	logger     zerolog.Logger
}

// New constructs a Retriever. Any backend may be nil; strategies that need
// an absent backend degrade to the others rather than failing the turn.
func New(vectors *vectorx.Store, embeddings *vectorx.EmbeddingService, graph *graphx.Store, es *esx.Client) *Retriever {
	return &Retriever{vectors: vectors, embeddings: embeddings, graph: graph, es: es, logger: observability.Logger("rag")}
}

// Result is the RAG Retriever's contract output: `state → {rag_results,
// es_ranking_results?, search_strategy, sources}`.
type Result struct {
	RAGResults       []models.SearchResult
	ESRankingResults []models.RankingRow
	Strategy         models.GraphRAGStrategy
	Sources          []models.SourceRef
}

// Run executes the strategy named by cfg.GraphRAGStrategy, or the ES
// aggregation mode named by cfg.ESMode when that takes precedence (spec
// §4.6 "ES aggregation modes").
func (r *Retriever) Run(ctx context.Context, query string, keywords, countries, entityTypes []string, subtype models.QuerySubtype, cfg *models.SearchConfig) (Result, error) {
	if cfg != nil && cfg.ESMode == models.ESModeAggregation {
		return r.runAggregation(ctx, keywords, countries, entityTypes, subtype)
	}

	strategy := models.GraphRAGHybrid
	if cfg != nil && cfg.GraphRAGStrategy != "" {
		strategy = cfg.GraphRAGStrategy
	}

	var results []models.SearchResult
	var sources []models.SourceRef
	var err error

	switch strategy {
	case models.GraphRAGVectorOnly:
		results, sources, err = r.vectorOnly(ctx, query, entityTypes, cfg)
	case models.GraphRAGGraphOnly:
		results, sources, err = r.graphOnly(ctx, keywords)
	case models.GraphRAGGraphEnhanced:
		results, sources, err = r.graphEnhanced(ctx, query, keywords, entityTypes, cfg)
	default:
		results, sources, err = r.hybrid(ctx, query, keywords, entityTypes, cfg)
	}
	if err != nil {
		return Result{}, err
	}

	results = r.crossValidate(ctx, results)

	return Result{RAGResults: results, Strategy: strategy, Sources: sources}, nil
}

func (r *Retriever) collections(entityTypes []string, cfg *models.SearchConfig) []string {
	if len(entityTypes) > 0 {
		return entityTypes
	}
	return nil
}

// vectorOnly implements spec §4.6 "VECTOR_ONLY".
func (r *Retriever) vectorOnly(ctx context.Context, query string, entityTypes []string, cfg *models.SearchConfig) ([]models.SearchResult, []models.SourceRef, error) {
	if r.vectors == nil || r.embeddings == nil {
		return nil, nil, nil
	}
	collections := r.collections(entityTypes, cfg)
	if len(collections) == 0 {
		return nil, nil, nil
	}

	vector, err := r.embeddings.Embed(ctx, query)
	if err != nil {
		r.logger.Warn().Err(err).Msg("rag vector embed failed")
		return nil, nil, nil
	}

	hitsByEntity, err := r.vectors.SearchMany(ctx, collections, vector, vectorx.SearchOptions{Limit: 20})
	if err != nil {
		return nil, nil, err
	}

	var results []models.SearchResult
	var sources []models.SourceRef
	for entityType, hits := range hitsByEntity {
		for _, h := range hits {
			sr := searchResultFromVectorHit(h, entityType)
			results = append(results, sr)
			sources = append(sources, models.SourceRef{Type: "vector", NodeID: sr.NodeID, EntityType: entityType, Label: sr.Name})
		}
	}
	sortByScoreDesc(results)
	return results, sources, nil
}

// graphOnly implements spec §4.6 "GRAPH_ONLY": PageRank restricted to
// keyword-matching nodes, filtered to community members (the PageRank
// query itself already restricts to keyword matches; "community filter"
// here means every returned node must carry a community membership).
func (r *Retriever) graphOnly(ctx context.Context, keywords []string) ([]models.SearchResult, []models.SourceRef, error) {
	if r.graph == nil {
		return nil, nil, nil
	}
	nodes, err := r.graph.PageRankTopK(ctx, keywords, 20)
	if err != nil {
		r.logger.Warn().Err(err).Msg("rag graph pagerank failed")
		return nil, nil, nil
	}

	var results []models.SearchResult
	var sources []models.SourceRef
	for _, n := range nodes {
		if _, ok := r.graph.CommunityOf(ctx, n.NodeID); !ok {
			continue
		}
		sr := models.SearchResult{NodeID: n.NodeID, Name: n.Name, Score: n.Score, Metadata: map[string]interface{}{"source": "graph"}}
		results = append(results, sr)
		sources = append(sources, models.SourceRef{Type: "graph", NodeID: n.NodeID, Label: n.Name})
	}
	return results, sources, nil
}

// graphEnhanced implements spec §4.6 "GRAPH_ENHANCED": vector search, then
// expand each top hit with its Louvain community mates at a decayed weight.
func (r *Retriever) graphEnhanced(ctx context.Context, query string, keywords, entityTypes []string, cfg *models.SearchConfig) ([]models.SearchResult, []models.SourceRef, error) {
	baseResults, sources, err := r.vectorOnly(ctx, query, entityTypes, cfg)
	if err != nil || r.graph == nil {
		return baseResults, sources, err
	}

	seen := make(map[string]bool, len(baseResults))
	for _, b := range baseResults {
		seen[b.NodeID] = true
	}

	expanded := append([]models.SearchResult(nil), baseResults...)
	for _, b := range baseResults {
		membership, ok := r.graph.CommunityOf(ctx, b.NodeID)
		if !ok {
			continue
		}
		neighbors, err := r.graph.NeighborsOfNode(ctx, b.NodeID, 1)
		if err != nil {
			continue
		}
		for _, n := range neighbors {
			if seen[n.NodeID] {
				continue
			}
			mateMembership, ok := r.graph.CommunityOf(ctx, n.NodeID)
			if !ok || mateMembership.Community != membership.Community {
				continue
			}
			seen[n.NodeID] = true
			expanded = append(expanded, models.SearchResult{
				NodeID: n.NodeID,
				Name:   n.Name,
				Score:  b.Score * graphExpansionDecay,
				Metadata: map[string]interface{}{"source": "graph_expansion", "expanded_from": b.NodeID},
			})
			sources = append(sources, models.SourceRef{Type: "graph", NodeID: n.NodeID, Label: n.Name})
		}
	}
	sortByScoreDesc(expanded)
	return expanded, sources, nil
}

// hybrid implements spec §4.6 "HYBRID": graph and vector search run in
// parallel, fused by RRF (k=60) with `rrf_source` metadata tagging.
func (r *Retriever) hybrid(ctx context.Context, query string, keywords, entityTypes []string, cfg *models.SearchConfig) ([]models.SearchResult, []models.SourceRef, error) {
	type outcome struct {
		results []models.SearchResult
		sources []models.SourceRef
		err     error
	}
	vectorCh := make(chan outcome, 1)
	graphCh := make(chan outcome, 1)

	go func() {
		results, sources, err := r.vectorOnly(ctx, query, entityTypes, cfg)
		vectorCh <- outcome{results, sources, err}
	}()
	go func() {
		results, sources, err := r.graphOnly(ctx, keywords)
		graphCh <- outcome{results, sources, err}
	}()
	vectorOut := <-vectorCh
	graphOut := <-graphCh

	if vectorOut.err != nil {
		r.logger.Warn().Err(vectorOut.err).Msg("hybrid vector branch failed")
	}
	if graphOut.err != nil {
		r.logger.Warn().Err(graphOut.err).Msg("hybrid graph branch failed")
	}

	byID := make(map[string]models.SearchResult)
	for _, sr := range vectorOut.results {
		byID[sr.NodeID] = sr
	}
	for _, sr := range graphOut.results {
		if existing, ok := byID[sr.NodeID]; ok {
			mergeMetadata(&existing, sr.Metadata)
			byID[sr.NodeID] = existing
			continue
		}
		byID[sr.NodeID] = sr
	}

	lists := merger.RankedLists{
		"vector": nodeOrder(vectorOut.results),
		"graph":  nodeOrder(graphOut.results),
	}
	fused := merger.RRFFuse(lists, merger.DefaultRRFConstant)
	ranked := fused.SortedKeys(append(lists["vector"], lists["graph"]...))

	out := make([]models.SearchResult, 0, len(ranked))
	for _, rk := range ranked {
		sr, ok := byID[rk.Key]
		if !ok {
			continue
		}
		sr.Score = rk.Score
		sr.Metadata = withRRFSource(sr.Metadata, fused.Sources[rk.Key])
		out = append(out, sr)
	}

	sources := append(append([]models.SourceRef(nil), vectorOut.sources...), graphOut.sources...)
	return out, sources, nil
}

func withRRFSource(meta map[string]interface{}, sources []string) map[string]interface{} {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	hasVector, hasGraph := false, false
	for _, s := range sources {
		switch s {
		case "vector":
			hasVector = true
		case "graph":
			hasGraph = true
		}
	}
	switch {
	case hasVector && hasGraph:
		meta["rrf_source"] = "both"
	case hasGraph:
		meta["rrf_source"] = "graph"
	default:
		meta["rrf_source"] = "vector"
	}
	return meta
}

func mergeMetadata(dst *models.SearchResult, src map[string]interface{}) {
	if dst.Metadata == nil {
		dst.Metadata = map[string]interface{}{}
	}
	for k, v := range src {
		dst.Metadata[k] = v
	}
}

func nodeOrder(results []models.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.NodeID
	}
	return out
}

// crossValidate implements spec §4.6 "Graph cross-validation (Phase 96
// semantics)": group results by Louvain community, boost by community
// size, re-sort by adjusted score.
func (r *Retriever) crossValidate(ctx context.Context, results []models.SearchResult) []models.SearchResult {
	if r.graph == nil || len(results) == 0 {
		return results
	}
	out := make([]models.SearchResult, len(results))
	copy(out, results)

	for i := range out {
		membership, ok := r.graph.CommunityOf(ctx, out[i].NodeID)
		boost := communityBoostIsolated
		validated := false
		if ok {
			switch {
			case membership.CommunitySize >= 3:
				boost = communityBoostLarge
				validated = true
			case membership.CommunitySize == 2:
				boost = communityBoostPair
				validated = true
			}
		}
		out[i].Score *= boost
		if out[i].Metadata == nil {
			out[i].Metadata = map[string]interface{}{}
		}
		out[i].Metadata["graph_validated"] = validated
	}

	sortByScoreDesc(out)
	return out
}

func sortByScoreDesc(results []models.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
}

// searchResultFromVectorHit normalizes a dense-search hit into a
// SearchResult, attaching the entity id into related_entities for later
// graph linking (spec §4.6 "VECTOR_ONLY").
func searchResultFromVectorHit(h vectorx.SearchHit, entityType string) models.SearchResult {
	meta := map[string]interface{}{"source": "vector"}
	for k, v := range h.Metadata {
		meta[k] = v
	}
	related := []string{}
	if h.EntityID != "" {
		related = append(related, h.EntityID)
	}
	return models.SearchResult{
		NodeID:          h.EntityID,
		Name:            h.Title,
		EntityType:      entityType,
		Description:     h.Payload,
		Score:           float64(h.Score),
		RelatedEntities: related,
		Metadata:        meta,
	}
}
