package searchconfig

import "github.com/simpleflo/rdfusion/pkg/models"

// Resolver resolves a query's subtype and entity types into a SearchConfig
// (spec §4.2).
type Resolver struct {
	loaders *LoaderRegistry
}

// New constructs a Resolver backed by a loader registry.
func New(loaders *LoaderRegistry) *Resolver {
	if loaders == nil {
		loaders = DefaultLoaderRegistry()
	}
	return &Resolver{loaders: loaders}
}

func isEvalpEntity(entity string) bool {
	switch entity {
	case "evalp", "evalp_pref", "evalp_detail":
		return true
	}
	return false
}

func hasEntity(entities []string, target string) bool {
	for _, e := range entities {
		if e == target {
			return true
		}
	}
	return false
}

func anyEvalpEntity(entities []string) bool {
	for _, e := range entities {
		if isEvalpEntity(e) {
			return true
		}
	}
	return false
}

// Resolve implements the resolver contract: state → SearchConfig. The
// static table is deep-copied, then adjusted by query_type and then by
// entity types, so the entity rules (evalp SQL-only, equip ES+VECTOR) take
// precedence over the query-type rules (spec §4.2).
func (r *Resolver) Resolve(subtype models.QuerySubtype, ranking models.RankingType, queryType models.QueryType, entityTypes []string) *models.SearchConfig {
	base, ok := lookup(subtype, ranking)
	if !ok {
		base = baseTable[models.SubtypeList]
	}
	cfg := base.Clone()

	applyQueryTypeAdjustments(cfg, queryType)
	r.applyEntityAdjustments(cfg, subtype, entityTypes)
	r.applyLoaderExistenceCheck(cfg)

	return cfg
}

// applyEntityAdjustments implements spec §4.2 "Entity adjustments".
func (r *Resolver) applyEntityAdjustments(cfg *models.SearchConfig, subtype models.QuerySubtype, entityTypes []string) {
	if anyEvalpEntity(entityTypes) {
		cfg.PrimarySources = []models.SearchSource{models.SourceSQL}
		cfg.FallbackSources = nil
		cfg.GraphRAGStrategy = models.GraphRAGNone
		cfg.ESMode = models.ESModeOff
		cfg.UseLoader = true
		if cfg.LoaderName == "" {
			cfg.LoaderName = "ScoringLoader"
		}
		return
	}

	if hasEntity(entityTypes, "equip") && (subtype == models.SubtypeList || subtype == models.SubtypeRecommendation) {
		cfg.PrimarySources = []models.SearchSource{models.SourceES, models.SourceVector}
		cfg.FallbackSources = []models.SearchSource{models.SourceSQL}
		if cfg.ESMode == models.ESModeOff {
			cfg.ESMode = models.ESModeKeywordBoost
		}
	}

	if hasEntity(entityTypes, "patent") && (subtype == models.SubtypeList || subtype == models.SubtypeRanking) {
		if cfg.ESMode == models.ESModeOff {
			cfg.ESMode = models.ESModeKeywordBoost
		}
	}

	if hasEntity(entityTypes, "proposal") && subtype == models.SubtypeRecommendation {
		cfg.LoaderName = "CollaborationLoader"
		cfg.UseLoader = true
		cfg.GraphRAGStrategy = models.GraphRAGGraphEnhanced
	}
}

// applyQueryTypeAdjustments implements spec §4.2 "Query-type adjustments".
func applyQueryTypeAdjustments(cfg *models.SearchConfig, queryType models.QueryType) {
	switch queryType {
	case models.QueryTypeSimple:
		cfg.PrimarySources = nil
	case models.QueryTypeSQL:
		cfg.PrimarySources = []models.SearchSource{models.SourceSQL}
		cfg.FallbackSources = nil
		cfg.GraphRAGStrategy = models.GraphRAGNone
	case models.QueryTypeRAG:
		cfg.PrimarySources = withoutSource(cfg.PrimarySources, models.SourceSQL)
		if cfg.GraphRAGStrategy == models.GraphRAGNone {
			cfg.GraphRAGStrategy = models.GraphRAGVectorOnly
		}
	case models.QueryTypeHybrid:
		if !cfg.HasPrimary(models.SourceSQL) {
			cfg.PrimarySources = append([]models.SearchSource{models.SourceSQL}, cfg.PrimarySources...)
		}
		if cfg.GraphRAGStrategy == models.GraphRAGNone {
			cfg.GraphRAGStrategy = models.GraphRAGHybrid
		}
	}
}

func withoutSource(sources []models.SearchSource, target models.SearchSource) []models.SearchSource {
	out := make([]models.SearchSource, 0, len(sources))
	for _, s := range sources {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

// applyLoaderExistenceCheck implements spec §4.2 "Loader existence check".
func (r *Resolver) applyLoaderExistenceCheck(cfg *models.SearchConfig) {
	if cfg.UseLoader && !r.loaders.Has(cfg.LoaderName) {
		cfg.UseLoader = false
	}
}
