// Package searchconfig resolves an analyzer Result into a per-request
// SearchConfig: which backends to query, in which order, with what merge
// priority (spec §4.2).
package searchconfig

import "github.com/simpleflo/rdfusion/pkg/models"

// baseTable is the static subtype → SearchConfig map (spec §4.2 "Subtype
// table"), deep-copied per call via SearchConfig.Clone before adjustment.
var baseTable = map[models.QuerySubtype]*models.SearchConfig{
	models.SubtypeList: {
		PrimarySources:   []models.SearchSource{models.SourceSQL},
		GraphRAGStrategy: models.GraphRAGNone,
		ESMode:           models.ESModeOff,
		SQLLimit:         50,
		MergePriority:    map[string]int{"sql": 0},
	},
	models.SubtypeAggregation: {
		PrimarySources:   []models.SearchSource{models.SourceSQL},
		GraphRAGStrategy: models.GraphRAGNone,
		ESMode:           models.ESModeOff,
		SQLLimit:         50,
		MergePriority:    map[string]int{"sql": 0},
	},
	models.SubtypeTrendAnalysis: {
		PrimarySources:   []models.SearchSource{models.SourceSQL},
		GraphRAGStrategy: models.GraphRAGNone,
		ESMode:           models.ESModeAggregation,
		SQLLimit:         50,
		ESLimit:          0,
		MergePriority:    map[string]int{"sql": 0, "es": 1},
	},
	models.SubtypeCrosstabAnalysis: {
		PrimarySources:   []models.SearchSource{models.SourceSQL},
		GraphRAGStrategy: models.GraphRAGNone,
		ESMode:           models.ESModeAggregation,
		SQLLimit:         50,
		MergePriority:    map[string]int{"sql": 0, "es": 1},
	},
	models.SubtypeNationalityRanking: {
		PrimarySources:   []models.SearchSource{models.SourceSQL},
		GraphRAGStrategy: models.GraphRAGNone,
		ESMode:           models.ESModeOff,
		SQLLimit:         20,
		MergePriority:    map[string]int{"sql": 0},
	},
	models.SubtypeImpactRanking: {
		PrimarySources:   []models.SearchSource{models.SourceSQL, models.SourceGraph},
		GraphRAGStrategy: models.GraphRAGGraphOnly,
		ESMode:           models.ESModeOff,
		SQLLimit:         50,
		MergePriority:    map[string]int{"sql": 0, "graph": 1},
	},
	models.SubtypeConcept: {
		PrimarySources:   []models.SearchSource{models.SourceVector},
		GraphRAGStrategy: models.GraphRAGHybrid,
		ESMode:           models.ESModeKeywordBoost,
		RAGLimit:         20,
		ESLimit:          20,
		MergePriority:    map[string]int{"vector": 0, "es": 1},
	},
	models.SubtypeRecommendation: {
		PrimarySources:    []models.SearchSource{models.SourceSQL, models.SourceVector},
		GraphRAGStrategy:  models.GraphRAGGraphEnhanced,
		ESMode:            models.ESModeKeywordBoost,
		SQLLimit:          20,
		RAGLimit:          20,
		ESLimit:           20,
		UseLoader:         true,
		LoaderName:        "CollaborationLoader",
		MergePriority:     map[string]int{"sql": 0, "vector": 1, "es": 2},
	},
	models.SubtypeComparison: {
		PrimarySources:   []models.SearchSource{models.SourceSQL, models.SourceVector},
		GraphRAGStrategy: models.GraphRAGHybrid,
		ESMode:           models.ESModeKeywordBoost,
		SQLLimit:         20,
		RAGLimit:         20,
		ESLimit:          20,
		MergePriority:    map[string]int{"sql": 0, "vector": 1, "es": 2},
	},
	models.SubtypeCompound: {
		PrimarySources:   []models.SearchSource{models.SourceSQL, models.SourceVector},
		GraphRAGStrategy: models.GraphRAGHybrid,
		ESMode:           models.ESModeKeywordBoost,
		SQLLimit:         20,
		RAGLimit:         20,
		ESLimit:          20,
		MergePriority:    map[string]int{"sql": 0, "vector": 1, "es": 2},
	},
	models.SubtypeEvalpScore: {
		PrimarySources:   []models.SearchSource{models.SourceSQL},
		GraphRAGStrategy: models.GraphRAGNone,
		ESMode:           models.ESModeOff,
		SQLLimit:         50,
		UseLoader:        true,
		LoaderName:       "ScoringLoader",
		MergePriority:    map[string]int{"sql": 0},
	},
	models.SubtypeEvalpPref: {
		PrimarySources:   []models.SearchSource{models.SourceSQL},
		GraphRAGStrategy: models.GraphRAGNone,
		ESMode:           models.ESModeOff,
		SQLLimit:         50,
		UseLoader:        true,
		LoaderName:       "AdvantageLoader",
		MergePriority:    map[string]int{"sql": 0},
	},
}

// rankingSimple and rankingComplex back the "ranking" subtype, which splits
// on ranking_type rather than having its own table row (spec §4.2:
// simple_ranking vs complex_ranking).
var rankingSimple = &models.SearchConfig{
	PrimarySources:   []models.SearchSource{models.SourceES, models.SourceVector},
	GraphRAGStrategy: models.GraphRAGGraphEnhanced,
	ESMode:           models.ESModeAggregation,
	ESLimit:          30,
	RAGLimit:         30,
	MergePriority:    map[string]int{"es": 0, "vector": 1},
}

var rankingComplex = &models.SearchConfig{
	PrimarySources:   []models.SearchSource{models.SourceSQL, models.SourceES},
	GraphRAGStrategy: models.GraphRAGNone,
	ESMode:           models.ESModeKeywordBoost,
	SQLLimit:         30,
	ESLimit:          30,
	UseLoader:        true,
	LoaderName:       "RankingLoader",
	MergePriority:    map[string]int{"sql": 0, "es": 1},
}

// lookup returns the base config for a subtype/ranking_type pair.
func lookup(subtype models.QuerySubtype, ranking models.RankingType) (*models.SearchConfig, bool) {
	if subtype == models.SubtypeRanking {
		if ranking == models.RankingComplex {
			return rankingComplex, true
		}
		return rankingSimple, true
	}
	cfg, ok := baseTable[subtype]
	return cfg, ok
}
