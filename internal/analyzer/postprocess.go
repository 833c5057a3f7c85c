package analyzer

import (
	"regexp"
	"strings"

	"github.com/simpleflo/rdfusion/internal/catalog"
	"github.com/simpleflo/rdfusion/pkg/models"
)

// explicitEntityNouns maps a literal noun mention in the raw query to its
// entity type, used by the explicit-entity override (spec §4.1).
var explicitEntityNouns = map[string]string{
	"특허":  "patent",
	"과제":  "project",
	"연구과제": "project",
	"장비":  "equip",
	"연구장비": "equip",
	"제안서": "proposal",
	"공고":  "ancm",
}

var trendPattern = regexp.MustCompile(`(동향|추이|연도별|연간|분포|통계)`)
var crosstabOrgPattern = regexp.MustCompile(`(TOP|상위|주요)`)
var crosstabEntityPattern = regexp.MustCompile(`(출원기관|권리자|기관별)`)
var crosstabTimePattern = regexp.MustCompile(`(연도별|연간|추이)`)

var complexRankingCues = regexp.MustCompile(`(등록률|비율|피인용|평균|증가율|점유율|성장률|연도별|추이|분포|현황)`)

// applyPostProcessing runs the deterministic post-LLM passes in spec order:
// country extraction, entity-noun stopword strip, explicit-entity override,
// trend/crosstab regex, ranking classification.
func applyPostProcessing(query string, res *Result) {
	applyCountryExtraction(query, res)
	res.Keywords = catalog.StripEntityNouns(res.Keywords)
	applyExplicitEntityOverride(query, res)
	applyTrendCrosstabRegex(query, res)
	res.RankingType = classifyRanking(query)

	if len(res.EntityTypes) == 0 {
		res.EntityTypes = append([]string(nil), catalog.DefaultEntityTypes...)
	}
}

// applyCountryExtraction implements invariant §3.4: country tokens are
// scrubbed from keywords and placed only in structured_keywords.country.
func applyCountryExtraction(query string, res *Result) {
	codes, _ := catalog.ExtractCountries(query)
	if len(codes) == 0 {
		return
	}
	res.Structured.Country = codes

	kept := make([]string, 0, len(res.Keywords))
	for _, kw := range res.Keywords {
		if !catalog.IsCountryToken(kw) {
			kept = append(kept, kw)
		}
	}
	res.Keywords = kept
}

// applyExplicitEntityOverride overrides the LLM's entity_types with the
// union of literally-mentioned entity nouns, and synthesizes one sub-query
// per entity when ≥2 are mentioned and the LLM did not already decompose
// (spec §4.1).
func applyExplicitEntityOverride(query string, res *Result) {
	seen := make(map[string]bool)
	var explicit []string
	for noun, entity := range explicitEntityNouns {
		if !strings.Contains(query, noun) {
			continue
		}
		if !seen[entity] {
			seen[entity] = true
			explicit = append(explicit, entity)
		}
	}
	if len(explicit) == 0 {
		return
	}

	res.EntityTypes = explicit

	if len(explicit) >= 2 && len(res.SubQueries) == 0 {
		res.IsCompound = true
		res.SubQueries = make([]models.SubQuery, 0, len(explicit))
		for i, entity := range explicit {
			res.SubQueries = append(res.SubQueries, models.SubQuery{
				Index:       i,
				Intent:      query,
				Subtype:     models.SubtypeList,
				QueryType:   models.QueryTypeSQL,
				Keywords:    append([]string(nil), res.Keywords...),
				EntityTypes: []string{entity},
				Priority:    i,
			})
		}
	}
}

// applyTrendCrosstabRegex forces subtype overrides for trend/crosstab cues
// (spec §4.1).
func applyTrendCrosstabRegex(query string, res *Result) {
	if crosstabOrgPattern.MatchString(query) && crosstabEntityPattern.MatchString(query) && crosstabTimePattern.MatchString(query) {
		res.QueryType = models.QueryTypeSQL
		res.QuerySubtype = models.SubtypeCrosstabAnalysis
		return
	}
	if trendPattern.MatchString(query) {
		res.QueryType = models.QueryTypeSQL
		res.QuerySubtype = models.SubtypeTrendAnalysis
	}
}

// classifyRanking implements the ranking classifier (spec §4.1 "Ranking
// classifier"): complex cues force a multi-source fusion path; otherwise
// simple.
func classifyRanking(query string) models.RankingType {
	if complexRankingCues.MatchString(query) {
		return models.RankingComplex
	}
	codes, _ := catalog.ExtractCountries(query)
	if len(codes) > 1 {
		return models.RankingComplex
	}
	return models.RankingSimple
}
