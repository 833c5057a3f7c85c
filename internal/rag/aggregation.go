package rag

import (
	"context"
	"time"

	"github.com/simpleflo/rdfusion/pkg/models"
)

// aggregationFields names the ES fields each entity's aggregation modes key
// off of. The ES index is a denormalized projection of the SQL schema, so
// the organization/nationality fields here are the ES-side equivalents of
// `internal/catalog`'s `org_name`/`ntcd` SQL columns.
type aggregationFields struct {
	dateField        string
	orgField         string
	nationalityField string
}

var entityAggregationFields = map[string]aggregationFields{
	"patent":   {dateField: "appn_date", orgField: "applicant_name", nationalityField: "ntcd"},
	"project":  {dateField: "year", orgField: "org_name", nationalityField: "ntcd"},
	"proposal": {dateField: "year", orgField: "org_name", nationalityField: "ntcd"},
}

// runAggregation implements spec §4.6's three ES aggregation modes,
// dispatching on query subtype.
func (r *Retriever) runAggregation(ctx context.Context, keywords, countries, entityTypes []string, subtype models.QuerySubtype) (Result, error) {
	if r.es == nil || len(entityTypes) == 0 {
		return Result{}, nil
	}
	entityType := entityTypes[0]
	fields, ok := entityAggregationFields[entityType]
	if !ok {
		return Result{}, nil
	}

	switch subtype {
	case models.SubtypeTrendAnalysis:
		set, err := r.es.TrendAggregation(ctx, entityType, fields.dateField, keywords, countries)
		if err != nil {
			return Result{}, err
		}
		return Result{Strategy: models.GraphRAGNone, Sources: []models.SourceRef{{Type: "elasticsearch", EntityType: entityType, Label: "trend_analysis"}}, ESRankingResults: statsToRanking(set)}, nil

	case models.SubtypeCrosstabAnalysis:
		years := lastNYears(10)
		set, err := r.es.CrosstabAggregation(ctx, entityType, fields.orgField, fields.dateField, fields.nationalityField, keywords, countries, years)
		if err != nil {
			return Result{}, err
		}
		return Result{Strategy: models.GraphRAGNone, Sources: []models.SourceRef{{Type: "elasticsearch", EntityType: entityType, Label: "crosstab_analysis"}}, ESRankingResults: statsToRanking(set)}, nil

	default: // simple_ranking and any other AGGREGATION-mode subtype
		rows, err := r.es.SimpleRankingAggregation(ctx, entityType, fields.orgField, keywords, 10)
		if err != nil {
			return Result{}, err
		}
		return Result{Strategy: models.GraphRAGNone, Sources: []models.SourceRef{{Type: "elasticsearch", EntityType: entityType, Label: "simple_ranking"}}, ESRankingResults: rows}, nil
	}
}

func statsToRanking(set *models.StatsBucketSet) []models.RankingRow {
	if set == nil {
		return nil
	}
	out := make([]models.RankingRow, 0, len(set.Buckets))
	for _, b := range set.Buckets {
		out = append(out, models.RankingRow{Name: b.Key, Count: b.Count})
	}
	return out
}

func lastNYears(n int) []int {
	year := time.Now().Year()
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, year-i)
	}
	return out
}
