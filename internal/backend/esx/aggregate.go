package esx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/simpleflo/rdfusion/pkg/models"
)

// TrendAggregation implements spec §4.6 "AGGREGATION for trend_analysis":
// a date-histogram over the entity's date field, restricted to the last
// ten years by default, filtered by keyword multi-match and optional
// country terms.
func (c *Client) TrendAggregation(ctx context.Context, entityType, dateField string, keywords, countries []string) (*models.StatsBucketSet, error) {
	index := c.Index(entityType)
	if index == "" {
		return nil, fmt.Errorf("no es index configured for entity %q", entityType)
	}

	now := time.Now()
	start := fmt.Sprintf("now-%dy/y", defaultTrendYears)
	_ = now

	body := map[string]interface{}{
		"size":  0,
		"query": boolQuery(joinKeywords(keywords), countryFilters(countries), &DateRange{Field: dateField, Start: start}),
		"aggs": map[string]interface{}{
			"by_year": map[string]interface{}{
				"date_histogram": map[string]interface{}{
					"field":    dateField,
					"calendar_interval": "year",
					"format":   "yyyy",
				},
			},
		},
	}

	raw, err := c.runAggregation(ctx, index, body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
		} `json:"hits"`
		Aggregations struct {
			ByYear struct {
				Buckets []struct {
					KeyAsString string `json:"key_as_string"`
					DocCount    int    `json:"doc_count"`
				} `json:"buckets"`
			} `json:"by_year"`
		} `json:"aggregations"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode trend aggregation: %w", err)
	}

	set := &models.StatsBucketSet{Total: parsed.Hits.Total.Value}
	for _, b := range parsed.Aggregations.ByYear.Buckets {
		set.Buckets = append(set.Buckets, models.StatsBucket{Key: b.KeyAsString, Count: b.DocCount})
	}
	return set, nil
}

const defaultTrendYears = 10

// CrosstabAggregation implements spec §4.6 "AGGREGATION for
// crosstab_analysis": nested aggregation by applicant x year with a
// post-filter requiring count >= 3, emitted as one StatsBucket per
// organization (Key=org name, Extra carries per-year counts plus
// nationality and rank).
func (c *Client) CrosstabAggregation(ctx context.Context, entityType, orgField, dateField, nationalityField string, keywords, countries []string, years []int) (*models.StatsBucketSet, error) {
	index := c.Index(entityType)
	if index == "" {
		return nil, fmt.Errorf("no es index configured for entity %q", entityType)
	}

	body := map[string]interface{}{
		"size":  0,
		"query": boolQuery(joinKeywords(keywords), countryFilters(countries), nil),
		"aggs": map[string]interface{}{
			"by_org": map[string]interface{}{
				"terms": map[string]interface{}{"field": orgField, "size": 50},
				"aggs": map[string]interface{}{
					"by_year": map[string]interface{}{
						"date_histogram": map[string]interface{}{"field": dateField, "calendar_interval": "year", "format": "yyyy"},
					},
					"nationality": map[string]interface{}{
						"terms": map[string]interface{}{"field": nationalityField, "size": 1},
					},
				},
			},
		},
	}

	raw, err := c.runAggregation(ctx, index, body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Aggregations struct {
			ByOrg struct {
				Buckets []struct {
					Key      string `json:"key"`
					DocCount int    `json:"doc_count"`
					ByYear   struct {
						Buckets []struct {
							KeyAsString string `json:"key_as_string"`
							DocCount    int    `json:"doc_count"`
						} `json:"buckets"`
					} `json:"by_year"`
					Nationality struct {
						Buckets []struct {
							Key string `json:"key"`
						} `json:"buckets"`
					} `json:"nationality"`
				} `json:"buckets"`
			} `json:"by_org"`
		} `json:"aggregations"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode crosstab aggregation: %w", err)
	}

	type row struct {
		org         string
		total       int
		nationality string
		byYear      map[string]int
	}
	var rows []row
	for _, b := range parsed.Aggregations.ByOrg.Buckets {
		if b.DocCount < 3 {
			continue // crosstab post-filter, spec §4.6 "count >= 3"
		}
		r := row{org: b.Key, total: b.DocCount, byYear: make(map[string]int)}
		if len(b.Nationality.Buckets) > 0 {
			r.nationality = b.Nationality.Buckets[0].Key
		}
		for _, y := range b.ByYear.Buckets {
			r.byYear[y.KeyAsString] = y.DocCount
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].total > rows[j].total })

	set := &models.StatsBucketSet{}
	for i, r := range rows {
		set.Total += r.total
		extra := map[string]interface{}{"rank": i + 1, "nationality": r.nationality}
		for _, y := range years {
			key := strconv.Itoa(y)
			extra[key] = r.byYear[key]
		}
		set.Buckets = append(set.Buckets, models.StatsBucket{Key: r.org, Count: r.total, Extra: extra})
	}
	return set, nil
}

// SimpleRankingAggregation implements spec §4.6 "AGGREGATION for
// simple_ranking": a terms aggregation on the applicant/org field, top-K.
func (c *Client) SimpleRankingAggregation(ctx context.Context, entityType, orgField string, keywords []string, limit int) ([]models.RankingRow, error) {
	index := c.Index(entityType)
	if index == "" {
		return nil, fmt.Errorf("no es index configured for entity %q", entityType)
	}
	if limit <= 0 {
		limit = 10
	}

	body := map[string]interface{}{
		"size":  0,
		"query": boolQuery(joinKeywords(keywords), nil, nil),
		"aggs": map[string]interface{}{
			"by_org": map[string]interface{}{"terms": map[string]interface{}{"field": orgField, "size": limit}},
		},
	}

	raw, err := c.runAggregation(ctx, index, body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Aggregations struct {
			ByOrg struct {
				Buckets []struct {
					Key      string `json:"key"`
					DocCount int    `json:"doc_count"`
				} `json:"buckets"`
			} `json:"by_org"`
		} `json:"aggregations"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode simple_ranking aggregation: %w", err)
	}

	out := make([]models.RankingRow, 0, len(parsed.Aggregations.ByOrg.Buckets))
	for _, b := range parsed.Aggregations.ByOrg.Buckets {
		out = append(out, models.RankingRow{Name: b.Key, Count: b.DocCount})
	}
	return out, nil
}

// EntityStatistics implements the generic backend contract's
// `entity_statistics(entity_type, keywords, countries?, start_year?,
// end_year?, group_by)` operation (spec §6 "ES"), dispatching to the
// date-histogram shape used by trend analysis.
func (c *Client) EntityStatistics(ctx context.Context, entityType string, keywords, countries []string, startYear, endYear int, groupBy string) (*models.StatsBucketSet, error) {
	return c.TrendAggregation(ctx, entityType, groupBy, keywords, countries)
}

func (c *Client) runAggregation(ctx context.Context, index string, body map[string]interface{}) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode es aggregation body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("es aggregation request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("es aggregation error: %s", res.String())
	}

	var raw json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode es aggregation response: %w", err)
	}
	return raw, nil
}

func joinKeywords(keywords []string) string {
	out := ""
	for i, k := range keywords {
		if i > 0 {
			out += " "
		}
		out += k
	}
	return out
}

func countryFilters(countries []string) map[string]string {
	if len(countries) == 0 {
		return nil
	}
	// Only a single-country equality filter is representable as an ES term
	// filter here; multi-country/NOT_KR negation is applied by the caller
	// via a post-filter on the result set when needed.
	return map[string]string{"nationality": countries[0]}
}
