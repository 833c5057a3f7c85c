// Package esx wraps the keyword/aggregation engine (Elasticsearch) behind
// the four operations the retrieval pipeline needs: search, aggregate,
// multi_search, and entity_statistics (spec §4.3, §4.6, §6 "ES").
package esx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog"

	"github.com/simpleflo/rdfusion/internal/observability"
)

// Config configures the ES client.
type Config struct {
	Addresses []string
	Timeout   time.Duration
	// Indices maps an entity type to its backing index name.
	Indices map[string]string
}

// Client wraps the official Elasticsearch client with the narrow operation
// set this module's backend contract requires (spec §6 "ES").
type Client struct {
	es      *elasticsearch.Client
	indices map[string]string
	timeout time.Duration
	logger  zerolog.Logger
}

// New constructs a Client. It does not verify connectivity; IsAvailable
// does.
func New(cfg Config) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		cfg.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: cfg.Addresses})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	return &Client{
		es:      es,
		indices: cfg.Indices,
		timeout: cfg.Timeout,
		logger:  observability.Logger("esx"),
	}, nil
}

// Index resolves an entity type to its ES index name, "" if unconfigured.
func (c *Client) Index(entityType string) string {
	return c.indices[entityType]
}

// IsAvailable pings the cluster. The daemon's healthz probe does not call
// it.
func (c *Client) IsAvailable(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	return !res.IsError(), nil
}

// Hit is one normalized ES search result.
type Hit struct {
	ID        string
	Score     float64
	Index     string
	Source    map[string]interface{}
	Highlight map[string][]string
}

// DateRange bounds a search/aggregation by a date field.
type DateRange struct {
	Field string
	Start string // inclusive, "YYYY-MM-DD" or ES date-math
	End   string
}

// SearchOptions controls a single keyword search (spec §6 "ES search").
type SearchOptions struct {
	Limit            int
	Filters          map[string]string
	DateRange        *DateRange
	IncludeHighlight bool
}

// searchFields lists the text fields a keyword multi_match query targets;
// every entity index in this module shares the title/summary/description
// shape (spec §6 "keyword search").
var searchFields = []string{"title^2", "summary", "description"}

// Search issues a best-effort keyword search against one entity's index
// (spec §4.3 step 3 "Per-domain search").
func (c *Client) Search(ctx context.Context, entityType, query string, opts SearchOptions) ([]Hit, error) {
	index := c.Index(entityType)
	if index == "" {
		return nil, fmt.Errorf("no es index configured for entity %q", entityType)
	}
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	body := map[string]interface{}{
		"size":  opts.Limit,
		"query": boolQuery(query, opts.Filters, opts.DateRange),
	}
	if opts.IncludeHighlight {
		body["highlight"] = map[string]interface{}{
			"fields": map[string]interface{}{"title": map[string]interface{}{}, "summary": map[string]interface{}{}},
		}
	}

	raw, err := c.do(ctx, func(buf *bytes.Buffer) (*esapi.Response, error) {
		return c.es.Search(
			c.es.Search.WithContext(ctx),
			c.es.Search.WithIndex(index),
			c.es.Search.WithBody(buf),
		)
	}, body)
	if err != nil {
		return nil, err
	}

	return parseHits(raw)
}

// MultiSearch runs several Search requests in a single ES _msearch round
// trip (spec §6 "multi_search").
type MultiSearchRequest struct {
	EntityType string
	Query      string
	Options    SearchOptions
}

func (c *Client) MultiSearch(ctx context.Context, requests []MultiSearchRequest) ([][]Hit, error) {
	if len(requests) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	for _, req := range requests {
		index := c.Index(req.EntityType)
		if index == "" {
			continue
		}
		limit := req.Options.Limit
		if limit <= 0 {
			limit = 50
		}
		header, _ := json.Marshal(map[string]interface{}{"index": index})
		buf.Write(header)
		buf.WriteByte('\n')
		body, _ := json.Marshal(map[string]interface{}{
			"size":  limit,
			"query": boolQuery(req.Query, req.Options.Filters, req.Options.DateRange),
		})
		buf.Write(body)
		buf.WriteByte('\n')
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	res, err := c.es.Msearch(
		bytes.NewReader(buf.Bytes()),
		c.es.Msearch.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("es multi_search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("es multi_search error: %s", res.String())
	}

	var parsed struct {
		Responses []json.RawMessage `json:"responses"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode msearch response: %w", err)
	}

	out := make([][]Hit, len(parsed.Responses))
	for i, raw := range parsed.Responses {
		hits, err := parseHits(raw)
		if err != nil {
			c.logger.Warn().Err(err).Int("response", i).Msg("msearch sub-response parse failed")
			continue
		}
		out[i] = hits
	}
	return out, nil
}

func boolQuery(query string, filters map[string]string, dateRange *DateRange) map[string]interface{} {
	must := []map[string]interface{}{}
	if strings.TrimSpace(query) != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": searchFields,
			},
		})
	}
	var filter []map[string]interface{}
	for field, value := range filters {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{field: value}})
	}
	if dateRange != nil {
		rangeClause := map[string]interface{}{}
		if dateRange.Start != "" {
			rangeClause["gte"] = dateRange.Start
		}
		if dateRange.End != "" {
			rangeClause["lte"] = dateRange.End
		}
		filter = append(filter, map[string]interface{}{"range": map[string]interface{}{dateRange.Field: rangeClause}})
	}
	if len(must) == 0 {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}
	return map[string]interface{}{"bool": map[string]interface{}{"must": must, "filter": filter}}
}

func (c *Client) do(ctx context.Context, call func(buf *bytes.Buffer) (*esapi.Response, error), body map[string]interface{}) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode es request body: %w", err)
	}

	res, err := call(&buf)
	if err != nil {
		return nil, fmt.Errorf("es request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("es error response: %s", res.String())
	}

	var raw json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode es response: %w", err)
	}
	return raw, nil
}

func parseHits(raw json.RawMessage) ([]Hit, error) {
	var parsed struct {
		Hits struct {
			Hits []struct {
				ID        string                 `json:"_id"`
				Index     string                 `json:"_index"`
				Score     float64                `json:"_score"`
				Source    map[string]interface{} `json:"_source"`
				Highlight map[string][]string    `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode es hits: %w", err)
	}
	out := make([]Hit, len(parsed.Hits.Hits))
	for i, h := range parsed.Hits.Hits {
		out[i] = Hit{ID: h.ID, Score: h.Score, Index: h.Index, Source: h.Source, Highlight: h.Highlight}
	}
	return out, nil
}
