package sqlx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/simpleflo/rdfusion/internal/backend/llmx"
	"github.com/simpleflo/rdfusion/internal/catalog"
	"github.com/simpleflo/rdfusion/internal/observability"
	"github.com/simpleflo/rdfusion/pkg/models"
)

// perStatementTimeout bounds every SQL statement the executor runs (spec
// §4.5 "Safety validation").
const perStatementTimeout = 30 * time.Second

// Executor implements the SQL executor contract: state → {sql_result,
// multi_sql_results, generated_sql, sources} (spec §4.5).
type Executor struct {
	store  *Store
	llm    llmx.Provider
	logger zerolog.Logger
}

// NewExecutor constructs an Executor over a Store and an LLM provider for
// the fallback path.
func NewExecutor(store *Store, llm llmx.Provider) *Executor {
	return &Executor{store: store, llm: llm, logger: observability.Logger("sqlx")}
}

// Request bundles the inputs the executor's path-selection logic needs.
type Request struct {
	Query        string
	QuerySubtype models.QuerySubtype
	EntityTypes  []string
	Keywords     []string
	Structured   models.StructuredKeywords
	ESDocIDs     map[string][]string
}

// Execute runs the per-entity path selection and returns one SQLResult per
// requested entity, plus the source refs for the merger.
func (e *Executor) Execute(ctx context.Context, req Request) (map[string]*models.SQLResult, []models.SourceRef) {
	entities := req.EntityTypes
	if len(entities) == 0 {
		entities = catalog.DefaultEntityTypes
	}

	keywords := catalog.StripEntityNouns(req.Keywords)

	results := make(map[string]*models.SQLResult, len(entities))
	var sources []models.SourceRef

	type outcome struct {
		entity string
		result *models.SQLResult
	}

	outcomes := make(chan outcome, len(entities))
	p := pool.New().WithMaxGoroutines(4)
	for _, entity := range entities {
		entity := entity
		p.Go(func() {
			result := e.executeForEntity(ctx, entity, req, keywords)
			outcomes <- outcome{entity: entity, result: result}
		})
	}
	p.Wait()
	close(outcomes)

	for o := range outcomes {
		results[o.entity] = o.result
		if o.result.Success {
			sources = append(sources, models.SourceRef{
				Type:       "sql",
				SQL:        o.result.GeneratedSQL,
				EntityType: o.entity,
			})
		}
	}

	return results, sources
}

// executeForEntity implements the per-entity path selection ladder (spec
// §4.5 "Path selection per entity").
func (e *Executor) executeForEntity(ctx context.Context, entity string, req Request, keywords []string) *models.SQLResult {
	log := e.logger.With().Str("entity", entity).Logger()

	if ids, ok := req.ESDocIDs[entity]; ok && len(ids) > 0 && req.QuerySubtype != models.SubtypeAggregation {
		query, err := esDrivenTemplate(entity, ids)
		if err != nil {
			return errorResult(err)
		}
		return e.run(ctx, query)
	}

	if query, ok := statisticalTemplate(entity, req.QuerySubtype, keywords, req.Structured.Country); ok {
		result := e.run(ctx, query)
		if result.Success && result.RowCount == 0 {
			log.Info().Msg("ranking template returned no rows, falling back to ES ranking")
		}
		return result
	}

	query, err := listTemplate(entity, keywords, req.Structured.Country, defaultLimit(req.QuerySubtype))
	if err == nil {
		result := e.run(ctx, query)
		if result.Success {
			return result
		}
	}

	return e.llmFallback(ctx, entity, req, keywords)
}

func defaultLimit(subtype models.QuerySubtype) int {
	if subtype == models.SubtypeList {
		return 50
	}
	return 20
}

// statisticalTemplate dispatches to the direct, LLM-free statistical CTEs
// (spec §4.5 step 2).
func statisticalTemplate(entity string, subtype models.QuerySubtype, keywords []string, countryCodes []string) (string, bool) {
	switch subtype {
	case models.SubtypeRanking:
		if entity == "patent" {
			return patentRankingTemplate(keywords, countryCodes), true
		}
		if entity == "project" {
			return projectRankingTemplate(keywords), true
		}
	case models.SubtypeImpactRanking:
		if entity == "patent" {
			return impactRankingTemplate(keywords), true
		}
	case models.SubtypeNationalityRanking:
		if entity == "patent" {
			return nationalityRankingTemplate(keywords), true
		}
	}
	return "", false
}

// run executes a trusted (already-templated) statement and shapes the
// result. Caller-constructed templates are not re-validated; only the
// LLM-generated path goes through ValidateSQL.
func (e *Executor) run(ctx context.Context, query string) *models.SQLResult {
	ctx, cancel := context.WithTimeout(ctx, perStatementTimeout)
	defer cancel()

	start := time.Now()
	rows, err := e.store.DB().QueryContext(ctx, query)
	if err != nil {
		return errorResultWithSQL(err, query)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return errorResultWithSQL(err, query)
	}

	var out [][]interface{}
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return errorResultWithSQL(err, query)
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return errorResultWithSQL(err, query)
	}

	return &models.SQLResult{
		Success:         true,
		Columns:         cols,
		Rows:            out,
		RowCount:        len(out),
		ExecutionTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
		GeneratedSQL:    query,
	}
}

// llmFallback builds a schema snippet and subtype hints, asks the LLM for
// SQL, validates it, and executes it (spec §4.5 step 4).
func (e *Executor) llmFallback(ctx context.Context, entity string, req Request, keywords []string) *models.SQLResult {
	if e.llm == nil {
		return errorResult(fmt.Errorf("no llm fallback sql path available for entity %q", entity))
	}

	table, ok := catalog.Table(entity)
	if !ok {
		return errorResult(fmt.Errorf("unknown entity type %q", entity))
	}

	prompt := buildSQLPrompt(table, req.QuerySubtype, keywords, req.Structured)
	raw, err := e.llm.Chat(ctx, []llmx.Message{
		{Role: "system", Content: sqlSystemPrompt},
		{Role: "user", Content: prompt},
	}, llmx.ChatOptions{MaxTokens: 600, Temperature: 0})
	if err != nil {
		return errorResult(err)
	}

	query := extractSQL(raw)
	if err := ValidateSQL(query); err != nil {
		return errorResult(fmt.Errorf("안전하지 않은 SQL: %w", err))
	}

	return e.run(ctx, query)
}

const sqlSystemPrompt = `You generate a single read-only SQL SELECT or WITH statement against the given table schema. Never use DROP, DELETE, UPDATE, INSERT, TRUNCATE, ALTER, CREATE, comments, or multiple statements. Respond with SQL only.`

func buildSQLPrompt(table catalog.TableSchema, subtype models.QuerySubtype, keywords []string, structured models.StructuredKeywords) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s (id column: %s)\n", table.Table, table.IDColumn)
	for _, c := range table.Columns {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
	}
	fmt.Fprintf(&b, "Subtype: %s\n", subtype)
	fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(keywords, ", "))
	if len(structured.Country) > 0 {
		fmt.Fprintf(&b, "Country filter: %s\n", strings.Join(structured.Country, ", "))
	}
	return b.String()
}

// extractSQL strips a fenced code block wrapper if the model added one.
func extractSQL(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```sql")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func errorResult(err error) *models.SQLResult {
	return &models.SQLResult{Success: false, Error: err.Error()}
}

func errorResultWithSQL(err error, query string) *models.SQLResult {
	return &models.SQLResult{Success: false, Error: err.Error(), GeneratedSQL: query}
}
