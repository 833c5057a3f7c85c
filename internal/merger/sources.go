package merger

import "github.com/simpleflo/rdfusion/pkg/models"

// dedupKey and keyFor implement spec §4.7's per-type dedup rule for
// the hybrid/compound merge path: `(type, sql)` for SQL sources, `(type,
// node_id)` for RAG sources.
type dedupKey struct {
	kind string
	id   string
}

func keyFor(s models.SourceRef) dedupKey {
	switch s.Type {
	case "sql":
		return dedupKey{kind: s.Type, id: s.SQL}
	default:
		return dedupKey{kind: s.Type, id: s.NodeID}
	}
}

// MergeSources implements spec §4.7 "hybrid/compound": concatenate sources,
// deduplicate by the per-type key, then sort by `search_config.merge_priority`
// (lower number = higher priority; unlisted types sort last, stable
// otherwise).
func MergeSources(sources []models.SourceRef, mergePriority map[string]int) []models.SourceRef {
	seen := make(map[dedupKey]bool, len(sources))
	deduped := make([]models.SourceRef, 0, len(sources))
	for _, s := range sources {
		k := keyFor(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		deduped = append(deduped, s)
	}

	priority := func(s models.SourceRef) int {
		if p, ok := mergePriority[s.Type]; ok {
			return p
		}
		return len(mergePriority) + 1
	}

	for i := 1; i < len(deduped); i++ {
		for j := i; j > 0 && priority(deduped[j]) < priority(deduped[j-1]); j-- {
			deduped[j], deduped[j-1] = deduped[j-1], deduped[j]
		}
	}
	return deduped
}

// EntityTable is one per-entity result table within a compound answer.
type EntityTable struct {
	EntityType string
	Indices    []int // originating sub-query indices, in encounter order
	Result     *models.SQLResult
	RAGResults []models.SearchResult
}

// GroupCompoundResults implements spec §4.7 "for compound sub-queries:
// group by sub-query index; emit one table per entity (never interleave)".
// Sub-queries sharing an entity type are folded into a single table whose
// rows preserve the sub-queries' relative order; entity tables themselves
// are emitted in first-encountered order.
func GroupCompoundResults(results []models.SubQueryResult) []EntityTable {
	order := make([]string, 0)
	tables := make(map[string]*EntityTable)

	for _, r := range results {
		entity := "unknown"
		if len(r.SubQuery.EntityTypes) > 0 {
			entity = r.SubQuery.EntityTypes[0]
		}

		t, ok := tables[entity]
		if !ok {
			t = &EntityTable{EntityType: entity}
			tables[entity] = t
			order = append(order, entity)
		}
		t.Indices = append(t.Indices, r.Index)

		if r.SQLResult != nil && r.SQLResult.Success {
			if t.Result == nil {
				t.Result = &models.SQLResult{Success: true, Columns: r.SQLResult.Columns}
			}
			t.Result.Rows = append(t.Result.Rows, r.SQLResult.Rows...)
			t.Result.RowCount = len(t.Result.Rows)
		}
		t.RAGResults = append(t.RAGResults, r.RAGResults...)
	}

	out := make([]EntityTable, 0, len(order))
	for _, e := range order {
		out = append(out, *tables[e])
	}
	return out
}
