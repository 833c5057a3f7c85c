package merger

import (
	"testing"

	"github.com/simpleflo/rdfusion/pkg/models"
)

func TestMergeSourcesDedupesByTypeAndKey(t *testing.T) {
	sources := []models.SourceRef{
		{Type: "sql", SQL: "SELECT 1"},
		{Type: "sql", SQL: "SELECT 1"},
		{Type: "vector", NodeID: "n1"},
		{Type: "vector", NodeID: "n1"},
		{Type: "vector", NodeID: "n2"},
	}
	merged := MergeSources(sources, map[string]int{"sql": 0, "vector": 1})
	if len(merged) != 3 {
		t.Fatalf("expected 3 deduped sources, got %d: %+v", len(merged), merged)
	}
}

func TestMergeSourcesSortsByPriority(t *testing.T) {
	sources := []models.SourceRef{
		{Type: "vector", NodeID: "n1"},
		{Type: "sql", SQL: "SELECT 1"},
	}
	merged := MergeSources(sources, map[string]int{"sql": 0, "vector": 1})
	if merged[0].Type != "sql" {
		t.Fatalf("expected sql (priority 0) first, got %+v", merged)
	}
}

func TestGroupCompoundResultsKeepsEntitiesSeparate(t *testing.T) {
	results := []models.SubQueryResult{
		{Index: 0, SubQuery: models.SubQuery{EntityTypes: []string{"patent"}}, SQLResult: &models.SQLResult{Success: true, Columns: []string{"c"}, Rows: [][]interface{}{{1}}}},
		{Index: 1, SubQuery: models.SubQuery{EntityTypes: []string{"project"}}, SQLResult: &models.SQLResult{Success: true, Columns: []string{"c"}, Rows: [][]interface{}{{2}}}},
		{Index: 2, SubQuery: models.SubQuery{EntityTypes: []string{"patent"}}, SQLResult: &models.SQLResult{Success: true, Columns: []string{"c"}, Rows: [][]interface{}{{3}}}},
	}
	tables := GroupCompoundResults(results)
	if len(tables) != 2 {
		t.Fatalf("expected 2 entity tables, got %d", len(tables))
	}
	if tables[0].EntityType != "patent" || len(tables[0].Result.Rows) != 2 {
		t.Fatalf("expected patent table to fold both patent sub-queries, got %+v", tables[0])
	}
	if tables[1].EntityType != "project" {
		t.Fatalf("expected project table second (first-encountered order), got %+v", tables[1])
	}
}
