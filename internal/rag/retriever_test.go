package rag

import (
	"testing"

	"github.com/simpleflo/rdfusion/internal/backend/vectorx"
	"github.com/simpleflo/rdfusion/pkg/models"
)

func TestSortByScoreDesc(t *testing.T) {
	results := []models.SearchResult{{NodeID: "a", Score: 1}, {NodeID: "b", Score: 5}}
	sortByScoreDesc(results)
	if results[0].NodeID != "b" {
		t.Fatalf("expected higher-scoring result first, got %+v", results)
	}
}

func TestWithRRFSourceBoth(t *testing.T) {
	meta := withRRFSource(nil, []string{"vector", "graph"})
	if meta["rrf_source"] != "both" {
		t.Fatalf("expected both, got %v", meta["rrf_source"])
	}
}

func TestWithRRFSourceGraphOnly(t *testing.T) {
	meta := withRRFSource(nil, []string{"graph"})
	if meta["rrf_source"] != "graph" {
		t.Fatalf("expected graph, got %v", meta["rrf_source"])
	}
}

func TestWithRRFSourceVectorOnly(t *testing.T) {
	meta := withRRFSource(nil, []string{"vector"})
	if meta["rrf_source"] != "vector" {
		t.Fatalf("expected vector, got %v", meta["rrf_source"])
	}
}

func TestNodeOrder(t *testing.T) {
	results := []models.SearchResult{{NodeID: "a"}, {NodeID: "b"}}
	if got := nodeOrder(results); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected node order: %v", got)
	}
}

func TestSearchResultFromVectorHitAttachesRelatedEntity(t *testing.T) {
	hit := vectorx.SearchHit{EntityID: "doc-1", Title: "t", Payload: "p", Score: 0.9}
	sr := searchResultFromVectorHit(hit, "patent")
	if len(sr.RelatedEntities) != 1 || sr.RelatedEntities[0] != "doc-1" {
		t.Fatalf("expected related entity doc-1, got %v", sr.RelatedEntities)
	}
	if sr.EntityType != "patent" {
		t.Fatalf("expected entity type patent, got %s", sr.EntityType)
	}
}

func TestStatsToRanking(t *testing.T) {
	set := &models.StatsBucketSet{Buckets: []models.StatsBucket{{Key: "2020", Count: 3}}}
	rows := statsToRanking(set)
	if len(rows) != 1 || rows[0].Name != "2020" || rows[0].Count != 3 {
		t.Fatalf("unexpected ranking rows: %+v", rows)
	}
}

func TestStatsToRankingNil(t *testing.T) {
	if rows := statsToRanking(nil); rows != nil {
		t.Fatalf("expected nil for nil input, got %v", rows)
	}
}

func TestLastNYears(t *testing.T) {
	years := lastNYears(3)
	if len(years) != 3 {
		t.Fatalf("expected 3 years, got %d", len(years))
	}
	if years[0] <= years[1] || years[1] <= years[2] {
		t.Fatalf("expected descending years, got %v", years)
	}
}
