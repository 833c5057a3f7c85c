package esx

import "testing"

func TestJoinKeywords(t *testing.T) {
	if got := joinKeywords([]string{"AI", "로봇"}); got != "AI 로봇" {
		t.Fatalf("joinKeywords() = %q", got)
	}
	if got := joinKeywords(nil); got != "" {
		t.Fatalf("joinKeywords(nil) = %q, want empty", got)
	}
}

func TestCountryFilters(t *testing.T) {
	if countryFilters(nil) != nil {
		t.Fatalf("expected nil filters for empty countries")
	}
	got := countryFilters([]string{"KR", "US"})
	if got["nationality"] != "KR" {
		t.Fatalf("expected first country to back the filter, got %v", got)
	}
}

func TestBoolQueryDefaultsToMatchAll(t *testing.T) {
	q := boolQuery("", nil, nil)
	bq := q["bool"].(map[string]interface{})
	must := bq["must"].([]map[string]interface{})
	if len(must) != 1 {
		t.Fatalf("expected a single match_all clause, got %d", len(must))
	}
	if _, ok := must[0]["match_all"]; !ok {
		t.Fatalf("expected match_all clause for empty query")
	}
}
