package vectorenhancer

import (
	"context"
	"testing"
)

func TestExtractJSONArray(t *testing.T) {
	cases := map[string]string{
		`["a","b"]`:                     `["a","b"]`,
		"```json\n[\"a\",\"b\"]\n```":   `["a","b"]`,
		"here you go: [\"x\"] thanks":   `["x"]`,
		"no array here":                 `[]`,
	}
	for in, want := range cases {
		if got := extractJSONArray(in); got != want {
			t.Fatalf("extractJSONArray(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRunWithoutStoreReturnsEmptyResult(t *testing.T) {
	e := New(nil, nil, nil)
	result, err := e.Run(context.Background(), "query", []string{"ai"}, []string{"patent"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.ExpandedKeywords) != 0 {
		t.Fatalf("expected no expansion without a store, got %v", result.ExpandedKeywords)
	}
	if result.EntityKeywords == nil || result.Detail == nil {
		t.Fatalf("expected initialized empty maps")
	}
}

func TestRunWithoutEntityTypesReturnsEmptyResult(t *testing.T) {
	e := New(nil, nil, nil)
	result, err := e.Run(context.Background(), "query", []string{"ai"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.ExpandedKeywords) != 0 {
		t.Fatalf("expected no expansion without entity types, got %v", result.ExpandedKeywords)
	}
}
