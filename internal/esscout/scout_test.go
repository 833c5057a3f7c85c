package esscout

import (
	"testing"

	"github.com/simpleflo/rdfusion/internal/backend/esx"
	"github.com/simpleflo/rdfusion/internal/catalog"
)

func newTestScout() *Scout {
	return New(nil, catalog.NewSynonymDict())
}

func TestDomainSetExcludesEquipOnCapabilityCue(t *testing.T) {
	s := newTestScout()
	domains := s.domainSet("보유 역량이 있는 기관", nil)
	for _, d := range domains {
		if d == "equip" {
			t.Fatalf("expected equip excluded on capability cue, got %v", domains)
		}
	}
}

func TestDomainSetRespectsExplicitEntityTypes(t *testing.T) {
	s := newTestScout()
	domains := s.domainSet("아무거나", []string{"patent"})
	if len(domains) != 1 || domains[0] != "patent" {
		t.Fatalf("expected explicit entity types preserved, got %v", domains)
	}
}

func TestSynonymTerms(t *testing.T) {
	got := synonymTerms([]string{"AI"}, []string{"AI", "인공지능", "ai"})
	if len(got) != 1 || got[0] != "인공지능" {
		t.Fatalf("expected only the non-core synonym, got %v", got)
	}
}

func TestDocIDPrefersDomainIDField(t *testing.T) {
	h := esx.Hit{ID: "es-1", Source: map[string]interface{}{"documentid": "doc-9"}}
	if got := docID(h); got != "doc-9" {
		t.Fatalf("docID() = %q, want doc-9", got)
	}
	h2 := esx.Hit{ID: "es-2", Source: map[string]interface{}{}}
	if got := docID(h2); got != "es-2" {
		t.Fatalf("docID() fallback = %q, want es-2", got)
	}
}

func TestApplyEntityTypePolicyDefaultsWhenNoneActive(t *testing.T) {
	s := newTestScout()
	entityTypes, docIDs := s.applyEntityTypePolicy(nil, []string{"patent", "project"}, map[string]int{}, map[string][]string{})
	if len(entityTypes) == 0 {
		t.Fatalf("expected default entity types fallback")
	}
	if docIDs == nil {
		t.Fatalf("expected non-nil doc id map passthrough")
	}
}

func TestApplyEntityTypePolicyPrunesToExplicitTypes(t *testing.T) {
	s := newTestScout()
	esDocIDs := map[string][]string{"patent": {"a"}, "project": {"b"}}
	entityTypes, pruned := s.applyEntityTypePolicy([]string{"patent"}, nil, nil, esDocIDs)
	if len(entityTypes) != 1 || entityTypes[0] != "patent" {
		t.Fatalf("expected entity types preserved, got %v", entityTypes)
	}
	if _, ok := pruned["project"]; ok {
		t.Fatalf("expected project pruned from es_doc_ids, got %v", pruned)
	}
	if _, ok := pruned["patent"]; !ok {
		t.Fatalf("expected patent kept in es_doc_ids")
	}
}
