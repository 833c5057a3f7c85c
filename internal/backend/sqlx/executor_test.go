package sqlx

import (
	"context"
	"testing"

	"github.com/simpleflo/rdfusion/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	seed := []string{
		`INSERT INTO patents (documentid, title, summary, appn_date, ntcd, citations) VALUES
			('P1', '배터리 열관리 장치', '배터리 냉각 시스템', '2021-01-01', 'KR', 5),
			('P2', '반도체 패키징 공정', '반도체 패키지', '2020-06-01', 'US', 1)`,
		`INSERT INTO applicants (documentid, applicant_name) VALUES ('P1', '가나다전자'), ('P2', 'Acme Corp.')`,
	}
	for _, stmt := range seed {
		if _, err := store.DB().Exec(stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return store
}

func TestValidateSQL(t *testing.T) {
	cases := []struct {
		query   string
		wantErr bool
	}{
		{"SELECT * FROM patents", false},
		{"WITH x AS (SELECT 1) SELECT * FROM x", false},
		{"DROP TABLE patents", true},
		{"SELECT * FROM patents; DROP TABLE patents;", true},
		{"SELECT * FROM patents -- comment", true},
		{"UPDATE patents SET title='x'", true},
	}
	for _, c := range cases {
		err := ValidateSQL(c.query)
		if (err != nil) != c.wantErr {
			t.Errorf("ValidateSQL(%q) error=%v, wantErr=%v", c.query, err, c.wantErr)
		}
	}
}

func TestExecutor_ESDrivenDirectPath(t *testing.T) {
	store := newTestStore(t)
	e := NewExecutor(store, nil)

	req := Request{
		QuerySubtype: models.SubtypeList,
		EntityTypes:  []string{"patent"},
		ESDocIDs:     map[string][]string{"patent": {"P1"}},
	}
	results, _ := e.Execute(context.Background(), req)
	result := results["patent"]
	if !result.Success || result.RowCount != 1 {
		t.Fatalf("expected 1 row from ES-driven path, got %+v", result)
	}
}

func TestExecutor_ListTemplatePath(t *testing.T) {
	store := newTestStore(t)
	e := NewExecutor(store, nil)

	req := Request{
		QuerySubtype: models.SubtypeList,
		EntityTypes:  []string{"patent"},
		Keywords:     []string{"배터리"},
	}
	results, _ := e.Execute(context.Background(), req)
	result := results["patent"]
	if !result.Success || result.RowCount != 1 {
		t.Fatalf("expected 1 row for keyword 배터리, got %+v", result)
	}
}

func TestExecutor_RankingTemplatePath(t *testing.T) {
	store := newTestStore(t)
	e := NewExecutor(store, nil)

	req := Request{
		QuerySubtype: models.SubtypeRanking,
		EntityTypes:  []string{"patent"},
		Keywords:     []string{"배터리", "반도체"},
	}
	results, _ := e.Execute(context.Background(), req)
	result := results["patent"]
	if !result.Success {
		t.Fatalf("expected ranking template to succeed, got %+v", result)
	}
}

func TestExecutor_UnknownEntityErrors(t *testing.T) {
	store := newTestStore(t)
	e := NewExecutor(store, nil)

	req := Request{
		QuerySubtype: models.SubtypeList,
		EntityTypes:  []string{"bogus"},
	}
	results, _ := e.Execute(context.Background(), req)
	if results["bogus"].Success {
		t.Fatalf("expected failure for unknown entity, got %+v", results["bogus"])
	}
}
