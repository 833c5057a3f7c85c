package merger

import (
	"testing"

	"github.com/simpleflo/rdfusion/pkg/models"
)

func TestDetectRankingColumns(t *testing.T) {
	orgIdx, countIdx := detectRankingColumns([]string{"순위", "기관명", "특허건수"})
	if orgIdx != 1 {
		t.Fatalf("expected org column index 1, got %d", orgIdx)
	}
	if countIdx != 2 {
		t.Fatalf("expected count column index 2, got %d", countIdx)
	}
}

func TestDetectRankingColumnsNoMatch(t *testing.T) {
	orgIdx, _ := detectRankingColumns([]string{"foo", "bar"})
	if orgIdx != -1 {
		t.Fatalf("expected no org column match, got %d", orgIdx)
	}
}

func TestMergeComplexRankingFusesAllSources(t *testing.T) {
	sqlResult := &models.SQLResult{
		Success: true,
		Columns: []string{"기관명", "건수"},
		Rows: [][]interface{}{
			{"A연구소", 10},
			{"B연구소", 5},
		},
	}
	esRanking := []models.RankingRow{{Name: "A연구소", Count: 8}, {Name: "C연구소", Count: 4}}
	graphRanking := []models.RankingRow{{Name: "A연구소", Count: 1}}

	out := MergeComplexRanking(sqlResult, esRanking, graphRanking, DefaultRRFConstant)

	if len(out.Columns) != 5 || out.Columns[0] != "순위" {
		t.Fatalf("expected 5-column ranking shape, got %v", out.Columns)
	}
	if out.RowCount != 3 {
		t.Fatalf("expected 3 distinct orgs merged, got %d", out.RowCount)
	}
	if out.Rows[0][1] != "A연구소" {
		t.Fatalf("expected A연구소 (ranked in all three sources) first, got %v", out.Rows[0][1])
	}
}
