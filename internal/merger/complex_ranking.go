package merger

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/simpleflo/rdfusion/pkg/models"
)

// orgColumnPattern and countColumnPattern implement spec §4.7's "detect the
// org/count columns by name heuristics".
var (
	orgColumnPattern   = regexp.MustCompile(`(?i)기관|org|출원인|수행기관`)
	countColumnPattern = regexp.MustCompile(`(?i)수|count|건수|특허`)
)

// detectRankingColumns finds the first column index matching each
// heuristic, -1 if none matches.
func detectRankingColumns(columns []string) (orgIdx, countIdx int) {
	orgIdx, countIdx = -1, -1
	for i, c := range columns {
		if orgIdx == -1 && orgColumnPattern.MatchString(c) {
			orgIdx = i
		}
		if countIdx == -1 && countColumnPattern.MatchString(c) {
			countIdx = i
		}
	}
	return orgIdx, countIdx
}

// sqlOrgCounts converts a SQL ranking result's rows into {org, count}
// records using the detected columns (spec §4.7 "complex_ranking").
func sqlOrgCounts(result *models.SQLResult) map[string]int {
	out := map[string]int{}
	if result == nil || !result.Success {
		return out
	}
	orgIdx, countIdx := detectRankingColumns(result.Columns)
	if orgIdx == -1 {
		return out
	}
	for _, row := range result.Rows {
		if orgIdx >= len(row) {
			continue
		}
		org := fmt.Sprintf("%v", row[orgIdx])
		count := 0
		if countIdx != -1 && countIdx < len(row) {
			count = toInt(row[countIdx])
		}
		out[org] = count
	}
	return out
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func rankedOrgNames(counts map[string]int) []string {
	type pair struct {
		org   string
		count int
	}
	pairs := make([]pair, 0, len(counts))
	for org, count := range counts {
		pairs = append(pairs, pair{org, count})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].count > pairs[j].count })
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.org
	}
	return out
}

func rankingRowNames(rows []models.RankingRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func rankingRowCounts(rows []models.RankingRow) map[string]int {
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Name] = r.Count
	}
	return out
}

// MergeComplexRanking implements spec §4.7 "complex_ranking": fuse a SQL
// ranking, an ES ranking, and a graph ranking (all org-named) via RRF and
// emit a fresh SQLResult shaped `[순위, 기관명, SQL건수, ES건수, RRF점수]`.
func MergeComplexRanking(sqlResult *models.SQLResult, esRanking, graphRanking []models.RankingRow, k int) *models.SQLResult {
	sqlCounts := sqlOrgCounts(sqlResult)
	esCounts := rankingRowCounts(esRanking)

	lists := RankedLists{}
	if len(sqlCounts) > 0 {
		lists["sql"] = rankedOrgNames(sqlCounts)
	}
	if len(esRanking) > 0 {
		lists["es"] = rankingRowNames(esRanking)
	}
	if len(graphRanking) > 0 {
		lists["graph"] = rankingRowNames(graphRanking)
	}

	fused := RRFFuse(lists, k)
	order := append(append([]string{}, lists["sql"]...), append(lists["es"], lists["graph"]...)...)
	ranked := fused.SortedKeys(order)

	out := &models.SQLResult{
		Success: true,
		Columns: []string{"순위", "기관명", "SQL건수", "ES건수", "RRF점수"},
	}
	for i, rk := range ranked {
		out.Rows = append(out.Rows, []interface{}{i + 1, rk.Key, sqlCounts[rk.Key], esCounts[rk.Key], rk.Score})
	}
	out.RowCount = len(out.Rows)
	return out
}
