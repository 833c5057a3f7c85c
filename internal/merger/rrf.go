// Package merger fuses the heterogeneous outputs of the SQL executor, RAG
// retriever, and ES ranking backend into the single source set the
// generator consumes (spec §4.7).
package merger

// DefaultRRFConstant is the Reciprocal Rank Fusion smoothing constant used
// across every fusion call site in this module (spec §4.6, §4.7
// "RRF fusion", k=60).
const DefaultRRFConstant = 60

// FuseResult is the outcome of an RRF fusion pass: per-key scores plus,
// for each key, the set of source lists that contributed to it (used to
// tag `rrf_source ∈ {graph, vector, both}` metadata).
type FuseResult struct {
	Scores  map[string]float64
	Sources map[string][]string
}

// RankedLists maps a source name to its ranked keys, rank 0 first.
type RankedLists map[string][]string

// RRFFuse computes `score(d) = Σ_s 1/(k + rank_s(d) + 1)` over every source
// list the key appears in (spec §4.6 "RRF fusion"). Keys are deduplicated
// across sources; the returned scores are not yet sorted.
func RRFFuse(lists RankedLists, k int) FuseResult {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	result := FuseResult{Scores: map[string]float64{}, Sources: map[string][]string{}}
	for source, keys := range lists {
		for rank, key := range keys {
			result.Scores[key] += 1.0 / float64(k+rank+1)
			result.Sources[key] = append(result.Sources[key], source)
		}
	}
	return result
}

// RankKey is a (key, score) pair produced by sorting a FuseResult.
type RankKey struct {
	Key   string
	Score float64
}

// SortedKeys returns the fused keys ordered by descending score, breaking
// ties by first-seen insertion order across the ranked lists.
func (f FuseResult) SortedKeys(order []string) []RankKey {
	seen := make(map[string]bool, len(f.Scores))
	out := make([]RankKey, 0, len(f.Scores))
	for _, k := range order {
		if f.Scores[k] == 0 && len(f.Sources[k]) == 0 {
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, RankKey{Key: k, Score: f.Scores[k]})
	}
	for k, s := range f.Scores {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, RankKey{Key: k, Score: s})
	}
	stableSortDesc(out)
	return out
}

func stableSortDesc(items []RankKey) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].Score > items[j-1].Score; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}
