package merger

import "github.com/simpleflo/rdfusion/pkg/models"

// ScoreContextQuality computes the [0,1] context-quality score the
// generator prompt is shown (spec glossary "Context quality" — "source
// count, cross-source validation rate, average per-source confidence, and
// information density"), modeled on the teacher's
// `HybridSearcher.calculateOverallConfidence` (hybrid_search.go), which
// folds the same four signals into a coarse confidence label; this module
// keeps them as a continuous score instead of a label so it can be
// surfaced numerically (spec §3 `context_quality: real in [0,1]`).
func ScoreContextQuality(state *models.WorkflowState) float64 {
	sourceKinds := map[string]bool{}
	for _, s := range state.Sources {
		sourceKinds[s.Type] = true
	}
	if state.SQLResult != nil && state.SQLResult.Success && len(state.SQLResult.Rows) > 0 {
		sourceKinds["sql"] = true
	}
	for _, r := range state.MultiSQLResults {
		if r != nil && r.Success && len(r.Rows) > 0 {
			sourceKinds["sql"] = true
		}
	}
	if len(state.RAGResults) > 0 {
		sourceKinds["rag"] = true
	}
	if len(state.ESRankingResults) > 0 {
		sourceKinds["es"] = true
	}
	if len(sourceKinds) == 0 {
		return 0
	}

	// Source-count component: saturates at 3 distinct backends.
	sourceCountScore := float64(len(sourceKinds)) / 3.0
	if sourceCountScore > 1 {
		sourceCountScore = 1
	}

	// Cross-source validation rate: fraction of RAG hits that carry
	// graph-validation or dual-source RRF provenance, the same "agreement"
	// signal the teacher counts via `chunkStrategies[...] >= 2`.
	validationRate := 0.0
	if len(state.RAGResults) > 0 {
		validated := 0
		for _, r := range state.RAGResults {
			if r.Metadata == nil {
				continue
			}
			if v, ok := r.Metadata["graph_validated"].(bool); ok && v {
				validated++
				continue
			}
			if src, ok := r.Metadata["rrf_source"].(string); ok && src == "both" {
				validated++
			}
		}
		validationRate = float64(validated) / float64(len(state.RAGResults))
	} else if len(sourceKinds) > 1 {
		// No RAG hits to cross-validate but multiple backends contributed
		// (e.g. SQL + ES ranking): count that as partial agreement.
		validationRate = 0.5
	}

	// Average per-source confidence: mean normalized score across RAG hits,
	// defaulting to 1.0 when the only contributor is a successful SQL/ES
	// result (those carry no per-row score to average).
	avgConfidence := 1.0
	if len(state.RAGResults) > 0 {
		var sum float64
		for _, r := range state.RAGResults {
			score := r.Score
			if score > 1 {
				score = 1
			}
			if score < 0 {
				score = 0
			}
			sum += score
		}
		avgConfidence = sum / float64(len(state.RAGResults))
	}

	// Information density: row/hit count saturating at 10, so a single
	// thin result doesn't score as richly as a well-populated table.
	density := 0
	if state.SQLResult != nil {
		density += len(state.SQLResult.Rows)
	}
	for _, r := range state.MultiSQLResults {
		if r != nil {
			density += len(r.Rows)
		}
	}
	density += len(state.RAGResults)
	density += len(state.ESRankingResults)
	densityScore := float64(density) / 10.0
	if densityScore > 1 {
		densityScore = 1
	}

	quality := 0.3*sourceCountScore + 0.25*validationRate + 0.25*avgConfidence + 0.2*densityScore
	if quality > 1 {
		quality = 1
	}
	if quality < 0 {
		quality = 0
	}
	return quality
}
