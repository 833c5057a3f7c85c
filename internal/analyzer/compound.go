package analyzer

// decomposeCompound finalizes sub-query indexing for compound queries: each
// sub-query inherits the parent's structured keywords and keeps its
// original order as its index (spec §4.1 "Compound decomposition"). The
// explicit-entity override already synthesizes sub-queries when needed;
// this pass only fills in anything the LLM path produced directly.
func decomposeCompound(query string, res *Result) {
	if !res.IsCompound || len(res.SubQueries) == 0 {
		return
	}

	for i := range res.SubQueries {
		res.SubQueries[i].Index = i
		res.SubQueries[i].Priority = i
		if res.SubQueries[i].Context == nil {
			res.SubQueries[i].Context = res.Structured
		}
	}
}
