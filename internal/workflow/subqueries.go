package workflow

import (
	"context"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/simpleflo/rdfusion/pkg/models"
)

// maxSubQueryWorkers bounds the independent-branch worker pool (spec §4.9
// step 2, §5 "max_workers = min(3, N)").
const maxSubQueryWorkers = 3

// SubQueriesNode executes a compound query's decomposed sub-queries (spec
// §4.9 "Sub-query executor").
type SubQueriesNode struct {
	sql *SQLNode
	rag *RAGNode
}

func NewSubQueriesNode(sql *SQLNode, rag *RAGNode) *SubQueriesNode {
	return &SubQueriesNode{sql: sql, rag: rag}
}

func (n *SubQueriesNode) Name() string { return NodeSubQueries }

// runOne executes a single sub-query against a freshly scoped state: `es_doc_ids`
// is cleared so the SQL executor re-runs its retrieval scoped to the
// sub-query's own entity (spec §4.9 step 4), and either the SQL or RAG
// branch runs depending on the sub-query's own query_type.
func (n *SubQueriesNode) runOne(ctx context.Context, parent *models.WorkflowState, sq models.SubQuery) models.SubQueryResult {
	sub := parent.Clone()
	sub.Query = sq.Intent
	sub.QuerySubtype = sq.Subtype
	sub.QueryType = sq.QueryType
	sub.Keywords = sq.Keywords
	sub.EntityTypes = sq.EntityTypes
	sub.ESDocIDs = map[string][]string{}

	result := models.SubQueryResult{Index: sq.Index, SubQuery: sq}

	switch sq.QueryType {
	case models.QueryTypeRAG:
		out, err := n.rag.Run(ctx, sub)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		result.RAGResults = out.RAGResults
	default:
		out, err := n.sql.Run(ctx, sub)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		result.SQLResult = out.SQLResult
	}
	return result
}

func (n *SubQueriesNode) Run(ctx context.Context, state *models.WorkflowState) (*models.WorkflowState, error) {
	var independents, dependents []models.SubQuery
	for _, sq := range state.SubQueries {
		if sq.DependsOn == nil {
			independents = append(independents, sq)
		} else {
			dependents = append(dependents, sq)
		}
	}
	sort.SliceStable(dependents, func(i, j int) bool { return dependents[i].Priority < dependents[j].Priority })

	var mu sync.Mutex
	var results []models.SubQueryResult

	workers := maxSubQueryWorkers
	if len(independents) < workers {
		workers = len(independents)
	}
	if workers > 0 {
		p := pool.New().WithMaxGoroutines(workers)
		for _, sq := range independents {
			sq := sq
			p.Go(func() {
				r := n.runOne(ctx, state, sq)
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
			})
		}
		p.Wait()
	}

	byIndex := make(map[int]models.SubQueryResult, len(results))
	for _, r := range results {
		byIndex[r.Index] = r
	}

	// Dependents run strictly sequentially in priority order, with the
	// dependency's result attached as context (spec §4.9 step 3).
	for _, sq := range dependents {
		if sq.DependsOn != nil {
			if dep, ok := byIndex[*sq.DependsOn]; ok {
				sq.Context = dep
			}
		}
		r := n.runOne(ctx, state, sq)
		results = append(results, r)
		byIndex[r.Index] = r
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Index < results[j].Index })

	next := state.Clone()
	next.SubQueryResults = results
	next.MultiSQLResults = make(map[string]*models.SQLResult, len(results))
	for _, r := range results {
		if r.SQLResult == nil {
			continue
		}
		entity := "unknown"
		if len(r.SubQuery.EntityTypes) > 0 {
			entity = r.SubQuery.EntityTypes[0]
		}
		next.MultiSQLResults[entity] = r.SQLResult
	}
	return next, nil
}
