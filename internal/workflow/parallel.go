package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/simpleflo/rdfusion/pkg/models"
)

// branchTimeout bounds each branch of a two-way fan-out node (spec §5
// "each branch gets a 60s wall-clock in parallel").
const branchTimeout = 60 * time.Second

type branchOutcome struct {
	state *models.WorkflowState
	err   error
}

// runBranch executes one branch's node against a clone of the parent
// state, bounded by branchTimeout; a timeout or error yields a nil state
// rather than aborting the turn (spec §4.9 "either branch may fail
// without aborting the turn").
func runBranch(ctx context.Context, parent *models.WorkflowState, node Node) branchOutcome {
	ctx, cancel := context.WithTimeout(ctx, branchTimeout)
	defer cancel()

	result, err := node.Run(ctx, parent.Clone())
	if err != nil {
		return branchOutcome{err: err}
	}
	return branchOutcome{state: result}
}

// ParallelNode runs SQL and RAG concurrently (spec §4.9 "parallel"): either
// branch may fail without aborting the turn; the merged state carries the
// union of sources and concatenated errors.
type ParallelNode struct {
	sql *SQLNode
	rag *RAGNode
}

func NewParallelNode(sql *SQLNode, rag *RAGNode) *ParallelNode {
	return &ParallelNode{sql: sql, rag: rag}
}

func (n *ParallelNode) Name() string { return NodeParallel }

func (n *ParallelNode) Run(ctx context.Context, state *models.WorkflowState) (*models.WorkflowState, error) {
	sqlCh := make(chan branchOutcome, 1)
	ragCh := make(chan branchOutcome, 1)
	go func() { sqlCh <- runBranch(ctx, state, n.sql) }()
	go func() { ragCh <- runBranch(ctx, state, n.rag) }()
	sqlOut := <-sqlCh
	ragOut := <-ragCh

	next := state.Clone()
	var errs []string

	if sqlOut.err != nil {
		errs = append(errs, "sql: "+sqlOut.err.Error())
	} else if sqlOut.state != nil {
		next.SQLResult = sqlOut.state.SQLResult
		next.MultiSQLResults = sqlOut.state.MultiSQLResults
		next.Sources = append(next.Sources, sqlOut.state.Sources...)
	}

	if ragOut.err != nil {
		errs = append(errs, "rag: "+ragOut.err.Error())
	} else if ragOut.state != nil {
		next.RAGResults = ragOut.state.RAGResults
		next.ESRankingResults = ragOut.state.ESRankingResults
		next.Sources = append(next.Sources, ragOut.state.Sources...)
	}

	if len(errs) > 0 {
		next.Error = strings.Join(errs, "; ")
	}
	return next, nil
}

// ParallelRankingNode runs SQL ranking and ES ranking concurrently and
// hands both to the merger for RRF (spec §4.9 "parallel_ranking").
type ParallelRankingNode struct {
	sql *SQLNode
	rag *RAGNode
}

func NewParallelRankingNode(sql *SQLNode, rag *RAGNode) *ParallelRankingNode {
	return &ParallelRankingNode{sql: sql, rag: rag}
}

func (n *ParallelRankingNode) Name() string { return NodeParallelRanking }

func (n *ParallelRankingNode) Run(ctx context.Context, state *models.WorkflowState) (*models.WorkflowState, error) {
	sqlCh := make(chan branchOutcome, 1)
	esCh := make(chan branchOutcome, 1)
	go func() { sqlCh <- runBranch(ctx, state, n.sql) }()
	go func() { esCh <- runBranch(ctx, state, n.rag) }()
	sqlOut := <-sqlCh
	esOut := <-esCh

	next := state.Clone()
	var errs []string

	if sqlOut.err != nil {
		errs = append(errs, "sql_ranking: "+sqlOut.err.Error())
	} else if sqlOut.state != nil {
		next.SQLResult = sqlOut.state.SQLResult
		next.Sources = append(next.Sources, sqlOut.state.Sources...)
	}

	if esOut.err != nil {
		errs = append(errs, "es_ranking: "+esOut.err.Error())
	} else if esOut.state != nil {
		next.ESRankingResults = esOut.state.ESRankingResults
		next.Sources = append(next.Sources, esOut.state.Sources...)
	}

	if len(errs) > 0 {
		next.Error = strings.Join(errs, "; ")
	}
	return next, nil
}
