package workflow

import (
	"github.com/simpleflo/rdfusion/internal/analyzer"
	"github.com/simpleflo/rdfusion/internal/backend/sqlx"
	"github.com/simpleflo/rdfusion/internal/esscout"
	"github.com/simpleflo/rdfusion/internal/generator"
	"github.com/simpleflo/rdfusion/internal/rag"
	"github.com/simpleflo/rdfusion/internal/searchconfig"
	"github.com/simpleflo/rdfusion/internal/vectorenhancer"
	"github.com/simpleflo/rdfusion/pkg/models"
)

// Deps bundles the constructed component instances Build wires into the
// static topology (spec §4.9).
type Deps struct {
	Analyzer       *analyzer.Analyzer
	Resolver       *searchconfig.Resolver
	Scout          *esscout.Scout
	Enhancer       *vectorenhancer.Enhancer
	SQLExecutor    *sqlx.Executor
	RAGRetriever   *rag.Retriever
	Generator      *generator.Generator
}

// Build assembles the fixed-topology engine named in spec §4.9: Entry →
// analyzer → es_scout → conditional → {vector_enhancer | sql_node | rag_node
// | parallel | sub_queries | generator}, and onward per the conditional
// routing rules. This is the single place the static graph shape is
// expressed; every node and router named in the spec topology table is
// registered here exactly once.
func Build(d Deps) *Engine {
	e := NewEngine(NodeAnalyzer)

	analyzerNode := NewAnalyzerNode(d.Analyzer, d.Resolver)
	scoutNode := NewESScoutNode(d.Scout)
	enhancerNode := NewVectorEnhancerNode(d.Enhancer)
	sqlNode := NewSQLNode(d.SQLExecutor)
	ragNode := NewRAGNode(d.RAGRetriever)
	parallelNode := NewParallelNode(sqlNode, ragNode)
	parallelRankingNode := NewParallelRankingNode(sqlNode, ragNode)
	subQueriesNode := NewSubQueriesNode(sqlNode, ragNode)
	mergerNode := NewMergerNode()
	generatorNode := NewGeneratorNode(d.Generator)

	e.Register(analyzerNode, func(*models.WorkflowState) string { return NodeESScout })
	e.Register(scoutNode, RouteAfterESScout)
	e.Register(enhancerNode, RouteAfterVectorEnhancer)
	e.Register(sqlNode, RouteAfterSQLNode)
	e.Register(ragNode, RouteAfterRAGNode)
	e.Register(parallelNode, RouteToMerger)
	e.Register(parallelRankingNode, RouteToMerger)
	e.Register(subQueriesNode, RouteToMerger)
	e.Register(mergerNode, RouteToGenerator)
	e.Register(generatorNode, RouteExit)

	return e
}
