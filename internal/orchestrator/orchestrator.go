// Package orchestrator wires every backend client and pipeline stage
// (spec §2) into the workflow engine's static topology (spec §4.9) and
// exposes the two external entry points spec §6 names: a synchronous chat
// call and a progress-streaming variant. It also owns the one piece of
// cross-turn state the spec allows — `conversation_history`, scoped by
// session id (spec §3 "Lifecycle").
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/simpleflo/rdfusion/internal/analyzer"
	"github.com/simpleflo/rdfusion/internal/backend/esx"
	"github.com/simpleflo/rdfusion/internal/backend/graphx"
	"github.com/simpleflo/rdfusion/internal/backend/llmx"
	"github.com/simpleflo/rdfusion/internal/backend/sqlx"
	"github.com/simpleflo/rdfusion/internal/backend/vectorx"
	"github.com/simpleflo/rdfusion/internal/catalog"
	"github.com/simpleflo/rdfusion/internal/config"
	"github.com/simpleflo/rdfusion/internal/esscout"
	"github.com/simpleflo/rdfusion/internal/generator"
	"github.com/simpleflo/rdfusion/internal/observability"
	"github.com/simpleflo/rdfusion/internal/rag"
	"github.com/simpleflo/rdfusion/internal/searchconfig"
	"github.com/simpleflo/rdfusion/internal/vectorenhancer"
	"github.com/simpleflo/rdfusion/internal/workflow"
	"github.com/simpleflo/rdfusion/pkg/models"
)

// Orchestrator is the process-wide assembly of every backend client and
// pipeline stage the workflow engine drives, plus the per-session
// conversation-history store (spec §3 invariant 3 "MAX_HISTORY_LENGTH").
type Orchestrator struct {
	cfg    *config.Config
	engine *workflow.Engine
	logger zerolog.Logger

	sqlStore *sqlx.Store
	es       *esx.Client
	vectors  *vectorx.Store
	embed    *vectorx.EmbeddingService
	graph    *graphx.Store
	llm      llmx.Provider

	mu       sync.Mutex
	sessions map[string][]models.ChatMessage
}

// New constructs the Orchestrator: every backend client is a process-wide
// singleton built once here and shared by every node (spec §5
// "Shared-resource policy"). The ES, vector and embedding clients are left
// nil when they fail to construct rather than aborting startup — downstream
// nodes are already written to degrade gracefully when their backend is
// absent (spec §4.3/§4.6 "Failure"). A failure to open the SQL store or to
// construct the LLM provider is returned as an error.
func New(cfg *config.Config) (*Orchestrator, error) {
	logger := observability.Logger("orchestrator")

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	sqlStore, err := sqlx.New(cfg.SQL.Path)
	if err != nil {
		return nil, fmt.Errorf("open sql store: %w", err)
	}

	var esClient *esx.Client
	if cfg.ES.Enabled {
		esClient, err = esx.New(esx.Config{Addresses: cfg.ES.Addresses, Timeout: cfg.ES.Timeout, Indices: cfg.ES.Indices})
		if err != nil {
			logger.Warn().Err(err).Msg("elasticsearch client unavailable, ES scout/aggregation disabled")
			esClient = nil
		}
	}

	vectorStore, err := vectorx.New(vectorx.Config{
		Host:      cfg.Vector.Host,
		Port:      cfg.Vector.Port,
		Dimension: cfg.Vector.Dimension,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("vector store unavailable, vector enhancement/RAG vector search disabled")
		vectorStore = nil
	}

	embeddings, err := vectorx.NewEmbeddingService(vectorx.EmbeddingConfig{
		OllamaHost: cfg.Vector.OllamaHost,
		Model:      cfg.Vector.EmbeddingModel,
		Dimension:  cfg.Vector.Dimension,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("embedding service unavailable")
		embeddings = nil
	}

	graphStore := graphx.New(graphx.Config{
		Host:         cfg.Graph.Host,
		Port:         cfg.Graph.Port,
		Password:     cfg.Graph.Password,
		GraphName:    cfg.Graph.GraphName,
		QueryTimeout: cfg.Graph.QueryTimeout,
		PageRankTTL:  cfg.Graph.PageRankTTL,
		LouvainTTL:   cfg.Graph.LouvainTTL,
	})

	llmProvider, err := llmx.NewManagedProvider(llmx.ManagerConfig{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		Endpoint:   cfg.LLM.Endpoint,
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("construct llm provider: %w", err)
	}

	synonyms, err := catalog.LoadSynonymFile(cfg.Resources.SynonymFile)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.Resources.SynonymFile).Msg("synonym file unavailable, scout runs without expansion")
		synonyms = catalog.NewSynonymDict()
	}

	a := analyzer.New(llmProvider, analyzer.Config{
		UseReasoningMode:             cfg.Analyzer.UseReasoningMode,
		ExcludeEquipmentOnCapability: cfg.Analyzer.ExcludeEquipmentOnCapability,
	})
	resolver := searchconfig.New(searchconfig.DefaultLoaderRegistry())
	scout := esscout.New(esClient, synonyms)
	enhancer := vectorenhancer.New(vectorStore, embeddings, llmProvider)
	sqlExecutor := sqlx.NewExecutor(sqlStore, llmProvider)
	ragRetriever := rag.New(vectorStore, embeddings, graphStore, esClient)
	gen := generator.New(llmProvider)

	engine := workflow.Build(workflow.Deps{
		Analyzer:     a,
		Resolver:     resolver,
		Scout:        scout,
		Enhancer:     enhancer,
		SQLExecutor:  sqlExecutor,
		RAGRetriever: ragRetriever,
		Generator:    gen,
	})

	return &Orchestrator{
		cfg:      cfg,
		engine:   engine,
		logger:   logger,
		sqlStore: sqlStore,
		es:       esClient,
		vectors:  vectorStore,
		embed:    embeddings,
		graph:    graphStore,
		llm:      llmProvider,
		sessions: make(map[string][]models.ChatMessage),
	}, nil
}

// Close releases the orchestrator's owned backend connections.
func (o *Orchestrator) Close() error {
	if o.sqlStore != nil {
		return o.sqlStore.Close()
	}
	return nil
}

// Engine exposes the assembled engine, e.g. for attaching a per-node
// progress hook (see daemon's SSE handler).
func (o *Orchestrator) Engine() *workflow.Engine { return o.engine }

// history returns a defensive copy of a session's conversation history.
func (o *Orchestrator) history(sessionID string) []models.ChatMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.ChatMessage(nil), o.sessions[sessionID]...)
}

// appendTurn implements the conversation_history reducer (spec §3 invariant
// 3, §9 "append-then-truncate"): append the user question and the
// assistant's answer, then truncate to MaxHistoryLength.
func (o *Orchestrator) appendTurn(sessionID, query, response string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	h := append(o.sessions[sessionID],
		models.ChatMessage{Role: "user", Content: query, Timestamp: now},
		models.ChatMessage{Role: "assistant", Content: response, Timestamp: now},
	)
	if over := len(h) - models.MaxHistoryLength; over > 0 {
		h = h[over:]
	}
	o.sessions[sessionID] = h
}

// Request is the synchronous chat entry point's input (spec §6 "A single
// synchronous 'chat' entry point").
type Request struct {
	Query       string
	SessionID   string
	Level       models.Level
	EntityTypes []string
}

// Chat runs one full turn through the workflow engine and returns the
// outward-facing result (spec §6).
func (o *Orchestrator) Chat(ctx context.Context, req Request) (*models.WorkflowResult, error) {
	return o.run(ctx, req, nil)
}

// StepEvent is one node-completion notification emitted during ChatStream,
// shaped to back the SSE named events spec §6 enumerates.
type StepEvent struct {
	Node  string
	State *models.WorkflowState
	Err   error
}

// ChatStream runs one turn and invokes onStep after every node completes,
// in addition to returning the final result — the daemon's SSE handler
// translates each StepEvent into the named event spec §6 specifies.
func (o *Orchestrator) ChatStream(ctx context.Context, req Request, onStep func(StepEvent)) (*models.WorkflowResult, error) {
	return o.run(ctx, req, onStep)
}

func (o *Orchestrator) run(ctx context.Context, req Request, onStep func(StepEvent)) (*models.WorkflowResult, error) {
	if req.Query == "" {
		// EmptyQueryError (spec §7): classify as simple, no retrieval,
		// apologetic response, turn still completes successfully.
		result := &models.WorkflowResult{
			SessionID:           req.SessionID,
			Response:            "질문을 입력해 주세요.",
			ConversationHistory: o.history(req.SessionID),
		}
		return result, nil
	}

	state := models.NewWorkflowState(req.Query, req.SessionID, req.Level, req.EntityTypes)
	state.ConversationHistory = o.history(req.SessionID)

	var hook workflow.StepHook
	if onStep != nil {
		hook = func(node string, s *models.WorkflowState, err error) {
			onStep(StepEvent{Node: node, State: s, Err: err})
		}
	}

	final, err := o.engine.RunWithHook(ctx, state, hook)
	if err != nil && final == nil {
		return nil, err
	}

	o.appendTurn(req.SessionID, req.Query, final.Response)

	result := &models.WorkflowResult{
		SessionID:           req.SessionID,
		Response:            final.Response,
		Sources:             final.Sources,
		ContextQuality:      final.ContextQuality,
		StageTiming:         final.StageTiming,
		Error:               final.Error,
		ConversationHistory: o.history(req.SessionID),
	}
	return result, nil
}
