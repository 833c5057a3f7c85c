// Package daemon implements the retrieval orchestrator's daemon core: an
// HTTP server exposing a synchronous chat endpoint, an SSE progress stream,
// and health/readiness probes (spec §6).
package daemon

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/simpleflo/rdfusion/internal/config"
	"github.com/simpleflo/rdfusion/internal/observability"
	"github.com/simpleflo/rdfusion/internal/orchestrator"
	"github.com/simpleflo/rdfusion/pkg/models"
)

// Daemon serves the HTTP/SSE interface over the orchestrator's engine. It
// owns the listener lifecycle; the orchestrator owns every backend client
// and the conversation-history store.
type Daemon struct {
	cfg    *config.Config
	orch   *orchestrator.Orchestrator
	router chi.Router
	logger zerolog.Logger

	mu        sync.RWMutex
	startTime time.Time

	server *http.Server
}

// New constructs a Daemon bound to an already-built Orchestrator.
func New(cfg *config.Config, orch *orchestrator.Orchestrator) *Daemon {
	d := &Daemon{
		cfg:    cfg,
		orch:   orch,
		logger: observability.Logger("daemon"),
	}
	d.router = d.buildRouter()
	return d
}

func (d *Daemon) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(d.cfg.API.ReadTimeout))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", d.handleHealth)
		r.Get("/readyz", d.handleReady)
		r.Post("/chat", d.handleChat)
		r.Post("/chat/stream", d.handleChatStream)
	})

	return r
}

// Serve listens on addr (a host:port, or a unix socket path prefixed with
// "unix:") and blocks until ctx is cancelled or the listener fails.
func (d *Daemon) Serve(ctx context.Context, addr string) error {
	d.mu.Lock()
	d.startTime = time.Now()
	d.mu.Unlock()

	ln, network, err := listen(addr)
	if err != nil {
		return err
	}

	d.server = &http.Server{
		Handler:      d.router,
		ReadTimeout:  d.cfg.API.ReadTimeout,
		WriteTimeout: d.cfg.API.WriteTimeout,
		IdleTimeout:  d.cfg.API.IdleTimeout,
	}

	d.logger.Info().Str("network", network).Str("addr", addr).Msg("daemon listening")

	errCh := make(chan error, 1)
	go func() { errCh <- d.server.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return d.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// listen dials a TCP address, or a unix socket if addr has a "unix:"
// prefix (matching the socket-based default in cfg.SocketPath).
func listen(addr string) (net.Listener, string, error) {
	if len(addr) > 5 && addr[:5] == "unix:" {
		path := addr[5:]
		ln, err := net.Listen("unix", path)
		return ln, "unix", err
	}
	ln, err := net.Listen("tcp", addr)
	return ln, "tcp", err
}

func (d *Daemon) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (d *Daemon) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// chatRequest is the wire shape of POST /v1/chat and /v1/chat/stream.
type chatRequest struct {
	Query       string   `json:"query"`
	SessionID   string   `json:"session_id"`
	Level       string   `json:"level"`
	EntityTypes []string `json:"entity_types,omitempty"`
}

func (d *Daemon) decodeChatRequest(w http.ResponseWriter, r *http.Request) (orchestrator.Request, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return orchestrator.Request{}, false
	}
	if req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return orchestrator.Request{}, false
	}
	level := models.Level(req.Level)
	if level == "" {
		level = models.LevelGeneral
	}
	return orchestrator.Request{
		Query:       req.Query,
		SessionID:   req.SessionID,
		Level:       level,
		EntityTypes: req.EntityTypes,
	}, true
}

// handleChat handles POST /v1/chat: the synchronous entry point spec §6
// names ("A single synchronous 'chat' entry point").
func (d *Daemon) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := d.decodeChatRequest(w, r)
	if !ok {
		return
	}

	result, err := d.orch.Chat(r.Context(), req)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
