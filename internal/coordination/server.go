package coordination

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dlorenc/swarmsh-core/internal/logging"
	"github.com/dlorenc/swarmsh-core/internal/swarmerr"
)

// Server exposes an Engine over HTTP, implementing the §6.1 subcommand
// surface as REST endpoints plus an SSE event stream.
type Server struct {
	config     *Config
	engine     *Engine
	log        *logging.Logger
	httpServer *http.Server
	mu         sync.Mutex
}

// NewServer constructs a Server wrapping engine, logging to stdout by
// default. Use SetLogger to redirect to a file.
func NewServer(config *Config, engine *Engine) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	return &Server{config: config, engine: engine, log: logging.New(os.Stdout)}
}

// SetLogger overrides the server's logger.
func (s *Server) SetLogger(l *logging.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = l
}

// Start builds the mux, launches the registry cleanup goroutine, and
// serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/health", s.handleHealth)
	mux.HandleFunc("/api/v1/agents", s.withAuth(s.handleAgents))
	mux.HandleFunc("/api/v1/agents/", s.withAuth(s.handleAgentByID))
	mux.HandleFunc("/api/v1/work", s.withAuth(s.handleWork))
	mux.HandleFunc("/api/v1/work/claim", s.withAuth(s.handleClaimWork))
	mux.HandleFunc("/api/v1/work/", s.withAuth(s.handleWorkByID))
	mux.HandleFunc("/api/v1/coordinate", s.withAuth(s.handleCoordinate))
	mux.HandleFunc("/api/v1/status", s.withAuth(s.handleStatus))
	mux.HandleFunc("/api/v1/analyze-priorities", s.withAuth(s.handleAnalyzePriorities))
	mux.HandleFunc("/api/v1/events/stream", s.withAuth(s.handleEventStream))

	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:    s.config.ListenAddr,
		Handler: s.corsMiddleware(mux),
	}
	s.mu.Unlock()

	go s.engine.Registry().StartCleanup(ctx, s.config.OfflineThreshold)

	s.log.Info("coordination server listening on %s", s.config.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.log.Info("coordination server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		s.log.Error("coordination server exited: %v", err)
		return err
	}
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.config.Auth == nil || !s.config.Auth.RequireAuth {
			next(w, r)
			return
		}
		authz := r.Header.Get("Authorization")
		token := strings.TrimPrefix(authz, "Bearer ")
		for _, t := range s.config.Auth.Tokens {
			if t == token {
				next(w, r)
				return
			}
		}
		sendError(w, http.StatusUnauthorized, "unauthorized", "")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "ok"})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	state, err := s.engine.RegisterAgent(r.Context(), req.Spec, r.Header.Get("X-Correlation-Id"))
	if err != nil {
		sendSwarmErr(w, err)
		return
	}
	sendSuccess(w, state)
}

func (s *Server) handleAgentByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/agents/")
	parts := strings.Split(rest, "/")
	agentID := parts[0]
	if agentID == "" {
		sendError(w, http.StatusBadRequest, "missing agent id", "")
		return
	}

	if len(parts) == 2 && parts[1] == "heartbeat" {
		var req HeartbeatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendError(w, http.StatusBadRequest, "invalid request body", "")
			return
		}
		if err := s.engine.registry.Heartbeat(agentID, req.Status); err != nil {
			sendSwarmErr(w, err)
			return
		}
		sendSuccess(w, HeartbeatResponse{Acknowledged: true})
		return
	}

	switch r.Method {
	case http.MethodGet:
		state, err := s.engine.registry.Get(agentID)
		if err != nil {
			sendSwarmErr(w, err)
			return
		}
		sendSuccess(w, state)
	case http.MethodDelete:
		s.engine.registry.Deregister(agentID)
		sendSuccess(w, map[string]bool{"deregistered": true})
	default:
		sendError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (s *Server) handleWork(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req CreateWorkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendError(w, http.StatusBadRequest, "invalid request body", "")
			return
		}
		item, err := s.engine.CreateWork(r.Context(), req, r.Header.Get("X-Correlation-Id"))
		if err != nil {
			sendSwarmErr(w, err)
			return
		}
		sendSuccess(w, item)
	case http.MethodGet:
		items, err := s.engine.queue.Peek(r.Context())
		if err != nil {
			sendSwarmErr(w, err)
			return
		}
		sendSuccess(w, map[string]interface{}{"items": items})
	default:
		sendError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (s *Server) handleClaimWork(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	var req WorkClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	item, err := s.engine.ClaimWork(r.Context(), req.AgentID, r.Header.Get("X-Correlation-Id"))
	if err != nil {
		sendSwarmErr(w, err)
		return
	}
	if item == nil {
		sendSuccess(w, WorkClaimResponse{Claimed: false})
		return
	}
	sendSuccess(w, WorkClaimResponse{Claimed: true, Item: item})
}

func (s *Server) handleWorkByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/work/")
	parts := strings.Split(rest, "/")
	workID := parts[0]
	if workID == "" {
		sendError(w, http.StatusBadRequest, "missing work id", "")
		return
	}

	if len(parts) != 2 {
		sendError(w, http.StatusNotFound, "not found", "")
		return
	}

	var req WorkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	switch parts[1] {
	case "progress":
		if req.Progress == nil {
			sendError(w, http.StatusBadRequest, "missing progress", "")
			return
		}
		if err := s.engine.UpdateProgress(r.Context(), workID, req.AgentID, *req.Progress); err != nil {
			sendSwarmErr(w, err)
			return
		}
		sendSuccess(w, map[string]bool{"updated": true})
	case "complete":
		if req.Outcome == nil {
			sendError(w, http.StatusBadRequest, "missing outcome", "")
			return
		}
		if err := s.engine.CompleteWork(r.Context(), workID, req.AgentID, *req.Outcome, r.Header.Get("X-Correlation-Id")); err != nil {
			sendSwarmErr(w, err)
			return
		}
		sendSuccess(w, map[string]bool{"completed": true})
	default:
		sendError(w, http.StatusNotFound, "not found", "")
	}
}

func (s *Server) handleCoordinate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	var req CoordinateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	res, err := s.engine.Coordinate(r.Context(), req)
	if err != nil {
		sendSwarmErr(w, err)
		return
	}
	sendSuccess(w, res)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.Status(r.Context())
	if err != nil {
		sendSwarmErr(w, err)
		return
	}
	sendSuccess(w, status)
}

func (s *Server) handleAnalyzePriorities(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.engine.AnalyzePriorities(r.Context())
	if err != nil {
		sendSwarmErr(w, err)
		return
	}
	sendSuccess(w, analysis)
}

func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		sendError(w, http.StatusInternalServerError, "streaming unsupported", "")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := s.engine.Events().Subscribe()
	defer s.engine.Events().Unsubscribe(sub)

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-sub:
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			flusher.Flush()
		}
	}
}

func sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data})
}

func sendError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{Success: false, Error: message, Code: code})
}

func sendSwarmErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch swarmerr.KindOf(err) {
	case swarmerr.NotFound:
		status = http.StatusNotFound
	case swarmerr.AlreadyExists:
		status = http.StatusConflict
	case swarmerr.InvalidTransition:
		status = http.StatusBadRequest
	case swarmerr.LockTimeout:
		status = http.StatusServiceUnavailable
	case swarmerr.OracleUnavailable:
		status = http.StatusServiceUnavailable
	}
	sendError(w, status, err.Error(), string(swarmerr.KindOf(err)))
}
