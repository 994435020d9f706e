package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/forge"
	"github.com/aretw0/forge/internal/logging"
	"github.com/aretw0/forge/internal/presentation/graph"
	"github.com/aretw0/forge/internal/runtime"
	"github.com/aretw0/forge/pkg/domain"
	"github.com/aretw0/forge/pkg/session"
	"github.com/go-chi/chi/v5"
)

// MaxBodyBytes caps generator responses accepted over HTTP.
const MaxBodyBytes = 4 << 20

// Server exposes sessions over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager
	Metrics  *Metrics
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a stream manager with the session manager's observers.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics mounts /metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.Metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the session manager.
// Diffs reach /events only when the manager was built with
// session.WithObserver(streams.Observe) for the same stream manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	server := &Server{
		Sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager(server.logger)
	}

	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if server.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.Metrics.Handler())
	}

	r.Post("/parse", server.Parse)
	r.Get("/sessions", server.ListSessions)
	r.Get("/sessions/{id}", server.GetSession)
	r.Post("/sessions/{id}", server.CreateSession)
	r.Delete("/sessions/{id}", server.DeleteSession)
	r.Post("/sessions/{id}/responses", server.IngestResponse)
	r.Post("/sessions/{id}/steps/{index}/complete", server.CompleteStep)
	r.Get("/sessions/{id}/tree", server.GetTree)
	r.Get("/sessions/{id}/mount", server.GetMount)
	r.Get("/sessions/{id}/graph", server.GetGraph)
	r.Get("/events", server.SubscribeEvents)

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Forge API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

type parseResponse struct {
	Mode  string        `json:"mode"`
	Steps []domain.Step `json:"steps"`
}

type createSessionRequest struct {
	Prompt string `json:"prompt"`
}

type skippedStep struct {
	StepIndex int    `json:"step_index"`
	Path      string `json:"path"`
	Reason    string `json:"reason"`
}

type ingestResponse struct {
	Project *domain.Project `json:"project"`
	Applied []runtime.Write `json:"applied"`
	Skipped []skippedStep   `json:"skipped"`
}

// Parse handles the POST /parse request.
func (s *Server) Parse(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readText(w, r, "Parse")
	if !ok {
		return
	}

	res := s.Sessions.Engine().Parse(r.Context(), text)
	s.writeJSON(w, http.StatusOK, parseResponse{Mode: string(res.Mode), Steps: res.Steps}, "Parse")
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids, "ListSessions")
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	project, ok := s.load(w, r, "GetSession")
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, project, "GetSession")
}

// CreateSession handles the POST /sessions/{id} request.
// An empty body creates a session without a prompt.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		s.logger.Warn("CreateSession: Invalid request body", "err", err)
		return
	}

	project, err := s.Sessions.LoadOrCreate(r.Context(), chi.URLParam(r, "id"), body.Prompt)
	if err != nil {
		s.fail(w, "CreateSession", err)
		return
	}
	s.writeJSON(w, http.StatusOK, project, "CreateSession")
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IngestResponse handles the POST /sessions/{id}/responses request.
func (s *Server) IngestResponse(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readText(w, r, "IngestResponse")
	if !ok {
		return
	}

	sessionID := chi.URLParam(r, "id")
	project, res, err := s.Sessions.Ingest(r.Context(), sessionID, text)
	if err != nil {
		s.fail(w, "IngestResponse", err)
		return
	}

	resp := ingestResponse{
		Project: project,
		Applied: res.Applied,
		Skipped: make([]skippedStep, 0, len(res.Skipped)),
	}
	if resp.Applied == nil {
		resp.Applied = []runtime.Write{}
	}
	for _, d := range res.Skipped {
		resp.Skipped = append(resp.Skipped, skippedStep{StepIndex: d.StepIndex, Path: d.Path, Reason: d.Err.Error()})
	}
	s.logger.Debug("IngestResponse: Applied", "session_id", sessionID, "writes", len(res.Applied), "skipped", len(res.Skipped))
	s.writeJSON(w, http.StatusOK, resp, "IngestResponse")
}

// CompleteStep handles the POST /sessions/{id}/steps/{index}/complete request.
func (s *Server) CompleteStep(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid step index")
		return
	}

	project, err := s.Sessions.CompleteStep(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		s.fail(w, "CompleteStep", err)
		return
	}
	s.writeJSON(w, http.StatusOK, project, "CompleteStep")
}

// GetTree handles the GET /sessions/{id}/tree request.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	project, ok := s.load(w, r, "GetTree")
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, project.Tree, "GetTree")
}

// GetMount handles the GET /sessions/{id}/mount request.
func (s *Server) GetMount(w http.ResponseWriter, r *http.Request) {
	project, ok := s.load(w, r, "GetMount")
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.Sessions.Engine().Mount(project.Tree), "GetMount")
}

// GetGraph handles the GET /sessions/{id}/graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	project, ok := s.load(w, r, "GetGraph")
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(ProjectTitle(project), project.Tree, nil))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "GetHealth")
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	resp := map[string]string{
		"app":         "forge-http",
		"version":     strings.TrimSpace(forge.Version),
		"api_version": apiVersion,
	}
	s.writeJSON(w, http.StatusOK, resp, "GetInfo")
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		for _, field := range strings.Split(watch, ",") {
			watchList = append(watchList, strings.TrimSpace(field))
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !keepDiff(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// ProjectTitle names a project after its first CreateFolder step, falling back to the ID.
func ProjectTitle(p *domain.Project) string {
	for _, step := range p.Steps {
		if step.Type == domain.StepCreateFolder && step.Name != "" {
			return step.Name
		}
	}
	return p.ID
}

// -- Helpers --

func (s *Server) load(w http.ResponseWriter, r *http.Request, op string) (*domain.Project, bool) {
	project, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, op, err)
		return nil, false
	}
	return project, true
}

func (s *Server) readText(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "Invalid request body")
		}
		s.logger.Warn(op+": Invalid request body", "err", err)
		return "", false
	}
	return string(body), true
}

// fail maps domain sentinels to status codes.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrStepIndex):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s error: %v", op, err))
		s.logger.Error(op+" failed", "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any, op string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(op+" response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
