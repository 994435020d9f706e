package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/forge"
	"github.com/aretw0/forge/internal/logging"
	"github.com/aretw0/forge/internal/presentation/tui"
	"github.com/aretw0/forge/internal/runtime"
	"github.com/aretw0/forge/pkg/domain"
	"github.com/aretw0/forge/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/muesli/termenv"
)

// ParseResponse lists the steps extracted from one generator response.
type ParseResponse struct {
	Mode  string        `json:"mode" jsonschema_description:"Strategy that produced the steps: artifact, fenced, source or none"`
	Steps []domain.Step `json:"steps" jsonschema_description:"Build steps in encounter order"`
}

// IngestResponse aligns with the OpenAPI schema and provides a unified structure across adapters.
type IngestResponse struct {
	Project *domain.Project `json:"project" jsonschema_description:"The session project after the response was applied"`
	Applied []runtime.Write `json:"applied" jsonschema_description:"File nodes written by this response"`
	Skipped []string        `json:"skipped" jsonschema_description:"Why some CreateFile steps could not be applied"`
}

// TreeResponse carries the file tree and a printable listing of it.
type TreeResponse struct {
	Tree    *domain.Tree `json:"tree" jsonschema_description:"The project's file tree"`
	Listing string       `json:"listing" jsonschema_description:"File-explorer style listing"`
}

// Server wraps the session manager and exposes it as an MCP Server.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		mcpServer: server.NewMCPServer("forge-mcp", strings.TrimSpace(forge.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Baggage, Sentry-Trace")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: parse_steps
	parseTool := mcp.NewTool("parse_steps",
		mcp.WithDescription("Parse a generator response into build steps without touching any session."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Raw generator response text")),
		mcp.WithOutputSchema[ParseResponse](),
	)
	s.mcpServer.AddTool(parseTool, mcp.NewStructuredToolHandler(s.handleParse))

	// TOOL: ingest_response
	ingestTool := mcp.NewTool("ingest_response",
		mcp.WithDescription("Parse a generator response and fold it into a session, creating the session when needed."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Raw generator response text")),
		mcp.WithOutputSchema[IngestResponse](),
	)
	s.mcpServer.AddTool(ingestTool, mcp.NewStructuredToolHandler(s.handleIngest))

	// TOOL: get_tree
	treeTool := mcp.NewTool("get_tree",
		mcp.WithDescription("Get the materialized file tree of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[TreeResponse](),
	)
	s.mcpServer.AddTool(treeTool, mcp.NewStructuredToolHandler(s.handleTree))

	// TOOL: get_mount
	s.mcpServer.AddTool(mcp.NewTool("get_mount",
		mcp.WithDescription("Get the sandbox mount descriptor of a session as JSON."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handleMount)
}

// Handler methods for structured tools

func (s *Server) handleParse(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ParseResponse, error) {
	text, _ := args["text"].(string)
	res := s.sessions.Engine().Parse(ctx, text)
	return ParseResponse{Mode: string(res.Mode), Steps: res.Steps}, nil
}

func (s *Server) handleIngest(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (IngestResponse, error) {
	sessionID, _ := args["session_id"].(string)
	text, _ := args["text"].(string)
	if sessionID == "" {
		return IngestResponse{}, errors.New("session_id is required")
	}

	project, res, err := s.sessions.Ingest(ctx, sessionID, text)
	if err != nil {
		s.logger.Error("MCP Ingest failed", "session_id", sessionID, "err", err)
		return IngestResponse{}, fmt.Errorf("ingest failed: %w", err)
	}

	resp := IngestResponse{
		Project: project,
		Applied: res.Applied,
		Skipped: make([]string, 0, len(res.Skipped)),
	}
	if resp.Applied == nil {
		resp.Applied = []runtime.Write{}
	}
	for _, d := range res.Skipped {
		resp.Skipped = append(resp.Skipped, d.Error())
	}
	return resp, nil
}

func (s *Server) handleTree(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TreeResponse, error) {
	project, err := s.load(ctx, args)
	if err != nil {
		return TreeResponse{}, err
	}
	return TreeResponse{
		Tree:    project.Tree,
		Listing: tui.FormatTree(project.Tree, termenv.Ascii),
	}, nil
}

func (s *Server) handleMount(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := s.load(ctx, request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	jsonBytes, err := json.Marshal(s.sessions.Engine().Mount(project.Tree))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) load(ctx context.Context, args map[string]interface{}) (*domain.Project, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return nil, errors.New("session_id is required")
	}
	project, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %q: %w", sessionID, err)
	}
	return project, nil
}

func (s *Server) registerResources() {
	// EXPOSE: forge://sessions
	s.mcpServer.AddResource(mcp.NewResource("forge://sessions", "Known Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.sessions.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "forge://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
