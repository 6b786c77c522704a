// Package server exposes the ingredient parser as MCP-style tool calls over
// plain HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"github.com/cognicore/ingredients/internal/logging"
	"github.com/cognicore/ingredients/pkg/ingredients"
	"github.com/cognicore/ingredients/pkg/ingredients/internalerr"
)

// Tool names.
const (
	ToolParseIngredient  = "parse_ingredient"
	ToolParseIngredients = "parse_ingredients"
)

type Server struct {
	parser     *ingredients.Parser
	logger     *slog.Logger
	httpServer *http.Server
}

// New creates a server for parser listening on addr.
func New(parser *ingredients.Parser, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.GetLogger()
	}
	s := &Server{parser: parser, logger: logger}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP routes with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleHTTP)
	return logging.CombinedMiddleware(s.logger, mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting ingredient server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintln(w, `{"status":"ok"}`)
}

func (s *Server) handleHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	var (
		result *protocol.CallToolResult
		err    error
	)
	switch request.Name {
	case ToolParseIngredient:
		result, err = s.handleParseIngredient(r.Context(), &request)
	case ToolParseIngredients:
		result, err = s.handleParseIngredients(r.Context(), &request)
	default:
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	if err != nil {
		status := statusFor(err)
		logging.LoggerFromContext(r.Context(), s.logger).Warn("tool call failed",
			"tool", request.Name, "status", status, "error", err)
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// errInvalidParams marks tool arguments that do not fit the tool.
var errInvalidParams = errors.New("invalid parameters")

func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, internalerr.ErrInvocation), errors.Is(err, internalerr.ErrModelMissing):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusUnprocessableEntity
	}
}

func createJSONResponse(data any) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
