package graphql

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/mockstore/pkg/logging"
	"github.com/vektah/gqlparser/v2/ast"
)

// MaxRequestBodySize is the maximum allowed request body size (1MB).
const MaxRequestBodySize = 1 << 20 // 1MB

// Handler handles GraphQL HTTP requests.
type Handler struct {
	mu       sync.RWMutex
	executor *Executor
	config   *GraphQLConfig
	plugins  []Plugin
	logger   *slog.Logger
}

// NewHandler creates a new GraphQL HTTP handler. Plugins are notified of the
// executor's schema before the handler is returned.
func NewHandler(executor *Executor, config *GraphQLConfig, plugins ...Plugin) *Handler {
	h := &Handler{
		config:  config,
		plugins: plugins,
		logger:  logging.Nop(),
	}
	h.SetExecutor(executor)
	return h
}

// SetLogger sets the logger used for request logging.
func (h *Handler) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logger = l
}

// SetExecutor installs a new executor and notifies plugins. A plugin that
// calls ReplaceSchema overrides the installed executor; replacements do not
// re-notify plugins.
func (h *Handler) SetExecutor(exec *Executor) {
	if exec == nil {
		return
	}
	h.mu.Lock()
	h.executor = exec
	plugins := h.plugins
	h.mu.Unlock()

	change := &SchemaChange{
		Schema:   exec.Schema(),
		Executor: exec,
		replace: func(next *Executor) {
			h.mu.Lock()
			h.executor = next
			h.mu.Unlock()
		},
	}
	for _, p := range plugins {
		p.OnSchemaChange(change)
	}
}

// Executor returns the executor currently serving requests.
func (h *Handler) Executor() *Executor {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.executor
}

// Pattern returns the URL pattern this handler serves.
func (h *Handler) Pattern() string {
	if h.config == nil || h.config.Path == "" {
		return "/graphql"
	}
	return h.config.Path
}

// ServeHTTP handles GraphQL requests.
// It supports GET query parameters and POST bodies with application/json or
// application/graphql content types.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var reqs []*GraphQLRequest
	var batch bool
	var err error
	if r.Method == http.MethodGet {
		var req *GraphQLRequest
		req, err = h.parseGetRequest(r)
		reqs = []*GraphQLRequest{req}
	} else {
		reqs, batch, err = h.parsePostRequest(r)
	}
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		h.log().Debug("rejected graphql request", "method", r.Method, "error", err)
		return
	}

	exec := h.Executor()
	resps := make([]*GraphQLResponse, len(reqs))
	for i, req := range reqs {
		resps[i] = exec.Execute(r.Context(), req)
		h.log().Debug("served graphql request",
			"method", r.Method,
			"path", r.URL.Path,
			"operation", req.OperationName,
			"errors", len(resps[i].Errors),
			"duration", time.Since(startTime))
	}

	if batch {
		h.writeJSON(w, resps)
		return
	}
	h.writeJSON(w, resps[0])
}

func (h *Handler) log() *slog.Logger {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.logger
}

// parseGetRequest parses a GraphQL request from GET query parameters.
func (h *Handler) parseGetRequest(r *http.Request) (*GraphQLRequest, error) {
	query := r.URL.Query()

	req := &GraphQLRequest{
		Query:         query.Get("query"),
		OperationName: query.Get("operationName"),
	}

	if varsStr := query.Get("variables"); varsStr != "" {
		var variables map[string]interface{}
		if err := json.Unmarshal([]byte(varsStr), &variables); err != nil {
			return nil, &parseError{message: "invalid variables JSON"}
		}
		req.Variables = variables
	}

	if kind, ok := h.Executor().operationKind(req); ok && kind == ast.Mutation {
		return nil, &parseError{message: "mutations are not allowed over GET"}
	}

	return req, nil
}

// parsePostRequest parses one GraphQL request, or a JSON array of them, from
// a POST body. batch reports whether the body was an array.
func (h *Handler) parsePostRequest(r *http.Request) (reqs []*GraphQLRequest, batch bool, err error) {
	contentType := r.Header.Get("Content-Type")

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize))
	if err != nil {
		return nil, false, &parseError{message: "failed to read request body"}
	}
	defer func() { _ = r.Body.Close() }()

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, false, &parseError{message: "empty request body"}
	}

	if strings.HasPrefix(contentType, "application/graphql") {
		return []*GraphQLRequest{{Query: string(body)}}, false, nil
	}

	if body[0] == '[' {
		if err := json.Unmarshal(body, &reqs); err != nil {
			return nil, true, &parseError{message: "invalid JSON request body"}
		}
		if len(reqs) == 0 {
			return nil, true, &parseError{message: "empty batch"}
		}
		for i, req := range reqs {
			if req == nil {
				reqs[i] = &GraphQLRequest{}
			}
		}
		return reqs, true, nil
	}

	var req GraphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, false, &parseError{message: "invalid JSON request body"}
	}
	return []*GraphQLRequest{&req}, false, nil
}

// writeError writes an error response.
func (h *Handler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(&GraphQLResponse{
		Errors: []GraphQLError{{Message: message}},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// parseError represents a request parsing error.
type parseError struct {
	message string
}

func (e *parseError) Error() string {
	return e.message
}

// Endpoint creates a complete GraphQL endpoint from a configuration.
// This is a convenience function that creates a schema, executor, and handler.
func Endpoint(config *GraphQLConfig, opts []ExecutorOption, plugins ...Plugin) (*Handler, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	var schema *Schema
	var err error
	switch {
	case config.Schema != "":
		schema, err = ParseSchema(config.Schema)
	case config.SchemaFile != "":
		schema, err = ParseSchemaFile(config.SchemaFile)
	default:
		return nil, &parseError{message: "either schema or schemaFile must be provided"}
	}
	if err != nil {
		return nil, err
	}

	return NewHandler(NewExecutor(schema, config, opts...), config, plugins...), nil
}
