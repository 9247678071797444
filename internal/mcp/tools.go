package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/Foundup/Foundups-Agent-sub010/internal/indexer"
	"github.com/Foundup/Foundups-Agent-sub010/internal/vecstore"
	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeIndexingInProgress = -32002 // Another indexing run is already holding the lock
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// handleSearch handles the search tool invocation. Degraded retrieval is not
// an error here: the bundle reports it with ok still true. Only caller misuse
// and unrecoverable engine failures surface as MCP errors.
func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	queryText, ok := args["query"].(string)
	if !ok || queryText == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 0)
	if limit < 0 || limit > types.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", types.MaxLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	filter, err := getDocTypes(args, "doc_types")
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid doc_types", map[string]interface{}{
			"param":  "doc_types",
			"reason": err.Error(),
		})
	}

	q := &types.Query{
		RawText:       queryText,
		Limit:         limit,
		DocTypeFilter: filter,
		Context:       getStringMap(args, "context"),
	}

	bundle, err := s.engine.Search(ctx, q)
	if err != nil {
		if errors.Is(err, types.ErrInvalidTransition) {
			return nil, newMCPError(ErrorCodeInternalError, "engine not ready", map[string]interface{}{
				"state": string(s.engine.State()),
			})
		}
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid query", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	return mcp.NewToolResultText(marshalJSON(bundle)), nil
}

// handleIndexCorpus handles the index_corpus tool invocation
func (s *Server) handleIndexCorpus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.indexer == nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing is not configured on this server", nil)
	}

	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	job := indexer.Job{Roots: getStringSlice(args, "roots")}
	if raw, ok := args["doc_type"].(string); ok && raw != "" {
		dt, err := types.ParseDocType(raw)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid doc_type", map[string]interface{}{
				"param": "doc_type",
				"value": raw,
			})
		}
		job.ForceType = dt
	}

	stats, err := s.indexer.Run(ctx, job)
	if err != nil {
		if errors.Is(err, indexer.ErrIndexRunning) {
			return nil, newMCPError(ErrorCodeIndexingInProgress, "another indexing run is in progress", nil)
		}
		if errors.Is(err, indexer.ErrNoRoots) {
			return nil, newMCPError(ErrorCodeInvalidParams, "no corpus roots given or configured", map[string]interface{}{
				"param": "roots",
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// The corpus changed; cached bundles no longer reflect it.
	s.engine.Invalidate()

	response := map[string]interface{}{
		"indexed":           true,
		"files_indexed":     stats.FilesIndexed,
		"files_skipped":     stats.FilesSkipped,
		"files_failed":      stats.FilesFailed,
		"points_upserted":   stats.PointsUpserted,
		"skills_discovered": stats.SkillsDiscovered,
		"elapsed_ms":        stats.ElapsedMS,
	}
	if n := len(stats.Errors); n > 0 {
		errs := stats.Errors
		if n > 5 {
			errs = errs[:5]
		}
		response["errors"] = errs
		response["error_count"] = n
	}

	return mcp.NewToolResultText(marshalJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.engine.Status(ctx)
	if err != nil {
		s.logger.Warn("Status probe failed", zap.Error(err))
		return nil, newMCPError(ErrorCodeInternalError, "failed to read status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"server":  ServerName,
		"version": ServerVersion,
		"state":   string(status.State),
		"ready":   s.engine.Ready(),
		"collections": map[string]interface{}{
			"counts":    status.Collections,
			"available": status.Available,
		},
		"embedding": map[string]interface{}{
			"provider":  status.EmbeddingProvider,
			"model":     status.EmbeddingModel,
			"dimension": status.EmbeddingDim,
		},
		"cache": map[string]interface{}{
			"bundles": status.CachedBundles,
		},
		"build": map[string]interface{}{
			"mode":             vecstore.BuildMode,
			"sqlite_driver":    vecstore.DriverName,
			"vector_extension": vecstore.VectorExtensionAvailable,
		},
	}

	return mcp.NewToolResultText(marshalJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// marshalJSON formats a value as indented JSON
func marshalJSON(v interface{}) string {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string-array parameter; non-string elements are
// dropped.
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// getStringMap extracts an object parameter with string values.
func getStringMap(args map[string]interface{}, key string) map[string]string {
	raw, ok := args[key].(map[string]interface{})
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// getDocTypes extracts and validates a doc_types array parameter.
func getDocTypes(args map[string]interface{}, key string) ([]types.DocType, error) {
	names := getStringSlice(args, key)
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]types.DocType, 0, len(names))
	for _, name := range names {
		dt, err := types.ParseDocType(name)
		if err != nil {
			return nil, err
		}
		out = append(out, dt)
	}
	return out, nil
}
