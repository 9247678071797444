package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/Foundup/Foundups-Agent-sub010/internal/engine"
	"github.com/Foundup/Foundups-Agent-sub010/internal/indexer"
)

const (
	// ServerName is the MCP server name
	ServerName = "holoindex"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP stdio server around the engine and the indexer.
type Server struct {
	mcp     *server.MCPServer
	engine  *engine.Engine
	indexer *indexer.Indexer
	logger  *zap.Logger
}

// Options wires the server's collaborators. Engine is required; Indexer may
// be nil when the deployment indexes out of band, in which case index_corpus
// reports an internal error.
type Options struct {
	Engine  *engine.Engine
	Indexer *indexer.Indexer
	Logger  *zap.Logger
}

// NewServer creates an MCP server over an already-bootstrapped engine.
func NewServer(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("mcp server requires an engine")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
		engine:  opts.Engine,
		indexer: opts.Indexer,
		logger:  opts.Logger,
	}
	s.registerTools()
	return s, nil
}

// Serve runs the MCP server on stdio and blocks until the transport closes.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("MCP server listening on stdio",
		zap.String("name", ServerName), zap.String("version", ServerVersion))
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchTool(), s.handleSearch)
	s.mcp.AddTool(indexCorpusTool(), s.handleIndexCorpus)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
