// Package mcp implements the Model Context Protocol (MCP) server for
// HoloIndex.
//
// The MCP server exposes three tools to AI coding assistants:
//   - search: run one query cycle and return the versioned result bundle
//   - index_corpus: walk the corpus roots and (re)index them
//   - get_status: report session state, collection counts, and build info
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Stdout carries the protocol; all logging goes to stderr.
//
// # Tool: search
//
//	Request:
//	{
//	  "name": "search",
//	  "arguments": {
//	    "query": "retry handler with backoff",
//	    "limit": 10,
//	    "doc_types": ["code", "test"],
//	    "context": {"module": "internal/retry"}
//	  }
//	}
//
// The response is the ResultBundle JSON: schema_version, ok, hits_by_type
// (plus the legacy flat aliases), structured_memory keyed by routine name,
// task_retrieval, and metadata with per-type counts and elapsed time. Zero
// surviving hits is a normal response with ok=true and empty hit lists, not
// an error.
//
// # Tool: index_corpus
//
//	Request:
//	{
//	  "name": "index_corpus",
//	  "arguments": {
//	    "roots": ["/path/to/corpus"],
//	    "doc_type": "protocol_doc"
//	  }
//	}
//
// Both arguments are optional: without roots the configured corpus roots are
// used, without doc_type files are classified by the extension rules. The
// response carries the run statistics (files indexed/skipped/failed, points
// upserted, skills discovered, elapsed time). A successful run invalidates
// the engine's bundle cache.
//
// # Tool: get_status
//
// No arguments. Reports the session state, per-collection point counts and
// availability, embedding provider identity, and build information.
//
// # Error Handling
//
// Handlers return JSON-RPC style errors:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "query parameter is required",
//	    "data": {"param": "query", "reason": "missing or empty"}
//	  }
//	}
//
// Error codes:
//   - -32602: invalid params (missing/invalid arguments)
//   - -32603: internal error
//   - -32002: another indexing run is in progress
//   - -32004: query parameter is empty
//
// Degraded retrieval (an unreachable collection, a failed routine, a research
// timeout) is not an error at this layer: it is reported inside the bundle's
// metadata.degraded list with ok still true.
package mcp
