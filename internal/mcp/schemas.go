package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchTool returns the tool definition for search
func searchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search",
		Description: "Search the indexed corpus with a natural language query and get ranked evidence plus guidance",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language query (e.g. 'where is the auth module')",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum hits per doc type (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"doc_types": map[string]interface{}{
					"type":        "array",
					"description": "Restrict retrieval to these collections; empty means all",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"code", "protocol_doc", "test", "skill"},
					},
				},
				"context": map[string]interface{}{
					"type":        "object",
					"description": "Caller-supplied hints (module name, task description) consumed by intent classification and analysis routines",
					"additionalProperties": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"query"},
		},
	}
}

// indexCorpusTool returns the tool definition for index_corpus
func indexCorpusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_corpus",
		Description: "Index the corpus roots into the vector store, re-embedding only changed files",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"roots": map[string]interface{}{
					"type":        "array",
					"description": "Directories to index; defaults to the configured corpus roots",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"doc_type": map[string]interface{}{
					"type":        "string",
					"description": "Classify every discovered file as this type instead of applying the extension rules",
					"enum":        []string{"code", "protocol_doc", "test", "skill"},
				},
			},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report session state, per-collection counts and availability, and build info",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
