package maestrotools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maestro-mcp/maestro/internal/memory"
)

// QueryKnowledgeTool handles the query_knowledge_base MCP tool.
type QueryKnowledgeTool struct {
	memory *memory.Manager
}

// NewQueryKnowledgeTool creates a QueryKnowledgeTool.
func NewQueryKnowledgeTool(mem *memory.Manager) *QueryKnowledgeTool {
	return &QueryKnowledgeTool{memory: mem}
}

// Definition returns the MCP tool definition for query_knowledge_base.
func (t *QueryKnowledgeTool) Definition() mcp.Tool {
	return mcp.NewTool("query_knowledge_base",
		mcp.WithDescription(
			"Query Maestro's knowledge base of decisions, patterns, solutions, "+
				"and configurations, ranked by relevance.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text query"),
		),
		mcp.WithString("knowledge_type",
			mcp.Description("Restrict to one category: decisions, patterns, solutions, configurations (default: all)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default: 10)"),
		),
	)
}

// Handle processes the query_knowledge_base tool call.
func (t *QueryKnowledgeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	category := req.GetString("knowledge_type", "")
	if category != "" && !memory.ValidCategory(category) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"invalid knowledge_type %q: must be one of: %s",
			category, strings.Join(memory.Categories(), ", "))), nil
	}

	results := t.memory.QueryKnowledge(query, category, intArg(req, "limit", 10))
	return jsonResult(map[string]any{"results": results}), nil
}

// ─── SaveKnowledgeTool ──────────────────────────────────────────────────────

// SaveKnowledgeTool handles the save_knowledge MCP tool.
type SaveKnowledgeTool struct {
	memory *memory.Manager
}

// NewSaveKnowledgeTool creates a SaveKnowledgeTool.
func NewSaveKnowledgeTool(mem *memory.Manager) *SaveKnowledgeTool {
	return &SaveKnowledgeTool{memory: mem}
}

// Definition returns the MCP tool definition for save_knowledge.
func (t *SaveKnowledgeTool) Definition() mcp.Tool {
	return mcp.NewTool("save_knowledge",
		mcp.WithDescription(
			"Store a freestanding fact in the knowledge base, independent of any "+
				"session. Items are never auto-expired.",
		),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Category: decisions, patterns, solutions, configurations"),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("The fact to store"),
		),
		mcp.WithArray("tags",
			mcp.Description("Tags matched during knowledge queries"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithObject("metadata",
			mcp.Description("Arbitrary metadata; an impact_level number boosts query relevance"),
		),
	)
}

// Handle processes the save_knowledge tool call.
func (t *SaveKnowledgeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	description := req.GetString("description", "")

	if category == "" {
		return mcp.NewToolResultError("'category' is required"), nil
	}
	if description == "" {
		return mcp.NewToolResultError("'description' is required"), nil
	}

	item, err := t.memory.SaveKnowledge(category, memory.KnowledgeItem{
		Description: description,
		Tags:        stringSliceArg(req, "tags"),
		Metadata:    mapArg(req, "metadata"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("saving knowledge: %v", err)), nil
	}

	return jsonResult(map[string]any{"item": item}), nil
}
