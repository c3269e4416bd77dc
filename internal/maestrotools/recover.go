package maestrotools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maestro-mcp/maestro/internal/memory"
)

// RecoverContextTool handles the recover_context MCP tool.
type RecoverContextTool struct {
	memory *memory.Manager
}

// NewRecoverContextTool creates a RecoverContextTool.
func NewRecoverContextTool(mem *memory.Manager) *RecoverContextTool {
	return &RecoverContextTool{memory: mem}
}

// Definition returns the MCP tool definition for recover_context.
func (t *RecoverContextTool) Definition() mcp.Tool {
	return mcp.NewTool("recover_context",
		mcp.WithDescription(
			"Recover context from previous orchestrated tasks. With no search terms "+
				"it returns the most important recent entry (last 24 hours) — the "+
				"automatic recovery path for a fresh session.",
		),
		mcp.WithArray("search_terms",
			mcp.Description("Terms matched against task text, summaries, and tags"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("time_range",
			mcp.Description("Window to search: last_hour, last_day, last_week, all (default: all)"),
		),
		mcp.WithString("session_id",
			mcp.Description("Restrict results to one session"),
		),
	)
}

// Handle processes the recover_context tool call.
func (t *RecoverContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	terms := stringSliceArg(req, "search_terms")
	timeRange := req.GetString("time_range", "all")
	sessionID := req.GetString("session_id", "")

	var entries []*memory.ContextEntry
	if len(terms) == 0 && sessionID == "" {
		if recent := t.memory.Recent(); recent != nil {
			entries = append(entries, recent)
		}
	} else {
		entries = t.memory.Search(terms, timeRange, sessionID)
	}

	summary := "No matching context found."
	if len(entries) > 0 {
		summary = entries[0].Summary
	}

	return jsonResult(map[string]any{
		"results_count": len(entries),
		"summary":       summary,
		"context_data":  entries,
	}), nil
}
