package maestrotools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maestro-mcp/maestro/internal/orchestrator"
)

// SystemStatusTool handles the get_system_status MCP tool.
type SystemStatusTool struct {
	orch    *orchestrator.Orchestrator
	version string
}

// NewSystemStatusTool creates a SystemStatusTool.
func NewSystemStatusTool(orch *orchestrator.Orchestrator, version string) *SystemStatusTool {
	return &SystemStatusTool{orch: orch, version: version}
}

// Definition returns the MCP tool definition for get_system_status.
func (t *SystemStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("get_system_status",
		mcp.WithDescription(
			"Report Maestro's health: active sessions, retained context entries, "+
				"and per-delegate activation state. Detailed mode adds the project "+
				"state snapshot.",
		),
		mcp.WithBoolean("detailed",
			mcp.Description("Include the project-state snapshot (default: false)"),
		),
	)
}

// Handle processes the get_system_status tool call.
func (t *SystemStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp := map[string]any{
		"maestro_status": map[string]any{
			"version":         t.version,
			"active_sessions": t.orch.Sessions().ActiveCount(),
			"context_entries": t.orch.Memory().EntryCount(),
		},
		"delegate_statuses": t.orch.Dispatcher().Statuses(),
	}

	if boolArg(req, "detailed", false) {
		st, err := t.orch.Inspector().Snapshot(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("snapshotting project: %v", err)), nil
		}
		resp["project_state"] = st
	}

	return jsonResult(resp), nil
}
