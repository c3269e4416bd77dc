package maestrotools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maestro-mcp/maestro/internal/orchestrator"
)

// OrchestrateTaskTool handles the orchestrate_task MCP tool.
type OrchestrateTaskTool struct {
	orch *orchestrator.Orchestrator
}

// NewOrchestrateTaskTool creates an OrchestrateTaskTool.
func NewOrchestrateTaskTool(orch *orchestrator.Orchestrator) *OrchestrateTaskTool {
	return &OrchestrateTaskTool{orch: orch}
}

// Definition returns the MCP tool definition for orchestrate_task.
func (t *OrchestrateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("orchestrate_task",
		mcp.WithDescription(
			"Orchestrate a high-level task across Maestro's specialized delegates. "+
				"Analyzes the task, builds a dependency-ordered execution plan, runs it "+
				"step by step, and returns the results with a summary and next steps.",
		),
		mcp.WithString("task_description",
			mcp.Required(),
			mcp.Description("What needs to be done, in natural language (Spanish or English)"),
		),
		mcp.WithArray("context_hints",
			mcp.Description("Extra context for task analysis and verification"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("priority",
			mcp.Description("Task priority: low, medium, high (default: medium)"),
		),
		mcp.WithBoolean("preserve_context",
			mcp.Description("Persist the task outcome as a context entry for later recall (default: true)"),
		),
		mcp.WithBoolean("verify_before_assume",
			mcp.Description("Verify the supplied hints against the project state before planning (default: false)"),
		),
	)
}

// Handle processes the orchestrate_task tool call.
func (t *OrchestrateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task := req.GetString("task_description", "")
	if task == "" {
		return mcp.NewToolResultError("'task_description' is required"), nil
	}

	resp, err := t.orch.OrchestrateTask(ctx, orchestrator.Request{
		Task:            task,
		Hints:           stringSliceArg(req, "context_hints"),
		Priority:        req.GetString("priority", "medium"),
		PreserveContext: boolArg(req, "preserve_context", true),
		Verify:          boolArg(req, "verify_before_assume", false),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("orchestration failed: %v", err)), nil
	}

	return jsonResult(resp), nil
}
