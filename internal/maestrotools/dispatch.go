package maestrotools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maestro-mcp/maestro/internal/delegate"
)

// DelegateTool handles the delegate_to_mcp MCP tool — a direct pass-through
// to the Dispatcher for one capability call.
type DelegateTool struct {
	dispatcher *delegate.Dispatcher
}

// NewDelegateTool creates a DelegateTool.
func NewDelegateTool(d *delegate.Dispatcher) *DelegateTool {
	return &DelegateTool{dispatcher: d}
}

// Definition returns the MCP tool definition for delegate_to_mcp.
func (t *DelegateTool) Definition() mcp.Tool {
	return mcp.NewTool("delegate_to_mcp",
		mcp.WithDescription(
			"Dispatch a single action directly to one delegate, bypassing task "+
				"analysis and planning. Validates the delegate and its capability "+
				"set; failures come back as structured results, never as errors.",
		),
		mcp.WithString("target_delegate",
			mcp.Required(),
			mcp.Description("Delegate name: design-system, data-layer, code-structure, testing-qa, deployment"),
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Named action from the delegate's capability set"),
		),
		mcp.WithObject("payload",
			mcp.Description("Action payload"),
		),
		mcp.WithObject("context",
			mcp.Description("Task context forwarded alongside the payload"),
		),
	)
}

// Handle processes the delegate_to_mcp tool call.
func (t *DelegateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target := req.GetString("target_delegate", "")
	action := req.GetString("action", "")

	if target == "" {
		return mcp.NewToolResultError("'target_delegate' is required"), nil
	}
	if action == "" {
		return mcp.NewToolResultError("'action' is required"), nil
	}

	res := t.dispatcher.Dispatch(ctx, target, action, mapArg(req, "payload"), mapArg(req, "context"))
	return jsonResult(map[string]any{"result": res}), nil
}
