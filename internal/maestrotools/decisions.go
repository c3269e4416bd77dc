package maestrotools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maestro-mcp/maestro/internal/decision"
)

// SaveDecisionTool handles the save_important_decision MCP tool.
type SaveDecisionTool struct {
	tracker *decision.Tracker
}

// NewSaveDecisionTool creates a SaveDecisionTool.
func NewSaveDecisionTool(tr *decision.Tracker) *SaveDecisionTool {
	return &SaveDecisionTool{tracker: tr}
}

// Definition returns the MCP tool definition for save_important_decision.
func (t *SaveDecisionTool) Definition() mcp.Tool {
	return mcp.NewTool("save_important_decision",
		mcp.WithDescription(
			"Record a significant decision with its rationale. Maestro derives "+
				"confidence, urgency, and reversibility, links similar prior "+
				"decisions, and produces an impact analysis.",
		),
		mcp.WithString("decision_type",
			mcp.Required(),
			mcp.Description("Type: architectural, design, database, deployment, business, security, performance, other"),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("What was decided"),
		),
		mcp.WithString("rationale",
			mcp.Required(),
			mcp.Description("Why — a substantial rationale raises the derived confidence"),
		),
		mcp.WithNumber("impact_level",
			mcp.Description("Stated impact 1-5 (default: 3)"),
		),
		mcp.WithArray("tags",
			mcp.Description("Tags used for similarity linking and affected areas"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// Handle processes the save_important_decision tool call.
func (t *SaveDecisionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ := req.GetString("decision_type", "")
	description := req.GetString("description", "")
	rationale := req.GetString("rationale", "")

	if typ == "" {
		return mcp.NewToolResultError("'decision_type' is required"), nil
	}
	if description == "" {
		return mcp.NewToolResultError("'description' is required"), nil
	}
	if rationale == "" {
		return mcp.NewToolResultError("'rationale' is required"), nil
	}

	d, analysis, err := t.tracker.Save(
		decision.Type(typ),
		description,
		rationale,
		intArg(req, "impact_level", 3),
		stringSliceArg(req, "tags"),
		nil,
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("saving decision: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"decision":        d,
		"impact_analysis": analysis,
	}), nil
}
