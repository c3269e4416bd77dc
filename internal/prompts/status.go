package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the maestro-status MCP prompt.
// It instructs the AI to read and present the orchestration system's state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("maestro-status",
		mcp.WithPromptDescription(
			"Check Maestro's current state: active sessions, delegate "+
				"health, and retained context.",
		),
	)
}

// Handle processes the maestro-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Maestro System Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `get_system_status` with detailed enabled.\n\n" +
						"Then:\n" +
						"1. Show the delegate statuses in a clear, visual format\n" +
						"2. Flag any delegate in the error state\n" +
						"3. Summarize active sessions and how much context is retained\n" +
						"4. Suggest `sync_project_state` if the project snapshot looks stale",
				),
			},
		},
	}, nil
}
