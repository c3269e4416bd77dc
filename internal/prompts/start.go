// Package prompts implements the MCP prompts that teach a host how to work
// with Maestro: recover context first, orchestrate, record decisions.
package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the maestro-start MCP prompt.
// It instructs the AI to recover prior context before orchestrating new work.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("maestro-start",
		mcp.WithPromptDescription(
			"Start a Maestro work session. Recovers recent context and "+
				"prepares the orchestrator for a new task.",
		),
	)
}

// Handle processes the maestro-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Maestro Session Start",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `recover_context` (no arguments) to pick up where the last session left off.\n\n" +
						"Then:\n" +
						"1. Summarize the recovered context, if any\n" +
						"2. Ask me what task to orchestrate next\n" +
						"3. Use `orchestrate_task` with preserve_context enabled for anything non-trivial\n" +
						"4. Record significant choices with `save_important_decision` as you go",
				),
			},
		},
	}, nil
}
