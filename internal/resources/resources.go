// Package resources implements MCP resource handlers for Maestro.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (maestro://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maestro-mcp/maestro/internal/orchestrator"
)

// Handler manages Maestro resource endpoints.
type Handler struct {
	orch    *orchestrator.Orchestrator
	version string
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(orch *orchestrator.Orchestrator, version string) *Handler {
	return &Handler{orch: orch, version: version}
}

// StatusResource returns the MCP resource definition for system status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"maestro://system/status",
		"Maestro System Status",
		mcp.WithResourceDescription("Active sessions, retained context, and delegate activation state"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current system status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	status := map[string]any{
		"version":           h.version,
		"active_sessions":   h.orch.Sessions().ActiveCount(),
		"context_entries":   h.orch.Memory().EntryCount(),
		"delegate_statuses": h.orch.Dispatcher().Statuses(),
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
