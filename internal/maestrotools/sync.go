package maestrotools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maestro-mcp/maestro/internal/delegate"
	"github.com/maestro-mcp/maestro/internal/project"
	"github.com/maestro-mcp/maestro/internal/store"
)

// SyncProjectStateTool handles the sync_project_state MCP tool.
type SyncProjectStateTool struct {
	dispatcher *delegate.Dispatcher
	inspector  project.Inspector
	store      store.Store
}

// NewSyncProjectStateTool creates a SyncProjectStateTool.
func NewSyncProjectStateTool(d *delegate.Dispatcher, in project.Inspector, st store.Store) *SyncProjectStateTool {
	return &SyncProjectStateTool{dispatcher: d, inspector: in, store: st}
}

// Definition returns the MCP tool definition for sync_project_state.
func (t *SyncProjectStateTool) Definition() mcp.Tool {
	return mcp.NewTool("sync_project_state",
		mcp.WithDescription(
			"Snapshot the project state and push it to every delegate. Delegates "+
				"synced within the last few minutes are skipped unless forced.",
		),
		mcp.WithBoolean("force_sync",
			mcp.Description("Sync every delegate even if recently synced (default: false)"),
		),
		mcp.WithBoolean("include_backups",
			mcp.Description("Include store backup files in the reported document inventory (default: false)"),
		),
	)
}

// Handle processes the sync_project_state tool call.
func (t *SyncProjectStateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := t.inspector.Snapshot(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("snapshotting project: %v", err)), nil
	}

	states := t.dispatcher.SyncAll(ctx, st.Map(), boolArg(req, "force_sync", false))

	resp := map[string]any{
		"project_state": st,
		"mcp_states":    states,
	}
	if boolArg(req, "include_backups", false) {
		resp["store_documents"] = t.storeInventory()
	}
	return jsonResult(resp), nil
}

// storeInventory lists the persisted documents, including temp backups left
// by interrupted writes.
func (t *SyncProjectStateTool) storeInventory() []string {
	dir := filepath.Dir(t.store.Path(store.SessionsDoc))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.Contains(e.Name(), ".json") {
			out = append(out, e.Name())
		}
	}
	return out
}
