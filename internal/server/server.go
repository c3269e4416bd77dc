// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the store, managers, dispatcher,
// and orchestrator, and injects them into the tools/prompts/resources that
// depend on them. No business logic lives here — only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/maestro-mcp/maestro/internal/config"
	"github.com/maestro-mcp/maestro/internal/decision"
	"github.com/maestro-mcp/maestro/internal/delegate"
	"github.com/maestro-mcp/maestro/internal/maestrotools"
	"github.com/maestro-mcp/maestro/internal/memory"
	"github.com/maestro-mcp/maestro/internal/orchestrator"
	"github.com/maestro-mcp/maestro/internal/project"
	"github.com/maestro-mcp/maestro/internal/prompts"
	"github.com/maestro-mcp/maestro/internal/resources"
	"github.com/maestro-mcp/maestro/internal/session"
	"github.com/maestro-mcp/maestro/internal/store"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts, and
// resources registered. This is the single place where all dependencies are
// resolved.
//
// The returned cleanup function stops the session sweeper and must be called
// on shutdown (typically via defer).
func New(cfg *config.Config) (*server.MCPServer, func(), error) {
	// --- Create shared dependencies ---

	st, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("creating store: %w", err)
	}

	sessions := session.NewManager(st, session.Options{
		Cap:        cfg.SessionCap,
		Timeout:    cfg.SessionTimeout,
		SweepEvery: cfg.SweepInterval,
	})

	mem := memory.NewManager(st, cfg.ContextCap)
	tracker := decision.NewTracker(st)

	endpoints := make(map[delegate.Name]delegate.Endpoint, len(delegate.All()))
	for _, name := range delegate.All() {
		endpoints[name] = delegate.NewSimulatedEndpoint(name, cfg.SimLatency)
	}
	dispatcher := delegate.NewDispatcher(st, endpoints, cfg.SyncWindow)

	inspector := project.NewFSInspector(cfg.ProjectRoot)

	orch, err := orchestrator.New(sessions, mem, dispatcher, inspector)
	if err != nil {
		return nil, nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"maestro",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	orchestrate := maestrotools.NewOrchestrateTaskTool(orch)
	s.AddTool(orchestrate.Definition(), orchestrate.Handle)

	recoverCtx := maestrotools.NewRecoverContextTool(mem)
	s.AddTool(recoverCtx.Definition(), recoverCtx.Handle)

	dispatch := maestrotools.NewDelegateTool(dispatcher)
	s.AddTool(dispatch.Definition(), dispatch.Handle)

	sync := maestrotools.NewSyncProjectStateTool(dispatcher, inspector, st)
	s.AddTool(sync.Definition(), sync.Handle)

	status := maestrotools.NewSystemStatusTool(orch, Version)
	s.AddTool(status.Definition(), status.Handle)

	saveDecision := maestrotools.NewSaveDecisionTool(tracker)
	s.AddTool(saveDecision.Definition(), saveDecision.Handle)

	queryKnowledge := maestrotools.NewQueryKnowledgeTool(mem)
	s.AddTool(queryKnowledge.Definition(), queryKnowledge.Handle)

	saveKnowledge := maestrotools.NewSaveKnowledgeTool(mem)
	s.AddTool(saveKnowledge.Definition(), saveKnowledge.Handle)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(orch, Version)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	// --- Start background work ---
	//
	// The sweeper is owned by the session manager and stopped explicitly on
	// shutdown rather than left as an unmanaged timer.
	sessions.StartSweeper()
	cleanup := func() { sessions.Stop() }

	return s, cleanup, nil
}

// serverInstructions returns the system instructions that tell the AI how to
// use Maestro effectively.
func serverInstructions() string {
	return `You have access to Maestro, a task-orchestration and context-persistence MCP server.

## WHEN TO ACTIVATE Maestro

- At the start of a session: call recover_context with no arguments to pick up recent work.
- For any multi-topic task (design + data + code + testing + deployment): call orchestrate_task
  instead of working through the topics ad hoc. Maestro plans delegate order by dependency and
  runs independent steps concurrently.
- When a single capability is needed: call delegate_to_mcp directly.

## REMEMBERING

- orchestrate_task with preserve_context saves a durable context entry automatically.
- Record significant choices with save_important_decision; Maestro links similar prior
  decisions and produces an impact analysis with recommendations.
- Store reusable facts with save_knowledge and find them later with query_knowledge_base.

## HEALTH

- get_system_status reports active sessions and per-delegate state.
- sync_project_state pushes a fresh project snapshot to every delegate.`
}
