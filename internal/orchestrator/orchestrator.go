package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/maestro-mcp/maestro/internal/delegate"
	"github.com/maestro-mcp/maestro/internal/memory"
	"github.com/maestro-mcp/maestro/internal/project"
	"github.com/maestro-mcp/maestro/internal/session"
)

// ErrVerificationFailed marks a pre-flight information check that did not
// hold. OrchestrateTask reports it inside the response, not as a Go error.
var ErrVerificationFailed = errors.New("VerificationFailed")

// Completion statuses reported in the run summary.
const (
	StatusCompleted          = "completed"
	StatusPartial            = "partial"
	StatusVerificationFailed = "verification_failed"
)

// Request is one orchestration call.
type Request struct {
	Task            string   `json:"task"`
	Hints           []string `json:"context_hints,omitempty"`
	Priority        string   `json:"priority,omitempty"`
	PreserveContext bool     `json:"preserve_context"`
	Verify          bool     `json:"verify_before_assume"`
}

// Summary aggregates a run's outcome.
type Summary struct {
	TotalSteps       int     `json:"total_steps"`
	Succeeded        int     `json:"succeeded"`
	Failed           int     `json:"failed"`
	SuccessRate      float64 `json:"success_rate"`
	CompletionStatus string  `json:"completion_status"`
	Overview         string  `json:"overview"`
}

// Response is what OrchestrateTask returns to the caller. It is always
// populated, even on partial failure; only request validation and
// unrecoverable persistence failures surface as Go errors.
type Response struct {
	SessionID string            `json:"session_id,omitempty"`
	Analysis  Analysis          `json:"analysis"`
	Plan      *delegate.Plan    `json:"execution_plan,omitempty"`
	Results   []delegate.Result `json:"results,omitempty"`
	Summary   Summary           `json:"summary"`
	NextSteps []string          `json:"next_steps,omitempty"`
	Issues    []string          `json:"issues,omitempty"`
}

// Orchestrator drives a task from analysis to summary. All collaborators
// are owned registries passed in at construction; there is no ambient state.
type Orchestrator struct {
	sessions   *session.Manager
	memory     *memory.Manager
	dispatcher *delegate.Dispatcher
	inspector  project.Inspector
}

// New creates an Orchestrator over its collaborators. All four are required.
func New(sessions *session.Manager, mem *memory.Manager, dispatcher *delegate.Dispatcher, inspector project.Inspector) (*Orchestrator, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if mem == nil {
		return nil, fmt.Errorf("memory manager is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if inspector == nil {
		return nil, fmt.Errorf("project inspector is required")
	}
	return &Orchestrator{sessions: sessions, memory: mem, dispatcher: dispatcher, inspector: inspector}, nil
}

// Dispatcher exposes the dispatcher for direct pass-through calls.
func (o *Orchestrator) Dispatcher() *delegate.Dispatcher { return o.dispatcher }

// Sessions exposes the session manager for status reporting.
func (o *Orchestrator) Sessions() *session.Manager { return o.sessions }

// Memory exposes the context manager for recall operations.
func (o *Orchestrator) Memory() *memory.Manager { return o.memory }

// Inspector exposes the project-state collaborator.
func (o *Orchestrator) Inspector() project.Inspector { return o.inspector }

// OrchestrateTask runs the full state machine:
// received → verified? → planned → executing → completed|partial.
//
// Verification failure returns immediately without opening a session. After
// that every step's result is recorded no matter what came before it —
// partial failure never aborts the plan.
func (o *Orchestrator) OrchestrateTask(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Task) == "" {
		return nil, fmt.Errorf("task description is required")
	}

	if req.Verify {
		v, err := o.inspector.Verify(ctx, req.Hints)
		if err != nil {
			return nil, fmt.Errorf("pre-flight verification: %w", err)
		}
		if !v.Passed {
			return &Response{
				Summary: Summary{CompletionStatus: StatusVerificationFailed,
					Overview: fmt.Sprintf("%d of %d claims failed verification", len(v.Issues), v.Checked)},
				Issues:    v.Issues,
				NextSteps: []string{"Correct the supplied information and retry"},
			}, nil
		}
	}

	sessionID, err := o.sessions.Start(req.Task, req.Priority, req.Hints)
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}

	analysis := Analyze(req.Task, req.Hints)
	plan := BuildPlan(analysis)

	if err := o.sessions.UpdateProgress(sessionID, session.ProgressUpdate{TotalSteps: plan.TotalSteps}); err != nil {
		log.Printf("WARNING: recording plan size for %s: %v", sessionID, err)
	}

	results := o.executePlan(ctx, sessionID, req.Task, plan)

	summary := summarize(req.Task, results)
	finalStatus := session.StatusCompleted
	if summary.Failed > 0 {
		finalStatus = session.StatusFailed
	}
	if err := o.sessions.End(sessionID, finalStatus); err != nil {
		log.Printf("WARNING: closing session %s: %v", sessionID, err)
	}

	if req.PreserveContext {
		if _, err := o.memory.SaveTaskContext(sessionID, req.Task, plan, results, time.Now()); err != nil {
			return nil, fmt.Errorf("preserving task context: %w", err)
		}
	}

	return &Response{
		SessionID: sessionID,
		Analysis:  analysis,
		Plan:      plan,
		Results:   results,
		Summary:   summary,
		NextSteps: nextSteps(results),
	}, nil
}

// executePlan issues the steps in order. A parallel-eligible step is issued
// without waiting; a non-parallel step first waits for all previously issued
// work to settle, so dependency-bearing steps keep program order while
// independent ones fan out. Every result is recorded against the session —
// there is no short-circuiting.
func (o *Orchestrator) executePlan(ctx context.Context, sessionID, task string, plan *delegate.Plan) []delegate.Result {
	results := make([]delegate.Result, len(plan.Steps))

	var wg sync.WaitGroup
	var mu sync.Mutex
	for i, step := range plan.Steps {
		if !step.Parallel {
			wg.Wait()
		}

		wg.Add(1)
		go func(i int, step delegate.Step) {
			defer wg.Done()
			res := o.dispatcher.Dispatch(ctx, string(step.Delegate), delegate.ActionExecuteTask,
				map[string]any{"task": task, "step": i + 1},
				map[string]any{"session_id": sessionID})

			mu.Lock()
			results[i] = res
			if err := o.sessions.AddResult(sessionID, res); err != nil {
				log.Printf("WARNING: recording step %d result: %v", i+1, err)
			}
			if err := o.sessions.UpdateProgress(sessionID, session.ProgressUpdate{CurrentStep: i + 1}); err != nil {
				log.Printf("WARNING: recording step %d progress: %v", i+1, err)
			}
			mu.Unlock()
		}(i, step)
	}
	wg.Wait()

	return results
}

func summarize(task string, results []delegate.Result) Summary {
	s := Summary{TotalSteps: len(results)}
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	if s.TotalSteps > 0 {
		s.SuccessRate = float64(s.Succeeded) / float64(s.TotalSteps)
	}
	s.CompletionStatus = StatusCompleted
	if s.Failed > 0 {
		s.CompletionStatus = StatusPartial
	}

	short := task
	if len(short) > 60 {
		short = short[:57] + "..."
	}
	s.Overview = fmt.Sprintf("%q: %d/%d steps succeeded (%s)", short, s.Succeeded, s.TotalSteps, s.CompletionStatus)
	return s
}

// nextSteps suggests follow-ups: a retry when any step failed, and a
// testing pass when the design-system step landed successfully.
func nextSteps(results []delegate.Result) []string {
	var out []string
	for _, r := range results {
		if !r.Success {
			out = append(out, fmt.Sprintf("Retry failed step on %s (%s)", r.Delegate, r.Error))
		}
	}
	for _, r := range results {
		if r.Success && r.Delegate == string(delegate.DesignSystem) {
			out = append(out, "Run a testing pass over the new design-system work")
			break
		}
	}
	if len(out) == 0 {
		out = append(out, "No follow-up required")
	}
	return out
}
