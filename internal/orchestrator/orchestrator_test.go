package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/maestro-mcp/maestro/internal/delegate"
	"github.com/maestro-mcp/maestro/internal/memory"
	"github.com/maestro-mcp/maestro/internal/project"
	"github.com/maestro-mcp/maestro/internal/session"
	"github.com/maestro-mcp/maestro/internal/store"
)

// failingEndpoint is an Endpoint double whose calls always error.
type failingEndpoint struct{ err error }

func (f *failingEndpoint) Activate(ctx context.Context) error { return nil }
func (f *failingEndpoint) Call(ctx context.Context, action string, payload map[string]any) (map[string]any, error) {
	return nil, f.err
}

// fakeInspector returns a canned verification outcome.
type fakeInspector struct {
	verification *project.Verification
	err          error
}

func (f *fakeInspector) Snapshot(ctx context.Context) (*project.State, error) {
	return &project.State{}, nil
}
func (f *fakeInspector) Verify(ctx context.Context, claims []string) (*project.Verification, error) {
	return f.verification, f.err
}

type harness struct {
	orch     *Orchestrator
	sessions *session.Manager
	memory   *memory.Manager
}

func newHarness(t *testing.T, endpoints map[delegate.Name]delegate.Endpoint, insp project.Inspector) *harness {
	t.Helper()

	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if endpoints == nil {
		endpoints = make(map[delegate.Name]delegate.Endpoint)
		for _, n := range delegate.All() {
			endpoints[n] = delegate.NewSimulatedEndpoint(n, 0)
		}
	}
	if insp == nil {
		insp = &fakeInspector{verification: &project.Verification{Passed: true}}
	}

	sessions := session.NewManager(fs, session.Options{})
	mem := memory.NewManager(fs, 0)
	dispatcher := delegate.NewDispatcher(fs, endpoints, 5*time.Minute)

	orch, err := New(sessions, mem, dispatcher, insp)
	if err != nil {
		t.Fatal(err)
	}
	return &harness{orch: orch, sessions: sessions, memory: mem}
}

// --- Validation ---

func TestOrchestrateTask_EmptyTaskIsAnError(t *testing.T) {
	h := newHarness(t, nil, nil)
	if _, err := h.orch.OrchestrateTask(context.Background(), Request{Task: "   "}); err == nil {
		t.Fatal("expected error for blank task")
	}
}

func TestNew_RequiresAllCollaborators(t *testing.T) {
	if _, err := New(nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing collaborators")
	}
}

// --- Happy path ---

func TestOrchestrateTask_FullRunCompletes(t *testing.T) {
	h := newHarness(t, nil, nil)

	resp, err := h.orch.OrchestrateTask(context.Background(), Request{
		Task: "create the user table and design the signup component",
	})
	if err != nil {
		t.Fatalf("OrchestrateTask: %v", err)
	}

	if resp.Summary.CompletionStatus != StatusCompleted {
		t.Errorf("status = %s, want completed", resp.Summary.CompletionStatus)
	}
	if resp.Summary.Failed != 0 || resp.Summary.SuccessRate != 1 {
		t.Errorf("summary = %+v", resp.Summary)
	}
	if len(resp.Results) != len(resp.Plan.Steps) {
		t.Errorf("results = %d, steps = %d", len(resp.Results), len(resp.Plan.Steps))
	}

	// The session ends with the run and carries every step result.
	if h.sessions.ActiveCount() != 0 {
		t.Errorf("session left active")
	}
	s, err := h.sessions.Get(resp.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if s.Status != session.StatusCompleted {
		t.Errorf("session status = %s", s.Status)
	}
	if len(s.Results) != len(resp.Results) {
		t.Errorf("session results = %d, want %d", len(s.Results), len(resp.Results))
	}
}

func TestOrchestrateTask_ResultsKeepPlanOrder(t *testing.T) {
	h := newHarness(t, nil, nil)

	resp, err := h.orch.OrchestrateTask(context.Background(), Request{
		Task: "design the ui, create database tables, refactor code structure, run tests, deploy",
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, step := range resp.Plan.Steps {
		if resp.Results[i].Delegate != string(step.Delegate) {
			t.Errorf("results[%d] = %s, want %s", i, resp.Results[i].Delegate, step.Delegate)
		}
	}
}

// --- Partial failure ---

func TestOrchestrateTask_PartialFailureKeepsGoing(t *testing.T) {
	endpoints := make(map[delegate.Name]delegate.Endpoint)
	for _, n := range delegate.All() {
		endpoints[n] = delegate.NewSimulatedEndpoint(n, 0)
	}
	endpoints[delegate.DataLayer] = &failingEndpoint{err: errors.New("replica lag")}

	h := newHarness(t, endpoints, nil)
	resp, err := h.orch.OrchestrateTask(context.Background(), Request{
		Task: "design the ui and migrate database tables",
	})
	if err != nil {
		t.Fatalf("partial failure surfaced as Go error: %v", err)
	}

	if resp.Summary.CompletionStatus != StatusPartial {
		t.Errorf("status = %s, want partial", resp.Summary.CompletionStatus)
	}
	if resp.Summary.Failed != 1 {
		t.Errorf("failed = %d, want 1", resp.Summary.Failed)
	}

	// Every planned step still produced a recorded result.
	if len(resp.Results) != len(resp.Plan.Steps) {
		t.Errorf("results = %d, want %d", len(resp.Results), len(resp.Plan.Steps))
	}

	retryFound := false
	for _, step := range resp.NextSteps {
		if strings.Contains(step, "Retry failed step on data-layer") {
			retryFound = true
		}
	}
	if !retryFound {
		t.Errorf("no retry suggestion: %v", resp.NextSteps)
	}

	s, _ := h.sessions.Get(resp.SessionID)
	if s.Status != session.StatusFailed {
		t.Errorf("session status = %s, want failed", s.Status)
	}
}

// --- Verification gate ---

func TestOrchestrateTask_VerificationFailureShortCircuits(t *testing.T) {
	insp := &fakeInspector{verification: &project.Verification{
		Passed:  false,
		Checked: 2,
		Issues:  []string{`claimed file "missing.go" not found`},
	}}
	h := newHarness(t, nil, insp)

	resp, err := h.orch.OrchestrateTask(context.Background(), Request{
		Task:   "refactor the module",
		Verify: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Summary.CompletionStatus != StatusVerificationFailed {
		t.Errorf("status = %s, want verification_failed", resp.Summary.CompletionStatus)
	}
	if resp.SessionID != "" {
		t.Error("session opened despite failed verification")
	}
	if len(resp.Issues) != 1 {
		t.Errorf("issues = %v", resp.Issues)
	}
	if h.sessions.ActiveCount() != 0 {
		t.Error("active session leaked")
	}
}

func TestOrchestrateTask_VerifySkippedWhenNotRequested(t *testing.T) {
	insp := &fakeInspector{err: errors.New("inspector must not be called")}
	h := newHarness(t, nil, insp)

	if _, err := h.orch.OrchestrateTask(context.Background(), Request{Task: "run the tests"}); err != nil {
		t.Fatalf("verification ran without being requested: %v", err)
	}
}

// --- Context preservation ---

func TestOrchestrateTask_PreserveContextSavesEntry(t *testing.T) {
	h := newHarness(t, nil, nil)

	resp, err := h.orch.OrchestrateTask(context.Background(), Request{
		Task:            "design the dashboard",
		PreserveContext: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	entries := h.memory.Search(nil, "", resp.SessionID)
	if len(entries) != 1 {
		t.Fatalf("context entries = %d, want 1", len(entries))
	}
	if entries[0].Task != "design the dashboard" {
		t.Errorf("entry task = %s", entries[0].Task)
	}
	if entries[0].Plan == nil {
		t.Error("plan not preserved with the entry")
	}
}

func TestOrchestrateTask_NoContextSavedByDefault(t *testing.T) {
	h := newHarness(t, nil, nil)

	if _, err := h.orch.OrchestrateTask(context.Background(), Request{Task: "design the dashboard"}); err != nil {
		t.Fatal(err)
	}
	if h.memory.EntryCount() != 0 {
		t.Errorf("entries = %d, want 0", h.memory.EntryCount())
	}
}

// --- Next steps ---

func TestOrchestrateTask_DesignSuccessSuggestsTestingPass(t *testing.T) {
	h := newHarness(t, nil, nil)

	resp, err := h.orch.OrchestrateTask(context.Background(), Request{Task: "crear un componente de diseño"})
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, step := range resp.NextSteps {
		if strings.Contains(step, "testing pass") {
			found = true
		}
	}
	if !found {
		t.Errorf("no testing suggestion after design work: %v", resp.NextSteps)
	}
}
