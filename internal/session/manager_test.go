package session

import (
	"strings"
	"testing"
	"time"

	"github.com/maestro-mcp/maestro/internal/delegate"
	"github.com/maestro-mcp/maestro/internal/store"
)

// memStore is an in-memory store.Store for fast rolling-log tests.
type memStore struct {
	docs map[string][]byte
}

func newMemStore() *memStore { return &memStore{docs: make(map[string][]byte)} }

func (m *memStore) Read(name string, doc any) error { return nil }
func (m *memStore) Write(name string, doc any) error {
	m.docs[name] = []byte("written")
	return nil
}
func (m *memStore) Path(name string) string { return name }

func newTestManager(t *testing.T, opts Options) *Manager {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewManager(fs, opts)
}

// --- Start ---

func TestStart_ReturnsUsableID(t *testing.T) {
	m := newTestManager(t, Options{})

	id, err := m.Start("build the thing", "high", nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.HasPrefix(id, "session_") {
		t.Errorf("id = %s, want session_ prefix", id)
	}
	if m.ActiveCount() != 1 {
		t.Errorf("ActiveCount = %d, want 1", m.ActiveCount())
	}
}

func TestStart_IDsAreUnique(t *testing.T) {
	m := newTestManager(t, Options{})

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := m.Start("task", "low", nil)
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

// --- UpdateProgress ---

func TestUpdateProgress_RecomputesPercentage(t *testing.T) {
	m := newTestManager(t, Options{})
	id, _ := m.Start("task", "low", nil)

	if err := m.UpdateProgress(id, ProgressUpdate{CurrentStep: 1, TotalSteps: 4}); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	s, _ := m.Get(id)
	if s.Progress.Percentage != 25 {
		t.Errorf("Percentage = %v, want 25", s.Progress.Percentage)
	}
}

func TestUpdateProgress_ClampsExplicitPercentage(t *testing.T) {
	m := newTestManager(t, Options{})
	id, _ := m.Start("task", "low", nil)

	over := 150.0
	if err := m.UpdateProgress(id, ProgressUpdate{Percentage: &over}); err != nil {
		t.Fatal(err)
	}
	s, _ := m.Get(id)
	if s.Progress.Percentage != 100 {
		t.Errorf("Percentage = %v, want clamped 100", s.Progress.Percentage)
	}
}

// --- End and immutability ---

func TestEnd_ComputesMetricsAndRemovesFromActive(t *testing.T) {
	m := newTestManager(t, Options{})
	id, _ := m.Start("task", "low", nil)

	_ = m.AddResult(id, delegate.Result{Delegate: "design-system", Success: true})
	_ = m.AddResult(id, delegate.Result{Delegate: "testing-qa", Success: false})

	if err := m.End(id, StatusCompleted); err != nil {
		t.Fatalf("End: %v", err)
	}
	if m.ActiveCount() != 0 {
		t.Errorf("ActiveCount = %d, want 0", m.ActiveCount())
	}

	s, _ := m.Get(id)
	if s.Metrics.SuccessRate != 0.5 {
		t.Errorf("SuccessRate = %v, want 0.5", s.Metrics.SuccessRate)
	}
	if s.Status != StatusCompleted {
		t.Errorf("Status = %s, want completed", s.Status)
	}
}

func TestEnd_ThenUpdateProgressYieldsNotFound(t *testing.T) {
	m := newTestManager(t, Options{})
	id, _ := m.Start("task", "low", nil)
	_ = m.End(id, StatusCompleted)

	err := m.UpdateProgress(id, ProgressUpdate{CurrentStep: 1})
	if err == nil {
		t.Fatal("expected error updating ended session")
	}
	if !strings.Contains(err.Error(), ErrNotFound.Error()) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestAddResult_UnknownSessionYieldsNotFound(t *testing.T) {
	m := newTestManager(t, Options{})
	if err := m.AddResult("session_missing", delegate.Result{}); err == nil {
		t.Fatal("expected NotFound for unknown session")
	}
}

// --- Delegate first-touch ordering ---

func TestAddResult_TracksDelegatesInFirstTouchOrder(t *testing.T) {
	m := newTestManager(t, Options{})
	id, _ := m.Start("task", "low", nil)

	_ = m.AddResult(id, delegate.Result{Delegate: "data-layer", Success: true})
	_ = m.AddResult(id, delegate.Result{Delegate: "design-system", Success: true})
	_ = m.AddResult(id, delegate.Result{Delegate: "data-layer", Success: true})

	s, _ := m.Get(id)
	if len(s.Delegates) != 2 || s.Delegates[0] != "data-layer" || s.Delegates[1] != "design-system" {
		t.Errorf("Delegates = %v, want [data-layer design-system]", s.Delegates)
	}
}

// --- Rolling log cap ---

func TestStart_EvictsExactlyOldestBeyondCap(t *testing.T) {
	m := NewManager(newMemStore(), Options{Cap: 500})

	ids := make([]string, 0, 501)
	for i := 0; i < 501; i++ {
		id, err := m.Start("task", "low", nil)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	if len(m.logged) != 500 {
		t.Fatalf("log size = %d, want 500", len(m.logged))
	}
	if m.logged[0].ID != ids[1] {
		t.Errorf("oldest retained = %s, want %s (only first evicted)", m.logged[0].ID, ids[1])
	}
	if m.logged[499].ID != ids[500] {
		t.Errorf("newest = %s, want %s", m.logged[499].ID, ids[500])
	}
	for i, s := range m.logged {
		if s.ID != ids[i+1] {
			t.Fatalf("order broken at %d", i)
		}
	}
}

// --- Search ---

func TestSearch_FiltersByStatusAndText(t *testing.T) {
	m := newTestManager(t, Options{})
	a, _ := m.Start("deploy the api", "high", nil)
	_, _ = m.Start("design the homepage", "low", nil)
	_ = m.End(a, StatusCompleted)

	got := m.Search(SearchCriteria{Status: StatusCompleted})
	if len(got) != 1 || got[0].ID != a {
		t.Errorf("status search = %d results, want the ended session", len(got))
	}

	got = m.Search(SearchCriteria{Text: "homepage"})
	if len(got) != 1 || got[0].Task != "design the homepage" {
		t.Errorf("text search failed: %v", got)
	}
}

// --- Timeout sweep ---

func TestSweep_ForceEndsStaleSessions(t *testing.T) {
	m := newTestManager(t, Options{Timeout: 24 * time.Hour})
	id, _ := m.Start("task", "low", nil)

	m.mu.Lock()
	m.active[id].LastActivity = time.Now().Add(-25 * time.Hour)
	m.mu.Unlock()

	m.sweep(time.Now())

	if m.ActiveCount() != 0 {
		t.Fatalf("stale session still active")
	}
	s, _ := m.Get(id)
	if s.Status != StatusTimeout {
		t.Errorf("Status = %s, want timeout", s.Status)
	}
}

func TestSweep_LeavesFreshSessionsAlone(t *testing.T) {
	m := newTestManager(t, Options{Timeout: 24 * time.Hour})
	id, _ := m.Start("task", "low", nil)

	m.sweep(time.Now())

	if m.ActiveCount() != 1 {
		t.Errorf("fresh session swept")
	}
	s, _ := m.Get(id)
	if s.Status != StatusActive {
		t.Errorf("Status = %s, want active", s.Status)
	}
}

// --- Restart recovery ---

func TestNewManager_RestoresActiveSessionsFromStore(t *testing.T) {
	dir := t.TempDir()
	fs, _ := store.NewFileStore(dir)

	m1 := NewManager(fs, Options{})
	id, _ := m1.Start("long running", "high", nil)

	m2 := NewManager(fs, Options{})
	if m2.ActiveCount() != 1 {
		t.Fatalf("ActiveCount after restart = %d, want 1", m2.ActiveCount())
	}
	if err := m2.UpdateProgress(id, ProgressUpdate{CurrentStep: 1, TotalSteps: 2}); err != nil {
		t.Errorf("restored session not mutable: %v", err)
	}
}
