package memory

import (
	"testing"
	"time"

	"github.com/maestro-mcp/maestro/internal/delegate"
	"github.com/maestro-mcp/maestro/internal/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewManager(fs, 0)
}

func planOf(names ...delegate.Name) *delegate.Plan {
	p := &delegate.Plan{}
	for _, n := range names {
		p.Steps = append(p.Steps, delegate.Step{Delegate: n})
	}
	return p
}

// --- Importance scoring ---

func TestScoreImportance_BaseCase(t *testing.T) {
	got := scoreImportance("simple task", planOf(delegate.DesignSystem), []delegate.Result{{Success: true}})
	if got != 1 {
		t.Errorf("importance = %d, want 1", got)
	}
}

func TestScoreImportance_FailureAddsTwo(t *testing.T) {
	results := []delegate.Result{{Success: true}, {Success: false}, {Success: false}}
	got := scoreImportance("simple task", planOf(delegate.DesignSystem), results)
	if got != 3 {
		t.Errorf("importance = %d, want 3 (failure counted once)", got)
	}
}

func TestScoreImportance_ArchitectureAndLongPlanClampToFive(t *testing.T) {
	results := []delegate.Result{{Success: false}}
	plan := planOf(delegate.DesignSystem, delegate.DataLayer, delegate.CodeStructure)
	got := scoreImportance("rediseñar la arquitectura del sistema", plan, results)
	if got != 5 {
		t.Errorf("importance = %d, want clamp to 5", got)
	}
}

func TestScoreImportance_Deterministic(t *testing.T) {
	plan := planOf(delegate.DataLayer, delegate.TestingQA, delegate.Deployment)
	results := []delegate.Result{{Success: true}, {Success: true}}
	first := scoreImportance("migrate the user table", plan, results)
	for i := 0; i < 10; i++ {
		if scoreImportance("migrate the user table", plan, results) != first {
			t.Fatal("importance not deterministic")
		}
	}
	if first < 1 || first > 5 {
		t.Errorf("importance %d out of range [1,5]", first)
	}
}

// --- Tags ---

func TestDeriveTags_DelegatesThenActionKeywords(t *testing.T) {
	plan := planOf(delegate.DesignSystem, delegate.TestingQA)
	tags := deriveTags("crear y probar el componente", plan)

	want := []string{"design-system", "testing-qa", "crear", "probar"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %s, want %s", i, tags[i], want[i])
		}
	}
}

// --- SaveTaskContext ---

func TestSaveTaskContext_StableContentID(t *testing.T) {
	m := newTestManager(t)

	e1, err := m.SaveTaskContext("session_1", "build the index", nil, nil, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	e2, _ := m.SaveTaskContext("session_1", "build the index", nil, nil, time.Now())
	e3, _ := m.SaveTaskContext("session_2", "build the index", nil, nil, time.Now())

	if len(e1.ID) != 16 {
		t.Errorf("id length = %d, want 16", len(e1.ID))
	}
	if e1.ID != e2.ID {
		t.Error("same task+session produced different ids")
	}
	if e1.ID == e3.ID {
		t.Error("different session produced same id")
	}
}

func TestSaveTaskContext_EvictsOldestPastCap(t *testing.T) {
	fs, _ := store.NewFileStore(t.TempDir())
	m := NewManager(fs, 5)

	for i := 0; i < 7; i++ {
		_, err := m.SaveTaskContext("s", string(rune('a'+i)), nil, nil, time.Now())
		if err != nil {
			t.Fatal(err)
		}
	}

	if m.EntryCount() != 5 {
		t.Fatalf("EntryCount = %d, want 5", m.EntryCount())
	}
	if m.entries[0].Task != "c" {
		t.Errorf("oldest retained task = %s, want c", m.entries[0].Task)
	}
}

// --- Search ---

func TestSearch_OrdersByImportanceThenRecency(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()

	// importance 1
	_, _ = m.SaveTaskContext("s", "small tweak", nil, []delegate.Result{{Success: true}}, now.Add(-3*time.Hour))
	// importance 3 (failure), older
	_, _ = m.SaveTaskContext("s", "tricky job", nil, []delegate.Result{{Success: false}}, now.Add(-2*time.Hour))
	// importance 3 (failure), newer
	_, _ = m.SaveTaskContext("s", "other tricky job", nil, []delegate.Result{{Success: false}}, now.Add(-1*time.Hour))

	got := m.Search(nil, "", "")
	if len(got) != 3 {
		t.Fatalf("results = %d, want 3", len(got))
	}
	if got[0].Task != "other tricky job" || got[1].Task != "tricky job" || got[2].Task != "small tweak" {
		t.Errorf("order = [%s %s %s]", got[0].Task, got[1].Task, got[2].Task)
	}
}

func TestSearch_FiltersBySessionAndTerms(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()
	_, _ = m.SaveTaskContext("s1", "deploy the api", nil, nil, now)
	_, _ = m.SaveTaskContext("s2", "design the homepage", nil, nil, now)

	got := m.Search(nil, "", "s2")
	if len(got) != 1 || got[0].Task != "design the homepage" {
		t.Errorf("session filter failed: %v", got)
	}

	got = m.Search([]string{"API"}, "", "")
	if len(got) != 1 || got[0].Task != "deploy the api" {
		t.Errorf("term filter (case-insensitive) failed: %v", got)
	}

	got = m.Search([]string{"nothing-matches"}, "", "")
	if len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}

func TestSearch_TimeWindowExcludesOldEntries(t *testing.T) {
	m := newTestManager(t)
	_, _ = m.SaveTaskContext("s", "old work", nil, nil, time.Now().Add(-48*time.Hour))
	_, _ = m.SaveTaskContext("s", "new work", nil, nil, time.Now())

	got := m.Search(nil, "last_day", "")
	if len(got) != 1 || got[0].Task != "new work" {
		t.Errorf("last_day window failed: %v", got)
	}
}

// --- Recent ---

func TestRecent_NilWhenEverythingIsStale(t *testing.T) {
	m := newTestManager(t)
	_, _ = m.SaveTaskContext("s", "ancient work", nil, nil, time.Now().Add(-25*time.Hour))

	if got := m.Recent(); got != nil {
		t.Errorf("Recent = %+v, want nil", got)
	}
}

func TestRecent_PicksHighestImportanceFreshEntry(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()
	_, _ = m.SaveTaskContext("s", "routine work", nil, []delegate.Result{{Success: true}}, now)
	_, _ = m.SaveTaskContext("s", "failed migration", nil, []delegate.Result{{Success: false}}, now.Add(-time.Hour))

	got := m.Recent()
	if got == nil || got.Task != "failed migration" {
		t.Errorf("Recent = %+v, want the higher-importance entry", got)
	}
}

// --- Knowledge base ---

func TestSaveKnowledge_RejectsUnknownCategory(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.SaveKnowledge("rumors", KnowledgeItem{Description: "x"}); err == nil {
		t.Fatal("expected error for invalid category")
	}
}

func TestSaveKnowledge_AssignsIDAndTimestamp(t *testing.T) {
	m := newTestManager(t)
	item, err := m.SaveKnowledge(CategoryPatterns, KnowledgeItem{Description: "retry with backoff"})
	if err != nil {
		t.Fatal(err)
	}
	if item.ID == "" {
		t.Error("id not assigned")
	}
	if item.CreatedAt.IsZero() {
		t.Error("created_at not assigned")
	}
	if item.Category != CategoryPatterns {
		t.Errorf("category = %s", item.Category)
	}
}

func TestQueryKnowledge_RanksExactMatchAboveWordHits(t *testing.T) {
	m := newTestManager(t)
	_, _ = m.SaveKnowledge(CategorySolutions, KnowledgeItem{Description: "cache invalidation strategy"})
	_, _ = m.SaveKnowledge(CategorySolutions, KnowledgeItem{Description: "strategy for connection pooling"})

	got := m.QueryKnowledge("cache invalidation", "", 10)
	if len(got) != 1 {
		t.Fatalf("results = %d, want 1", len(got))
	}
	if got[0].Description != "cache invalidation strategy" {
		t.Errorf("top hit = %s", got[0].Description)
	}
	// exact phrase (+5) plus both words (+2)
	if got[0].Relevance != 7 {
		t.Errorf("relevance = %v, want 7", got[0].Relevance)
	}
}

func TestQueryKnowledge_ImpactLevelBoostsRelevance(t *testing.T) {
	m := newTestManager(t)
	_, _ = m.SaveKnowledge(CategoryDecisions, KnowledgeItem{Description: "use postgres"})
	_, _ = m.SaveKnowledge(CategoryDecisions, KnowledgeItem{
		Description: "use postgres replicas",
		Metadata:    map[string]any{"impact_level": 4},
	})

	got := m.QueryKnowledge("postgres", "", 10)
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2", len(got))
	}
	if got[0].Description != "use postgres replicas" {
		t.Errorf("top hit = %s, want the impact-boosted item", got[0].Description)
	}
}

func TestQueryKnowledge_CategoryScopedAndLimited(t *testing.T) {
	m := newTestManager(t)
	_, _ = m.SaveKnowledge(CategoryPatterns, KnowledgeItem{Description: "worker pool pattern"})
	_, _ = m.SaveKnowledge(CategorySolutions, KnowledgeItem{Description: "worker crash fix"})

	got := m.QueryKnowledge("worker", CategoryPatterns, 10)
	if len(got) != 1 || got[0].Category != CategoryPatterns {
		t.Errorf("category scoping failed: %v", got)
	}

	got = m.QueryKnowledge("worker", "", 1)
	if len(got) != 1 {
		t.Errorf("limit not applied: %d results", len(got))
	}
}

// --- Restart recovery ---

func TestNewManager_RestoresEntriesAndKnowledge(t *testing.T) {
	dir := t.TempDir()
	fs, _ := store.NewFileStore(dir)

	m1 := NewManager(fs, 0)
	_, _ = m1.SaveTaskContext("s", "durable work", nil, nil, time.Now())
	_, _ = m1.SaveKnowledge(CategoryConfigurations, KnowledgeItem{Description: "timeout is 30s"})

	m2 := NewManager(fs, 0)
	if m2.EntryCount() != 1 {
		t.Errorf("EntryCount after restart = %d, want 1", m2.EntryCount())
	}
	if got := m2.QueryKnowledge("timeout", "", 10); len(got) != 1 {
		t.Errorf("knowledge not restored: %d hits", len(got))
	}
}
