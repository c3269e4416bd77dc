// Package delegate owns the specialized-worker layer: delegate identities,
// their declared capabilities, live status tracking, and the Dispatcher that
// routes capability calls with per-call error isolation.
package delegate

import "time"

// Name identifies a known delegate. The set is closed: dispatch is resolved
// by switch over these identities, with Unknown preserving the permissive
// behavior for names outside the catalog.
type Name string

const (
	DesignSystem  Name = "design-system"
	DataLayer     Name = "data-layer"
	CodeStructure Name = "code-structure"
	TestingQA     Name = "testing-qa"
	Deployment    Name = "deployment"
	Unknown       Name = "unknown"
)

// All lists every known delegate in catalog order.
func All() []Name {
	return []Name{DesignSystem, DataLayer, CodeStructure, TestingQA, Deployment}
}

// Parse maps a free-form delegate name onto the closed identity set.
func Parse(s string) Name {
	switch Name(s) {
	case DesignSystem, DataLayer, CodeStructure, TestingQA, Deployment:
		return Name(s)
	default:
		return Unknown
	}
}

// capabilities declares the named actions each delegate accepts.
// ExecuteTask is the generic orchestration entry point every delegate
// supports; the rest are delegate-specific.
const (
	ActionExecuteTask = "execute_task"
	ActionSyncState   = "sync_state"
)

var capabilities = map[Name][]string{
	DesignSystem:  {ActionExecuteTask, ActionSyncState, "create_component", "update_design_tokens", "review_ui", "generate_theme"},
	DataLayer:     {ActionExecuteTask, ActionSyncState, "create_table", "run_migration", "configure_auth", "query_data"},
	CodeStructure: {ActionExecuteTask, ActionSyncState, "analyze_structure", "refactor_module", "organize_imports", "scaffold_feature"},
	TestingQA:     {ActionExecuteTask, ActionSyncState, "run_tests", "create_test_suite", "coverage_report", "lint"},
	Deployment:    {ActionExecuteTask, ActionSyncState, "deploy_app", "configure_pipeline", "rollback_release", "check_environment"},
}

// Capabilities returns the declared action set for a delegate.
// Unknown delegates have no capabilities.
func (n Name) Capabilities() []string {
	return capabilities[n]
}

// Supports reports whether the delegate declares the given action.
func (n Name) Supports(action string) bool {
	for _, a := range capabilities[n] {
		if a == action {
			return true
		}
	}
	return false
}

// Status tracks a delegate's activation state. Every dispatch attempt
// mutates it: active on success, error on any failure.
type Status string

const (
	StatusInactive Status = "inactive"
	StatusActive   Status = "active"
	StatusError    Status = "error"
)

// Descriptor is the live registry entry for one delegate.
type Descriptor struct {
	Name         Name      `json:"name"`
	Status       Status    `json:"status"`
	LastActivity time.Time `json:"last_activity,omitzero"`
	LastSync     time.Time `json:"last_sync,omitzero"`
}

// Result is the structured outcome of one dispatch. Delegate-side failures
// are reported here, never as Go errors, so multi-step plans can keep going.
type Result struct {
	Delegate  string         `json:"delegate"`
	Action    string         `json:"action"`
	Success   bool           `json:"success"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Step is one entry of an execution plan: which delegate runs, its share of
// the estimated duration, and whether it may be issued without waiting for
// the previous step.
type Step struct {
	Delegate        Name `json:"delegate"`
	EstimateSeconds int  `json:"estimate_seconds"`
	Parallel        bool `json:"parallel"`
}

// Plan is the ordered, dependency-respecting sequence of steps for one task.
// Plans are transient: rebuilt per task and persisted only inside the
// context entry of a completed task.
type Plan struct {
	TotalSteps       int    `json:"total_steps"`
	EstimatedSeconds int    `json:"estimated_seconds"`
	Steps            []Step `json:"steps"`
}
