// Package session owns the lifecycle of a unit of work: creation, progress,
// result accumulation, completion, and abandonment cleanup. Sessions are
// never deleted — closed sessions stay in a bounded rolling log so work can
// be inspected and resumed across process restarts.
package session

import (
	"time"

	"github.com/maestro-mcp/maestro/internal/delegate"
)

// Status is a session's lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimeout   Status = "timeout"
)

// Progress tracks how far through its plan a session is.
// Percentage is always kept in [0,100].
type Progress struct {
	CurrentStep int     `json:"current_step"`
	TotalSteps  int     `json:"total_steps"`
	Percentage  float64 `json:"percentage"`
}

// ProgressUpdate is a partial progress mutation. A nil Percentage means
// "recompute from current/total".
type ProgressUpdate struct {
	CurrentStep int
	TotalSteps  int
	Percentage  *float64
}

// Metrics are computed once when a session ends.
type Metrics struct {
	SuccessRate     float64 `json:"success_rate"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Session is the record of one orchestrated task from start to
// completion or timeout.
type Session struct {
	ID           string            `json:"id"`
	Task         string            `json:"task"`
	Priority     string            `json:"priority"`
	ContextHints []string          `json:"context_hints,omitempty"`
	Status       Status            `json:"status"`
	StartedAt    time.Time         `json:"started_at"`
	EndedAt      time.Time         `json:"ended_at,omitzero"`
	LastActivity time.Time         `json:"last_activity"`
	Progress     Progress          `json:"progress"`
	Delegates    []string          `json:"delegates,omitempty"`
	Results      []delegate.Result `json:"results,omitempty"`
	Metrics      Metrics           `json:"metrics"`
}

// touchDelegate records a delegate name in first-touch order.
func (s *Session) touchDelegate(name string) {
	for _, d := range s.Delegates {
		if d == name {
			return
		}
	}
	s.Delegates = append(s.Delegates, name)
}

// SearchCriteria filters the rolling session log. Zero fields match
// everything.
type SearchCriteria struct {
	Status    Status
	TimeRange string // last_hour | last_day | last_week | all
	Delegate  string
	Text      string
}
