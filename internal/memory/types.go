// Package memory is Maestro's context-persistence engine: it turns completed
// tasks into durable context entries with derived importance, supports
// relevance-ranked recall over the rolling log, and keeps a separate
// free-text knowledge base of decisions, patterns, solutions, and
// configurations.
package memory

import (
	"time"

	"github.com/maestro-mcp/maestro/internal/delegate"
)

// ContextEntry is the durable summary of one completed task. Entries are
// immutable after creation and evicted oldest-first past the rolling cap.
type ContextEntry struct {
	ID         string            `json:"id"` // content hash of task + session id
	SessionID  string            `json:"session_id"`
	Task       string            `json:"task"`
	Plan       *delegate.Plan    `json:"plan,omitempty"`
	Results    []delegate.Result `json:"results,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Importance int               `json:"importance"` // 1..5, derived
	Tags       []string          `json:"tags,omitempty"`
	Summary    string            `json:"summary"`
}

// Knowledge categories. Callers pick one per item; queries may scan all four.
const (
	CategoryDecisions      = "decisions"
	CategoryPatterns       = "patterns"
	CategorySolutions      = "solutions"
	CategoryConfigurations = "configurations"
)

// Categories lists the valid knowledge categories.
func Categories() []string {
	return []string{CategoryDecisions, CategoryPatterns, CategorySolutions, CategoryConfigurations}
}

// ValidCategory reports whether cat names a knowledge category.
func ValidCategory(cat string) bool {
	for _, c := range Categories() {
		if c == cat {
			return true
		}
	}
	return false
}

// KnowledgeItem is a freestanding fact stored for retrieval, independent of
// any session. Items are never auto-expired.
type KnowledgeItem struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Category    string         `json:"category"`
	CreatedAt   time.Time      `json:"created_at"`
	Relevance   float64        `json:"relevance"`
}
