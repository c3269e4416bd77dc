package memory

import (
	"fmt"
	"strings"

	"github.com/maestro-mcp/maestro/internal/delegate"
)

// architectureKeywords mark a task as structurally significant.
// Spanish and English forms are both recognized.
var architectureKeywords = []string{
	"arquitectura", "architecture",
	"estructura", "structure",
	"refactor",
	"migración", "migracion", "migration",
	"rediseño", "redesign",
}

// actionKeywords are detected in task text and become entry tags alongside
// the delegate names.
var actionKeywords = []string{
	"crear", "create",
	"actualizar", "update",
	"arreglar", "fix",
	"eliminar", "delete",
	"desplegar", "deploy",
	"probar", "test",
	"refactor",
	"diseño", "design",
	"migrar", "migrate",
}

// scoreImportance derives a 1..5 importance for a completed task:
// base 1, +2 if any result failed, +1 if the plan has more than 2 steps,
// +2 if the task mentions architecture or structure. Deterministic for a
// given input.
func scoreImportance(task string, plan *delegate.Plan, results []delegate.Result) int {
	score := 1

	for _, r := range results {
		if !r.Success {
			score += 2
			break
		}
	}

	if plan != nil && len(plan.Steps) > 2 {
		score++
	}

	lower := strings.ToLower(task)
	for _, kw := range architectureKeywords {
		if strings.Contains(lower, kw) {
			score += 2
			break
		}
	}

	if score < 1 {
		score = 1
	}
	if score > 5 {
		score = 5
	}
	return score
}

// deriveTags builds the entry tags: the plan's delegate names followed by
// any action keywords present in the task text.
func deriveTags(task string, plan *delegate.Plan) []string {
	var tags []string
	seen := make(map[string]bool)

	if plan != nil {
		for _, step := range plan.Steps {
			name := string(step.Delegate)
			if !seen[name] {
				seen[name] = true
				tags = append(tags, name)
			}
		}
	}

	lower := strings.ToLower(task)
	for _, kw := range actionKeywords {
		if strings.Contains(lower, kw) && !seen[kw] {
			seen[kw] = true
			tags = append(tags, kw)
		}
	}
	return tags
}

// summarize produces the human-readable one-liner stored with the entry.
func summarize(task string, plan *delegate.Plan, results []delegate.Result) string {
	steps := 0
	if plan != nil {
		steps = len(plan.Steps)
	}
	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}

	short := task
	if len(short) > 80 {
		short = short[:77] + "..."
	}
	return fmt.Sprintf("Task %q: %d/%d steps succeeded across %d planned steps",
		short, succeeded, len(results), steps)
}
