// Package orchestrator is the control-flow core: it analyzes a task request,
// builds a dependency-ordered execution plan, runs it step by step through
// the Dispatcher with fan-out for independent steps, and aggregates a
// result summary. Decisions and context persistence hang off the run but
// are owned by their own packages.
package orchestrator

import (
	"strings"

	"github.com/maestro-mcp/maestro/internal/delegate"
)

// analysisRule maps a keyword set onto the delegate that handles the topic.
// Rules are data so they stay unit-testable independently of the
// orchestration loop; order matters — it fixes the first-match order of the
// needed-set.
type analysisRule struct {
	Delegate delegate.Name
	Keywords []string
}

// analysisRules covers the five delegate topics in Spanish and English.
var analysisRules = []analysisRule{
	{delegate.DesignSystem, []string{
		"diseño", "diseno", "design", "componente", "component", "ui",
		"estilo", "style", "tema", "theme", "interfaz", "interface",
	}},
	{delegate.DataLayer, []string{
		"datos", "data", "database", "base de datos", "tabla", "table",
		"storage", "almacenamiento", "supabase", "auth", "consulta", "query",
	}},
	{delegate.CodeStructure, []string{
		"estructura", "structure", "refactor", "código", "codigo", "code",
		"módulo", "modulo", "module", "arquitectura", "architecture", "organizar",
	}},
	{delegate.TestingQA, []string{
		"test", "prueba", "pruebas", "testing", "qa", "coverage", "lint", "calidad",
	}},
	{delegate.Deployment, []string{
		"deploy", "despliegue", "desplegar", "release", "production",
		"producción", "produccion", "pipeline", "publicar",
	}},
}

// creationKeywords and restructureKeywords feed the complexity score.
var (
	creationKeywords    = []string{"crear", "create", "nuevo", "nueva", "new", "añadir", "add"}
	restructureKeywords = []string{"refactor", "migrar", "migrate", "rediseñ", "redesign", "reescribir", "rewrite"}
)

// Analysis is what the orchestrator learned from the task text before
// planning.
type Analysis struct {
	Delegates        []delegate.Name `json:"delegates"`
	Complexity       int             `json:"complexity"` // 1..5
	EstimatedSeconds int             `json:"estimated_seconds"`
}

// Analyze scans the task text plus explicit hints (case-insensitive) for
// topic keywords and accumulates the matching delegates in first-match
// order. Complexity starts at 1, +1 for creation keywords, +1 for
// restructuring keywords, +1 when more than two delegates are involved,
// clamped to [1,5]. The time estimate is 15s base + 10s per delegate + 5s
// per complexity point.
func Analyze(task string, hints []string) Analysis {
	text := strings.ToLower(task + " " + strings.Join(hints, " "))

	var needed []delegate.Name
	seen := make(map[delegate.Name]bool)
	for _, rule := range analysisRules {
		if seen[rule.Delegate] {
			continue
		}
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				seen[rule.Delegate] = true
				needed = append(needed, rule.Delegate)
				break
			}
		}
	}

	complexity := 1
	if containsAny(text, creationKeywords) {
		complexity++
	}
	if containsAny(text, restructureKeywords) {
		complexity++
	}
	if len(needed) > 2 {
		complexity++
	}
	if complexity > 5 {
		complexity = 5
	}

	return Analysis{
		Delegates:        needed,
		Complexity:       complexity,
		EstimatedSeconds: 15 + 10*len(needed) + 5*complexity,
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
