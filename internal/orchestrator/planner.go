package orchestrator

import "github.com/maestro-mcp/maestro/internal/delegate"

// dependencyRules declares pairwise ordering constraints between delegates.
// A delegate only waits for prerequisites that are actually present in the
// needed-set.
var dependencyRules = map[delegate.Name][]delegate.Name{
	delegate.CodeStructure: {delegate.DesignSystem},
	delegate.TestingQA:     {delegate.DataLayer},
}

// parallelizable is the fixed set of delegates whose steps may be issued
// without waiting for the previous step.
var parallelizable = map[delegate.Name]bool{
	delegate.DesignSystem: true,
	delegate.DataLayer:    true,
}

// BuildPlan orders the needed delegates by declared dependencies and splits
// the estimated duration evenly across steps.
//
// Ordering is repeated selection, not a true topological sort: each pass
// places any delegate whose present prerequisites are already placed, and
// when no delegate qualifies the first remaining one is taken
// unconditionally. That fallback silently breaks cycles by input order — a
// deliberate simplification kept for behavioral compatibility rather than
// correctness.
func BuildPlan(a Analysis) *delegate.Plan {
	remaining := append([]delegate.Name(nil), a.Delegates...)
	present := make(map[delegate.Name]bool, len(remaining))
	for _, d := range remaining {
		present[d] = true
	}

	var ordered []delegate.Name
	placed := make(map[delegate.Name]bool)
	for len(remaining) > 0 {
		pick := -1
		for i, d := range remaining {
			if prereqsPlaced(d, present, placed) {
				pick = i
				break
			}
		}
		if pick < 0 {
			pick = 0 // cycle fallback: take input order
		}
		d := remaining[pick]
		ordered = append(ordered, d)
		placed[d] = true
		remaining = append(remaining[:pick], remaining[pick+1:]...)
	}

	plan := &delegate.Plan{
		TotalSteps:       len(ordered),
		EstimatedSeconds: a.EstimatedSeconds,
	}
	share := 0
	if len(ordered) > 0 {
		share = a.EstimatedSeconds / len(ordered)
	}
	for i, d := range ordered {
		plan.Steps = append(plan.Steps, delegate.Step{
			Delegate:        d,
			EstimateSeconds: share,
			Parallel:        parallelizable[d] && i < len(ordered)-1,
		})
	}
	return plan
}

// prereqsPlaced reports whether every prerequisite of d that is present in
// the needed-set has already been ordered. Deployment implicitly depends on
// every other present delegate.
func prereqsPlaced(d delegate.Name, present, placed map[delegate.Name]bool) bool {
	if d == delegate.Deployment {
		for other := range present {
			if other != delegate.Deployment && !placed[other] {
				return false
			}
		}
		return true
	}
	for _, pre := range dependencyRules[d] {
		if present[pre] && !placed[pre] {
			return false
		}
	}
	return true
}
