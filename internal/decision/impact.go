package decision

import "time"

// immediateImpacts are the canned per-type impact lists. The first
// impact_level entries apply, so each list is ordered from the mildest
// consequence to the most disruptive.
var immediateImpacts = map[Type][]string{
	TypeArchitectural: {
		"Module boundaries shift for the affected components",
		"Build and dependency graphs need to be revisited",
		"Existing integrations require adaptation",
		"Teams must re-align on the new structure",
		"Large parts of the codebase need coordinated migration",
	},
	TypeDesign: {
		"Visual components need restyling",
		"Design tokens and themes require updates",
		"Component APIs change for consumers",
		"Documentation and style guides go stale",
		"A full design-system release is required",
	},
	TypeDatabase: {
		"Queries touching the affected tables change",
		"A schema migration must be scheduled",
		"Data backfill or transformation is required",
		"Dependent services need coordinated deployment",
		"Downtime or a maintenance window becomes necessary",
	},
	TypeDeployment: {
		"Pipeline configuration changes",
		"Environment variables and secrets need review",
		"Rollout order across environments changes",
		"Monitoring and alerting must be readjusted",
		"A coordinated multi-service release is required",
	},
	TypeBusiness: {
		"Stakeholders need to be informed",
		"Roadmap priorities shift",
		"Budget allocation changes",
		"Contracts or commitments are affected",
		"Strategic direction is materially altered",
	},
	TypeSecurity: {
		"Access policies change for affected roles",
		"Credentials or keys must be rotated",
		"An audit trail review is required",
		"Dependent systems need security re-validation",
		"Incident-response procedures must be updated",
	},
}

// typeAreas maps each decision type to the areas it touches by default.
var typeAreas = map[Type][]string{
	TypeArchitectural: {"codebase", "build", "integration"},
	TypeDesign:        {"ui", "design-system", "documentation"},
	TypeDatabase:      {"data", "schema", "services"},
	TypeDeployment:    {"infrastructure", "pipeline", "operations"},
	TypeBusiness:      {"product", "stakeholders"},
	TypeSecurity:      {"security", "access-control", "compliance"},
}

// analyzeImpact builds the 1:1 impact analysis for a freshly saved decision.
// related is the already-linked prior-decision list, which feeds the
// timeline risk.
func analyzeImpact(d *Decision) *ImpactAnalysis {
	a := &ImpactAnalysis{
		DecisionID:    d.ID,
		Immediate:     immediateFor(d.Type, d.ImpactLevel),
		LongTerm:      longTermFor(d.ImpactLevel),
		AffectedAreas: affectedAreas(d.Type, d.Tags),
		CreatedAt:     time.Now(),
	}
	a.Risk = assessRisk(d)
	a.Recommendations = recommendations(d, a.Risk)
	return a
}

func immediateFor(typ Type, impact int) []string {
	list, ok := immediateImpacts[typ]
	if !ok {
		list = []string{
			"Affected components need review",
			"Dependent work may be blocked",
			"Team alignment is required",
			"Documentation must be updated",
			"A coordinated rollout is required",
		}
	}
	if impact < 1 {
		impact = 1
	}
	if impact > len(list) {
		impact = len(list)
	}
	return list[:impact]
}

// longTermFor escalates stepwise with impact level.
func longTermFor(impact int) []string {
	out := []string{"Decision becomes part of the system's baseline"}
	if impact >= 3 {
		out = append(out, "Future work must account for this constraint")
	}
	if impact >= 4 {
		out = append(out, "Reversing later carries significant rework cost")
	}
	if impact == 5 {
		out = append(out, "Shapes the system's direction for the foreseeable future")
	}
	return out
}

// affectedAreas unions the type-keyed area set with tag-derived areas.
func affectedAreas(typ Type, tags []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, area := range typeAreas[typ] {
		if !seen[area] {
			seen[area] = true
			out = append(out, area)
		}
	}
	for _, tag := range tags {
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

// assessRisk averages four axes: technical, business, timeline, and the
// inverse of reversibility.
func assessRisk(d *Decision) RiskAssessment {
	technical := float64(d.ImpactLevel)
	switch d.Type {
	case TypeArchitectural, TypeDatabase:
		technical++
	case TypeSecurity:
		technical += 0.5
	}
	if hasTag(d.Tags, "breaking-change") {
		technical++
	}
	technical = capAt(technical, 5)

	business := float64(d.ImpactLevel) / 2
	switch d.Type {
	case TypeBusiness:
		business += 2
	case TypeSecurity:
		business++
	}
	if hasTag(d.Tags, "customer-facing") {
		business++
	}
	business = capAt(business, 5)

	timeline := 1.0
	if d.ImpactLevel > 3 {
		timeline = 3
	}
	if d.Metadata.Urgency > 3 {
		timeline++
	}
	if len(d.Related) > 2 {
		timeline++
	}
	timeline = capAt(timeline, 5)

	reversibility := float64(5 - d.Metadata.Reversibility)

	return RiskAssessment{
		Technical:     technical,
		Business:      business,
		Timeline:      timeline,
		Reversibility: reversibility,
		Overall:       (technical + business + timeline + reversibility) / 4,
	}
}

// recommendations are rule-based follow-ups attached to the analysis.
func recommendations(d *Decision, risk RiskAssessment) []string {
	var out []string
	if d.ImpactLevel >= 4 {
		out = append(out, "Require review from multiple stakeholders before proceeding")
	}
	if d.Metadata.Reversibility <= 2 {
		out = append(out, "Create a rollback plan before implementation")
	}
	if d.Metadata.Urgency > 4 {
		out = append(out, "Expedite: schedule implementation ahead of lower-urgency work")
	}
	if len(d.Related) > 3 {
		out = append(out, "Review related decisions for consistency before committing")
	}
	if risk.Overall >= 4 {
		out = append(out, "Track this decision's outcomes explicitly in follow-up sessions")
	}
	if len(out) == 0 {
		out = append(out, "Proceed with standard review")
	}
	return out
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func capAt(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
