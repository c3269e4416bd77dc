// Package decision records significant decisions with rationale and derived
// risk metadata, links related prior decisions by similarity, and produces a
// multi-factor impact analysis for each one.
package decision

import "time"

// Type categorizes what kind of decision was made.
type Type string

const (
	TypeArchitectural Type = "architectural"
	TypeDesign        Type = "design"
	TypeDatabase      Type = "database"
	TypeDeployment    Type = "deployment"
	TypeBusiness      Type = "business"
	TypeSecurity      Type = "security"
	TypePerformance   Type = "performance"
	TypeOther         Type = "other"
)

// Status tracks a decision's lifecycle. Decisions are never deleted.
type Status string

const (
	StatusActive     Status = "active"
	StatusSuperseded Status = "superseded"
	StatusReverted   Status = "reverted"
)

// Related references a prior decision with its similarity score.
// The related list only ever contains decisions created strictly before
// this one.
type Related struct {
	ID         string  `json:"id"`
	Similarity float64 `json:"similarity"`
	Relation   string  `json:"relation"`
}

// Outcome is a post-hoc record of how a decision played out.
type Outcome struct {
	Description string    `json:"description"`
	Result      string    `json:"result"` // positive | negative | neutral
	RecordedAt  time.Time `json:"recorded_at"`
}

// Metadata holds the scores derived at save time.
type Metadata struct {
	Confidence    int     `json:"confidence"`    // 0..100
	Urgency       float64 `json:"urgency"`       // 0..5
	Reversibility int     `json:"reversibility"` // 1..5
}

// Decision is one recorded significant choice.
type Decision struct {
	ID          string         `json:"id"`
	Type        Type           `json:"type"`
	Description string         `json:"description"`
	Rationale   string         `json:"rationale"`
	ImpactLevel int            `json:"impact_level"` // 1..5
	Tags        []string       `json:"tags,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
	Status      Status         `json:"status"`
	Related     []Related      `json:"related,omitempty"`
	Outcomes    []Outcome      `json:"outcomes,omitempty"`
	Metadata    Metadata       `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}

// RiskAssessment scores one decision's risk on four axes plus their mean.
type RiskAssessment struct {
	Technical     float64 `json:"technical"`
	Business      float64 `json:"business"`
	Timeline      float64 `json:"timeline"`
	Reversibility float64 `json:"reversibility"`
	Overall       float64 `json:"overall"`
}

// ImpactAnalysis is the derived report attached to exactly one decision,
// created immediately after it and looked up by decision id.
type ImpactAnalysis struct {
	DecisionID      string         `json:"decision_id"`
	Immediate       []string       `json:"immediate"`
	LongTerm        []string       `json:"long_term"`
	AffectedAreas   []string       `json:"affected_areas"`
	Risk            RiskAssessment `json:"risk"`
	Recommendations []string       `json:"recommendations"`
	CreatedAt       time.Time      `json:"created_at"`
}

// SearchCriteria filters stored decisions. Zero fields match everything.
type SearchCriteria struct {
	Type      Type
	Status    Status
	MinImpact int
	Text      string
	Tags      []string
}

// Report aggregates the stored decisions for review.
type Report struct {
	Total         int              `json:"total"`
	ByType        map[string]int   `json:"by_type"`
	ByStatus      map[string]int   `json:"by_status"`
	AvgConfidence float64          `json:"avg_confidence"`
	AvgImpact     float64          `json:"avg_impact"`
	HighRisk      []string         `json:"high_risk,omitempty"` // decision ids with overall risk >= 4
	Recent        []*Decision      `json:"recent,omitempty"`
	GeneratedAt   time.Time        `json:"generated_at"`
}
