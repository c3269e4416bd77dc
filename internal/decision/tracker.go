package decision

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/maestro-mcp/maestro/internal/store"
)

// ErrNotFound is returned for operations against an unknown decision id.
var ErrNotFound = errors.New("decision not found")

// decisionsDoc is the persisted shape of the decision log.
type decisionsDoc struct {
	LastUpdated string      `json:"last_updated"`
	Count       int         `json:"count"`
	Decisions   []*Decision `json:"decisions"`
}

// impactsDoc stores impact analyses independently, keyed by decision id.
type impactsDoc struct {
	LastUpdated string                     `json:"last_updated"`
	Count       int                        `json:"count"`
	Analyses    map[string]*ImpactAnalysis `json:"analyses"`
}

// Tracker records decisions and their impact analyses. Decisions are
// append-only: outcomes accumulate post-hoc, nothing is ever deleted.
type Tracker struct {
	mu        sync.Mutex
	store     store.Store
	decisions []*Decision
	impacts   map[string]*ImpactAnalysis
}

// NewTracker creates a Tracker and restores prior state from the store.
func NewTracker(st store.Store) *Tracker {
	t := &Tracker{
		store:   st,
		impacts: make(map[string]*ImpactAnalysis),
	}

	var ddoc decisionsDoc
	_ = st.Read(store.DecisionsDoc, &ddoc)
	t.decisions = ddoc.Decisions

	var idoc impactsDoc
	_ = st.Read(store.ImpactsDoc, &idoc)
	if idoc.Analyses != nil {
		t.impacts = idoc.Analyses
	}
	return t
}

// Save records a decision: derives confidence, urgency, and reversibility,
// links similar prior decisions, and produces the 1:1 impact analysis.
// Both documents are persisted before returning.
func (t *Tracker) Save(typ Type, description, rationale string, impact int, tags []string, context map[string]any) (*Decision, *ImpactAnalysis, error) {
	if impact < 1 {
		impact = 1
	}
	if impact > 5 {
		impact = 5
	}

	d := &Decision{
		ID:          "decision_" + ulid.MustNew(ulid.Timestamp(time.Now()), ulid.DefaultEntropy()).String(),
		Type:        typ,
		Description: description,
		Rationale:   rationale,
		ImpactLevel: impact,
		Tags:        tags,
		Context:     context,
		Status:      StatusActive,
		CreatedAt:   time.Now(),
		Metadata: Metadata{
			Confidence:    deriveConfidence(rationale, impact),
			Urgency:       deriveUrgency(typ, impact),
			Reversibility: deriveReversibility(typ, impact),
		},
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Only decisions created strictly before this one can be related.
	d.Related = t.findRelatedLocked(d)

	analysis := analyzeImpact(d)

	t.decisions = append(t.decisions, d)
	t.impacts[d.ID] = analysis

	if err := t.persistLocked(); err != nil {
		return nil, nil, err
	}
	return d, analysis, nil
}

// findRelatedLocked scores every stored decision against d and keeps those
// above the similarity threshold, best first, capped.
func (t *Tracker) findRelatedLocked(d *Decision) []Related {
	var related []Related
	for _, prior := range t.decisions {
		score := similarity(d, prior)
		if score > relatedThreshold {
			related = append(related, Related{
				ID:         prior.ID,
				Similarity: score,
				Relation:   relationKind(score),
			})
		}
	}
	sort.SliceStable(related, func(i, j int) bool { return related[i].Similarity > related[j].Similarity })
	if len(related) > maxRelated {
		related = related[:maxRelated]
	}
	return related
}

// Search filters stored decisions, newest first.
func (t *Tracker) Search(c SearchCriteria) []*Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []*Decision
	for i := len(t.decisions) - 1; i >= 0; i-- {
		d := t.decisions[i]
		if c.Type != "" && d.Type != c.Type {
			continue
		}
		if c.Status != "" && d.Status != c.Status {
			continue
		}
		if c.MinImpact > 0 && d.ImpactLevel < c.MinImpact {
			continue
		}
		if c.Text != "" {
			haystack := strings.ToLower(d.Description + " " + d.Rationale)
			if !strings.Contains(haystack, strings.ToLower(c.Text)) {
				continue
			}
		}
		if len(c.Tags) > 0 && !hasAnyTag(d.Tags, c.Tags) {
			continue
		}
		dup := *d
		out = append(out, &dup)
	}
	return out
}

// UpdateOutcome appends a post-hoc outcome record to a decision.
func (t *Tracker) UpdateOutcome(id string, outcome Outcome) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, d := range t.decisions {
		if d.ID == id {
			if outcome.RecordedAt.IsZero() {
				outcome.RecordedAt = time.Now()
			}
			d.Outcomes = append(d.Outcomes, outcome)
			return t.persistLocked()
		}
	}
	return fmt.Errorf("updating outcome for %q: %w", id, ErrNotFound)
}

// Impact returns the analysis stored for a decision id.
func (t *Tracker) Impact(id string) (*ImpactAnalysis, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.impacts[id]
	if !ok {
		return nil, fmt.Errorf("impact analysis for %q: %w", id, ErrNotFound)
	}
	return a, nil
}

// Report aggregates the decisions matching the criteria.
func (t *Tracker) Report(c SearchCriteria) *Report {
	matched := t.Search(c)

	r := &Report{
		Total:       len(matched),
		ByType:      make(map[string]int),
		ByStatus:    make(map[string]int),
		GeneratedAt: time.Now(),
	}

	var confSum, impactSum float64
	for _, d := range matched {
		r.ByType[string(d.Type)]++
		r.ByStatus[string(d.Status)]++
		confSum += float64(d.Metadata.Confidence)
		impactSum += float64(d.ImpactLevel)
	}
	if len(matched) > 0 {
		r.AvgConfidence = confSum / float64(len(matched))
		r.AvgImpact = impactSum / float64(len(matched))
	}

	t.mu.Lock()
	for _, d := range matched {
		if a, ok := t.impacts[d.ID]; ok && a.Risk.Overall >= 4 {
			r.HighRisk = append(r.HighRisk, d.ID)
		}
	}
	t.mu.Unlock()

	// Search returns newest first, so the first five are the most recent.
	recent := matched
	if len(recent) > 5 {
		recent = recent[:5]
	}
	r.Recent = recent
	return r
}

// Count reports how many decisions are stored.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.decisions)
}

func (t *Tracker) persistLocked() error {
	now := time.Now().UTC().Format(time.RFC3339)
	if err := t.store.Write(store.DecisionsDoc, decisionsDoc{
		LastUpdated: now,
		Count:       len(t.decisions),
		Decisions:   t.decisions,
	}); err != nil {
		return err
	}
	return t.store.Write(store.ImpactsDoc, impactsDoc{
		LastUpdated: now,
		Count:       len(t.impacts),
		Analyses:    t.impacts,
	})
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
