package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maestro-mcp/maestro/internal/delegate"
	"github.com/oklog/ulid/v2"

	"github.com/maestro-mcp/maestro/internal/store"
)

// contextsDoc is the persisted shape of the context log.
type contextsDoc struct {
	LastUpdated string          `json:"last_updated"`
	Count       int             `json:"count"`
	Contexts    []*ContextEntry `json:"contexts"`
}

// knowledgeDoc is the persisted shape of the knowledge base.
type knowledgeDoc struct {
	LastUpdated string                      `json:"last_updated"`
	Counts      map[string]int              `json:"counts"`
	Categories  map[string][]*KnowledgeItem `json:"categories"`
}

// Manager owns the context log and the knowledge base.
type Manager struct {
	mu        sync.Mutex
	store     store.Store
	entries   []*ContextEntry
	knowledge map[string][]*KnowledgeItem
	cap       int
}

// NewManager creates a Manager and restores prior state from the store.
// cap bounds the context log; <=0 means the default of 1000.
func NewManager(st store.Store, cap int) *Manager {
	if cap <= 0 {
		cap = 1000
	}
	m := &Manager{
		store:     st,
		knowledge: make(map[string][]*KnowledgeItem),
		cap:       cap,
	}

	var cdoc contextsDoc
	_ = st.Read(store.ContextsDoc, &cdoc)
	m.entries = cdoc.Contexts

	var kdoc knowledgeDoc
	_ = st.Read(store.KnowledgeDoc, &kdoc)
	for cat, items := range kdoc.Categories {
		m.knowledge[cat] = items
	}
	return m
}

// SaveTaskContext records the outcome of one completed task as a context
// entry with derived importance, tags, and summary. The entry id is a
// content hash of task + session id, so the same task in the same session
// maps to the same entry id.
func (m *Manager) SaveTaskContext(sessionID, task string, plan *delegate.Plan, results []delegate.Result, ts time.Time) (*ContextEntry, error) {
	entry := &ContextEntry{
		ID:         contentID(task, sessionID),
		SessionID:  sessionID,
		Task:       task,
		Plan:       plan,
		Results:    results,
		Timestamp:  ts,
		Importance: scoreImportance(task, plan, results),
		Tags:       deriveTags(task, plan),
		Summary:    summarize(task, plan, results),
	}

	m.mu.Lock()
	m.entries = append(m.entries, entry)
	if len(m.entries) > m.cap {
		m.entries = m.entries[len(m.entries)-m.cap:]
	}
	err := m.persistContextsLocked()
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Search returns context entries matching the criteria, ordered by
// importance descending and timestamp descending. Filters apply in order:
// session id, time window, then case-insensitive substring match of any term
// against task + summary + tags.
func (m *Manager) Search(terms []string, timeRange, sessionID string) []*ContextEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := cutoffFor(timeRange, time.Now())
	var out []*ContextEntry
	for _, e := range m.entries {
		if sessionID != "" && e.SessionID != sessionID {
			continue
		}
		if !cutoff.IsZero() && e.Timestamp.Before(cutoff) {
			continue
		}
		if len(terms) > 0 && !matchesAny(e, terms) {
			continue
		}
		out = append(out, e)
	}
	sortEntries(out)
	return out
}

// Recent is the automatic context-recovery path used at session start: the
// highest-importance, most recent entry from the last 24 hours, or nil when
// nothing qualifies.
func (m *Manager) Recent() *ContextEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-24 * time.Hour)
	var fresh []*ContextEntry
	for _, e := range m.entries {
		if !e.Timestamp.Before(cutoff) {
			fresh = append(fresh, e)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	sortEntries(fresh)
	return fresh[0]
}

// SaveKnowledge stores one item in the given category, assigning id and
// creation timestamp.
func (m *Manager) SaveKnowledge(category string, item KnowledgeItem) (*KnowledgeItem, error) {
	if !ValidCategory(category) {
		return nil, fmt.Errorf("invalid knowledge category %q: must be one of: %s",
			category, strings.Join(Categories(), ", "))
	}

	item.ID = ulid.MustNew(ulid.Timestamp(time.Now()), ulid.DefaultEntropy()).String()
	item.Category = category
	item.CreatedAt = time.Now()

	m.mu.Lock()
	m.knowledge[category] = append(m.knowledge[category], &item)
	err := m.persistKnowledgeLocked()
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &item, nil
}

// QueryKnowledge scans the requested category (or all of them) for items
// matching the query and returns the top limit by relevance. Scoring: +5 for
// an exact substring hit, +1 per query word present, plus the item's stored
// impact level when one is set.
func (m *Manager) QueryKnowledge(query, category string, limit int) []*KnowledgeItem {
	if limit <= 0 {
		limit = 10
	}

	cats := Categories()
	if category != "" && ValidCategory(category) {
		cats = []string{category}
	}

	q := strings.ToLower(query)
	words := queryWords(q)

	m.mu.Lock()
	defer m.mu.Unlock()

	var hits []*KnowledgeItem
	for _, cat := range cats {
		for _, item := range m.knowledge[cat] {
			haystack := strings.ToLower(item.Description + " " + strings.Join(item.Tags, " "))
			score := 0.0
			if q != "" && strings.Contains(haystack, q) {
				score += 5
			}
			for _, w := range words {
				if strings.Contains(haystack, w) {
					score++
				}
			}
			if score == 0 {
				continue
			}
			if lvl, ok := impactLevel(item.Metadata); ok {
				score += lvl
			}
			dup := *item
			dup.Relevance = score
			hits = append(hits, &dup)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Relevance > hits[j].Relevance })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// EntryCount reports how many context entries are retained.
func (m *Manager) EntryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Manager) persistContextsLocked() error {
	doc := contextsDoc{
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Count:       len(m.entries),
		Contexts:    m.entries,
	}
	return m.store.Write(store.ContextsDoc, doc)
}

func (m *Manager) persistKnowledgeLocked() error {
	doc := knowledgeDoc{
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Counts:      make(map[string]int, len(m.knowledge)),
		Categories:  m.knowledge,
	}
	for cat, items := range m.knowledge {
		doc.Counts[cat] = len(items)
	}
	return m.store.Write(store.KnowledgeDoc, doc)
}

// contentID hashes task + session id into a stable 16-hex-char entry id.
func contentID(task, sessionID string) string {
	sum := sha256.Sum256([]byte(task + sessionID))
	return hex.EncodeToString(sum[:])[:16]
}

func matchesAny(e *ContextEntry, terms []string) bool {
	haystack := strings.ToLower(e.Task + " " + e.Summary + " " + strings.Join(e.Tags, " "))
	for _, t := range terms {
		if t == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func sortEntries(entries []*ContextEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Importance != entries[j].Importance {
			return entries[i].Importance > entries[j].Importance
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}

func cutoffFor(rang string, now time.Time) time.Time {
	switch rang {
	case "last_hour":
		return now.Add(-time.Hour)
	case "last_day":
		return now.Add(-24 * time.Hour)
	case "last_week":
		return now.Add(-7 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}

func queryWords(q string) []string {
	var out []string
	for _, w := range strings.Fields(q) {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func impactLevel(meta map[string]any) (float64, bool) {
	v, ok := meta["impact_level"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
