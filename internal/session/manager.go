package session

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maestro-mcp/maestro/internal/delegate"
	"github.com/maestro-mcp/maestro/internal/store"
)

// ErrNotFound is returned when a session id is not in the active set.
// Ended sessions are immutable, so it also covers mutations after End.
var ErrNotFound = errors.New("session not found")

// sessionsDoc is the persisted shape of the rolling session log.
type sessionsDoc struct {
	LastUpdated string     `json:"last_updated"`
	Count       int        `json:"count"`
	Sessions    []*Session `json:"sessions"`
}

// Manager owns the active session set, the rolling log, and the timeout
// sweeper. All state is guarded by one mutex; persistence rewrites the full
// sessions document on every mutation.
type Manager struct {
	mu     sync.Mutex
	store  store.Store
	active map[string]*Session
	logged []*Session

	cap        int
	timeout    time.Duration
	sweepEvery time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Options tunes the Manager. Zero values fall back to the defaults used in
// production wiring.
type Options struct {
	Cap        int           // rolling log size, default 500
	Timeout    time.Duration // idle threshold for the sweep, default 24h
	SweepEvery time.Duration // sweep interval, default 30m
}

// NewManager creates a Manager and restores prior state from the store.
// Sessions persisted as active resume into the active set.
func NewManager(st store.Store, opts Options) *Manager {
	if opts.Cap <= 0 {
		opts.Cap = 500
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 24 * time.Hour
	}
	if opts.SweepEvery <= 0 {
		opts.SweepEvery = 30 * time.Minute
	}

	m := &Manager{
		store:      st,
		active:     make(map[string]*Session),
		cap:        opts.Cap,
		timeout:    opts.Timeout,
		sweepEvery: opts.SweepEvery,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	var doc sessionsDoc
	_ = st.Read(store.SessionsDoc, &doc)
	m.logged = doc.Sessions
	for _, s := range m.logged {
		if s.Status == StatusActive {
			m.active[s.ID] = s
		}
	}
	return m
}

// Start opens a new session and returns its id. It always succeeds (apart
// from persistence failures) and ids are collision-free under concurrent
// calls: a unix-milli clock component plus a random uuid suffix.
func (m *Manager) Start(task, priority string, hints []string) (string, error) {
	now := time.Now()
	id := fmt.Sprintf("session_%d_%s", now.UnixMilli(), uuid.NewString()[:8])

	s := &Session{
		ID:           id,
		Task:         task,
		Priority:     priority,
		ContextHints: hints,
		Status:       StatusActive,
		StartedAt:    now,
		LastActivity: now,
	}

	m.mu.Lock()
	m.active[id] = s
	m.logged = append(m.logged, s)
	// Rolling log: evict exactly the oldest entries beyond the cap.
	if len(m.logged) > m.cap {
		m.logged = m.logged[len(m.logged)-m.cap:]
	}
	err := m.persistLocked()
	m.mu.Unlock()

	return id, err
}

// UpdateProgress applies a partial progress update. The percentage is
// recomputed from current/total when not explicitly supplied, and always
// clamped to [0,100].
func (m *Manager) UpdateProgress(id string, upd ProgressUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.active[id]
	if !ok {
		return fmt.Errorf("updating progress for %q: %w", id, ErrNotFound)
	}

	if upd.CurrentStep > 0 {
		s.Progress.CurrentStep = upd.CurrentStep
	}
	if upd.TotalSteps > 0 {
		s.Progress.TotalSteps = upd.TotalSteps
	}
	if upd.Percentage != nil {
		s.Progress.Percentage = *upd.Percentage
	} else if s.Progress.TotalSteps > 0 {
		s.Progress.Percentage = float64(s.Progress.CurrentStep) / float64(s.Progress.TotalSteps) * 100
	}
	if s.Progress.Percentage < 0 {
		s.Progress.Percentage = 0
	}
	if s.Progress.Percentage > 100 {
		s.Progress.Percentage = 100
	}

	s.LastActivity = time.Now()
	return m.persistLocked()
}

// AddResult appends a step result and records the delegate in first-touch
// order.
func (m *Manager) AddResult(id string, res delegate.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.active[id]
	if !ok {
		return fmt.Errorf("adding result for %q: %w", id, ErrNotFound)
	}

	s.Results = append(s.Results, res)
	s.touchDelegate(res.Delegate)
	s.LastActivity = time.Now()
	return m.persistLocked()
}

// End closes a session: computes duration and success-rate metrics, sets the
// final status, and removes it from the active set. The logged copy remains.
func (m *Manager) End(id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endLocked(id, status, time.Now())
}

func (m *Manager) endLocked(id string, status Status, now time.Time) error {
	s, ok := m.active[id]
	if !ok {
		return fmt.Errorf("ending %q: %w", id, ErrNotFound)
	}

	s.Status = status
	s.EndedAt = now
	s.Metrics.DurationSeconds = now.Sub(s.StartedAt).Seconds()
	if len(s.Results) > 0 {
		succeeded := 0
		for _, r := range s.Results {
			if r.Success {
				succeeded++
			}
		}
		s.Metrics.SuccessRate = float64(succeeded) / float64(len(s.Results))
	}

	delete(m.active, id)
	return m.persistLocked()
}

// Get returns a copy of a session from the rolling log, active or not.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.logged {
		if s.ID == id {
			dup := *s
			return &dup, nil
		}
	}
	return nil, fmt.Errorf("session %q: %w", id, ErrNotFound)
}

// ActiveCount reports how many sessions are currently open.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Search filters the rolling log, newest first.
func (m *Manager) Search(c SearchCriteria) []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := cutoffFor(c.TimeRange, time.Now())
	var out []*Session
	for i := len(m.logged) - 1; i >= 0; i-- {
		s := m.logged[i]
		if c.Status != "" && s.Status != c.Status {
			continue
		}
		if !cutoff.IsZero() && s.StartedAt.Before(cutoff) {
			continue
		}
		if c.Delegate != "" && !contains(s.Delegates, c.Delegate) {
			continue
		}
		if c.Text != "" && !strings.Contains(strings.ToLower(s.Task), strings.ToLower(c.Text)) {
			continue
		}
		dup := *s
		out = append(out, &dup)
	}
	return out
}

// StartSweeper launches the background cleanup: every sweep interval it
// force-ends active sessions idle past the timeout threshold with status
// timeout. This is the only path that mutates a session its caller did not
// touch. Stop shuts it down.
func (m *Manager) StartSweeper() {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep(time.Now())
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweeper. Safe to call more than once, and safe even
// if StartSweeper never ran after the first Stop.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// sweep force-ends stale sessions. Exposed to tests via the clock argument.
func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stale []string
	for id, s := range m.active {
		if now.Sub(s.LastActivity) > m.timeout {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		if err := m.endLocked(id, StatusTimeout, now); err != nil {
			log.Printf("WARNING: sweeping session %s: %v", id, err)
		}
	}
}

func (m *Manager) persistLocked() error {
	doc := sessionsDoc{
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Count:       len(m.logged),
		Sessions:    m.logged,
	}
	return m.store.Write(store.SessionsDoc, doc)
}

// cutoffFor converts a named time range into a wall-clock cutoff.
// Unknown ranges and "all" mean no cutoff.
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

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
