package delegate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/maestro-mcp/maestro/internal/store"
)

// Dispatch-time failures, surfaced inside Result.Error rather than as
// Go errors.
var (
	ErrUnknownDelegate   = errors.New("UnknownDelegate")
	ErrUnsupportedAction = errors.New("UnsupportedAction")
)

// syncDoc is the persisted sync snapshot: when each delegate last synced
// and the last project state pushed to them.
type syncDoc struct {
	LastUpdated  string               `json:"last_updated"`
	LastSyncs    map[string]time.Time `json:"last_syncs"`
	ProjectState map[string]any       `json:"project_state,omitempty"`
}

// Dispatcher owns the delegate registry: activation state, capability
// validation, and per-call error isolation. It is the only component that
// talks to delegate endpoints.
type Dispatcher struct {
	mu         sync.Mutex
	registry   map[Name]*Descriptor
	endpoints  map[Name]Endpoint
	store      store.Store
	syncWindow time.Duration
}

// NewDispatcher creates a Dispatcher over the given endpoints. Every known
// delegate gets a registry entry; delegates without an endpoint fail
// dispatch with an activation error. syncWindow is how recently a delegate
// must have synced for SyncAll to skip it.
func NewDispatcher(st store.Store, endpoints map[Name]Endpoint, syncWindow time.Duration) *Dispatcher {
	d := &Dispatcher{
		registry:   make(map[Name]*Descriptor),
		endpoints:  endpoints,
		store:      st,
		syncWindow: syncWindow,
	}
	for _, n := range All() {
		d.registry[n] = &Descriptor{Name: n, Status: StatusInactive}
	}

	var doc syncDoc
	if st != nil {
		_ = st.Read(store.SyncDoc, &doc)
		for name, ts := range doc.LastSyncs {
			if desc, ok := d.registry[Parse(name)]; ok {
				desc.LastSync = ts
			}
		}
	}
	return d
}

// Dispatch routes one capability call. Validation failures and endpoint
// errors all come back as a structured failed Result; the returned value is
// always usable and the orchestrator's per-step loop never has to stop.
func (d *Dispatcher) Dispatch(ctx context.Context, name, action string, payload, taskCtx map[string]any) Result {
	res := Result{Delegate: name, Action: action, Timestamp: time.Now()}

	id := Parse(name)
	if id == Unknown {
		res.Error = ErrUnknownDelegate.Error()
		return res
	}
	if !id.Supports(action) {
		d.setStatus(id, StatusError)
		res.Error = ErrUnsupportedAction.Error()
		return res
	}

	ep, ok := d.endpoints[id]
	if !ok {
		d.setStatus(id, StatusError)
		res.Error = fmt.Sprintf("no endpoint configured for %s", id)
		return res
	}

	if err := ep.Activate(ctx); err != nil {
		d.setStatus(id, StatusError)
		res.Error = fmt.Sprintf("activation failed: %v", err)
		return res
	}

	if taskCtx != nil {
		merged := make(map[string]any, len(payload)+1)
		for k, v := range payload {
			merged[k] = v
		}
		merged["task_context"] = taskCtx
		payload = merged
	}

	data, err := ep.Call(ctx, action, payload)
	if err != nil {
		d.setStatus(id, StatusError)
		res.Error = err.Error()
		return res
	}

	d.touch(id)
	res.Success = true
	res.Data = data
	return res
}

// SyncAll pushes the project state to every known delegate concurrently and
// collects a per-delegate outcome map. Delegates synced within the sync
// window are skipped unless force is set.
func (d *Dispatcher) SyncAll(ctx context.Context, projectState map[string]any, force bool) map[string]Result {
	now := time.Now()
	results := make(map[string]Result, len(All()))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, name := range All() {
		d.mu.Lock()
		last := d.registry[name].LastSync
		d.mu.Unlock()

		if !force && !last.IsZero() && now.Sub(last) < d.syncWindow {
			results[string(name)] = Result{
				Delegate:  string(name),
				Action:    ActionSyncState,
				Success:   true,
				Data:      map[string]any{"skipped": true, "last_sync": last},
				Timestamp: now,
			}
			continue
		}

		wg.Add(1)
		go func(name Name) {
			defer wg.Done()
			res := d.Dispatch(ctx, string(name), ActionSyncState, map[string]any{"project_state": projectState}, nil)
			if res.Success {
				d.markSynced(name, time.Now())
			}
			mu.Lock()
			results[string(name)] = res
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	d.persistSync(projectState)
	return results
}

// Statuses returns a snapshot of every registry entry in catalog order.
func (d *Dispatcher) Statuses() []Descriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Descriptor, 0, len(d.registry))
	for _, n := range All() {
		out = append(out, *d.registry[n])
	}
	return out
}

func (d *Dispatcher) setStatus(name Name, s Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registry[name].Status = s
}

func (d *Dispatcher) touch(name Name) {
	d.mu.Lock()
	defer d.mu.Unlock()
	desc := d.registry[name]
	desc.Status = StatusActive
	desc.LastActivity = time.Now()
}

func (d *Dispatcher) markSynced(name Name, ts time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registry[name].LastSync = ts
}

// persistSync writes the sync snapshot. Best effort: the snapshot only
// affects skip decisions, so a failed write is logged and not propagated.
func (d *Dispatcher) persistSync(projectState map[string]any) {
	if d.store == nil {
		return
	}
	d.mu.Lock()
	doc := syncDoc{
		LastUpdated:  time.Now().UTC().Format(time.RFC3339),
		LastSyncs:    make(map[string]time.Time, len(d.registry)),
		ProjectState: projectState,
	}
	for name, desc := range d.registry {
		if !desc.LastSync.IsZero() {
			doc.LastSyncs[string(name)] = desc.LastSync
		}
	}
	d.mu.Unlock()

	if err := d.store.Write(store.SyncDoc, doc); err != nil {
		log.Printf("WARNING: persisting sync snapshot: %v", err)
	}
}
