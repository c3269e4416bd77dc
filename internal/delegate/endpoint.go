package delegate

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Endpoint is the call interface behind the Dispatcher's capability-validated
// contract. Production wiring may put an RPC client here; the default is an
// in-process simulated endpoint, and tests supply their own doubles.
type Endpoint interface {
	// Activate brings the delegate up. It must be idempotent.
	Activate(ctx context.Context) error
	// Call performs one named action and returns its payload.
	Call(ctx context.Context, action string, payload map[string]any) (map[string]any, error)
}

// SimulatedEndpoint is the default Endpoint: it models a delegate with
// variable startup and call latency and always succeeds.
type SimulatedEndpoint struct {
	name      Name
	activated bool
	// MaxLatency bounds the simulated per-call delay. Zero disables the delay
	// entirely, which tests rely on.
	MaxLatency time.Duration
}

// NewSimulatedEndpoint creates a simulated endpoint for the named delegate.
func NewSimulatedEndpoint(name Name, maxLatency time.Duration) *SimulatedEndpoint {
	return &SimulatedEndpoint{name: name, MaxLatency: maxLatency}
}

// Activate simulates delegate startup. Subsequent calls are no-ops.
func (e *SimulatedEndpoint) Activate(ctx context.Context) error {
	if e.activated {
		return nil
	}
	if err := e.sleep(ctx); err != nil {
		return err
	}
	e.activated = true
	return nil
}

// Call simulates performing an action and echoes a structured payload.
func (e *SimulatedEndpoint) Call(ctx context.Context, action string, payload map[string]any) (map[string]any, error) {
	if err := e.sleep(ctx); err != nil {
		return nil, err
	}
	return map[string]any{
		"delegate": string(e.name),
		"action":   action,
		"status":   "ok",
		"message":  fmt.Sprintf("%s handled %s", e.name, action),
	}, nil
}

func (e *SimulatedEndpoint) sleep(ctx context.Context) error {
	if e.MaxLatency <= 0 {
		return nil
	}
	d := time.Duration(rand.Int63n(int64(e.MaxLatency)))
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
