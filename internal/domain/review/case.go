package review

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/telcobench/transit/internal/domain/model"
	"github.com/telcobench/transit/pkg/metrics"
)

// Transition is one recorded state change on a case.
type Transition struct {
	From    State     `json:"from"`
	To      State     `json:"to"`
	Actor   Actor     `json:"actor"`
	At      time.Time `json:"at"`
	Reasons []string  `json:"reasons,omitempty"`
}

// Case is one submission's journey through review. It exclusively owns its
// bundle and latest verdict for the duration of review. All mutation goes
// through Registry.Transition so state checks and writes stay atomic.
type Case struct {
	mu sync.Mutex

	id         string
	state      State
	history    []Transition
	bundle     model.Bundle
	verdict    model.Verdict
	hasVerdict bool
}

// Snapshot is an immutable copy of a case's observable fields.
type Snapshot struct {
	ID         string
	State      State
	History    []Transition
	Verdict    model.Verdict
	HasVerdict bool
}

// Registry holds the in-flight review cases. Cases are independent: the
// registry lock only guards the map, each case serializes its own mutations.
type Registry struct {
	mu    sync.RWMutex
	cases map[string]*Case
}

// NewRegistry creates an empty case registry.
func NewRegistry() *Registry {
	return &Registry{cases: make(map[string]*Case)}
}

// Create opens a new case for an ingested bundle and returns its id.
func (r *Registry) Create(ctx context.Context, b model.Bundle) string {
	c := &Case{
		id:     uuid.NewString(),
		state:  StateCreated,
		bundle: b,
	}

	r.mu.Lock()
	r.cases[c.id] = c
	r.mu.Unlock()

	metrics.UpdateOpenCases(r.Count(ctx))
	return c.id
}

// get resolves a case by id.
func (r *Registry) get(id string) (*Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", id, ErrCaseNotFound)
	}
	return c, nil
}

// Transition applies from-current-state -> to under the case lock, so the
// read-check-then-write is atomic per case. The current state is never
// mutated on failure.
func (r *Registry) Transition(ctx context.Context, id string, to State, actor Actor, reasons []string) error {
	c, err := r.get(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	required, ok := actorFor(c.state, to)
	if !ok {
		return fmt.Errorf("%s -> %s: %w", c.state, to, ErrInvalidTransition)
	}
	if actor != required {
		return fmt.Errorf("%s -> %s by %s: %w", c.state, to, actor, ErrWrongActor)
	}

	t := Transition{
		From:    c.state,
		To:      to,
		Actor:   actor,
		At:      time.Now().UTC(),
		Reasons: reasons,
	}
	c.history = append(c.history, t)
	c.state = to

	metrics.RecordStateTransition(string(t.From), string(t.To))
	return nil
}

// SetVerdict attaches the latest validation verdict to a case.
func (r *Registry) SetVerdict(ctx context.Context, id string, v model.Verdict) error {
	c, err := r.get(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.verdict = v
	c.hasVerdict = true
	c.mu.Unlock()
	return nil
}

// SetBundle replaces the case bundle with a revised submission.
func (r *Registry) SetBundle(ctx context.Context, id string, b model.Bundle) error {
	c, err := r.get(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.bundle = b
	c.mu.Unlock()
	return nil
}

// Bundle returns the case's current submission bundle.
func (r *Registry) Bundle(ctx context.Context, id string) (model.Bundle, error) {
	c, err := r.get(id)
	if err != nil {
		return model.Bundle{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bundle, nil
}

// Snapshot returns a copy of the case's observable state.
func (r *Registry) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	c, err := r.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ID:         c.id,
		State:      c.state,
		History:    append([]Transition(nil), c.history...),
		Verdict:    c.verdict,
		HasVerdict: c.hasVerdict,
	}, nil
}

// List returns snapshots of every in-flight case.
func (r *Registry) List(ctx context.Context) []Snapshot {
	r.mu.RLock()
	ids := make([]string, 0, len(r.cases))
	for id := range r.cases {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		if snap, err := r.Snapshot(ctx, id); err == nil {
			out = append(out, snap)
		}
	}
	return out
}

// Remove destroys a case once it has reached a terminal state. The transit
// store is not a system of record, so nothing is archived.
func (r *Registry) Remove(ctx context.Context, id string) error {
	c, err := r.get(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	terminal := c.state.Terminal()
	c.mu.Unlock()
	if !terminal {
		return fmt.Errorf("case %s in state %s: %w", id, c.state, ErrInvalidTransition)
	}

	r.mu.Lock()
	delete(r.cases, id)
	r.mu.Unlock()

	metrics.UpdateOpenCases(r.Count(ctx))
	return nil
}

// Count returns the number of in-flight cases.
func (r *Registry) Count(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cases)
}
