package dial

import (
	"context"
	"errors"
	"sync"

	"github.com/gavet/crmdialer/internal/model"
)

// ErrNoPendingCall is returned when an outcome is given but no call is waiting for one.
var ErrNoPendingCall = errors.New("no call is waiting for an outcome")

// Outcome is what the operator decided for the current call. A nil Schedule means a plain
// observation.
type Outcome struct {
	Observation string
	Schedule    *model.Schedule
}

// Gate is the handoff between the dial loop and the operator. Every call arms a fresh one shot
// channel, the operator fires it once and the loop waits on it.
type Gate struct {
	mu      sync.Mutex
	pending chan Outcome
}

// NewGate returns a disarmed gate.
func NewGate() *Gate { return &Gate{} }

// Arm prepares the wait for a new call. Any previous wait is replaced.
func (g *Gate) Arm() <-chan Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch := make(chan Outcome, 1)
	g.pending = ch
	return ch
}

// Fire delivers the outcome to the armed call and disarms the gate.
func (g *Gate) Fire(o Outcome) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == nil {
		return ErrNoPendingCall
	}
	g.pending <- o
	g.pending = nil
	return nil
}

// Pending returns true when a call is waiting for an outcome.
func (g *Gate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending != nil
}

// Wait blocks until the outcome of ch is fired or ctx is done. On cancellation the gate is
// disarmed so late outcomes are rejected.
func (g *Gate) Wait(ctx context.Context, ch <-chan Outcome) (Outcome, error) {
	select {
	case o := <-ch:
		return o, nil
	case <-ctx.Done():
		g.mu.Lock()
		if g.pending != nil && (<-chan Outcome)(g.pending) == ch {
			g.pending = nil
		}
		g.mu.Unlock()
		return Outcome{}, ctx.Err()
	}
}
