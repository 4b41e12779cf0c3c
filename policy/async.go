package policy

import (
	"context"
	"log/slog"
	"time"

	"github.com/pthm-cable/penguin/agent"
)

// Snapshotter is implemented by deciders that read shared arena state.
// Snapshot runs on the stepping goroutine and returns a decider that reads
// only what was captured for req.
type Snapshotter interface {
	Snapshot(req agent.Request) agent.Decider
}

type asyncResult struct {
	action agent.Action
	err    error
}

// Async runs inference out of band. Each decision launches inference for the
// current request and returns the result of the previous one, so an action
// is always handed out at a cadence boundary and never between boundaries.
// The first decision of an episode returns the zero action.
//
// A wrapped decider that reads arena state must implement Snapshotter;
// otherwise it runs concurrently with the arena step.
type Async struct {
	inner   agent.Decider
	pending chan asyncResult
	cancel  context.CancelFunc

	// DrainTimeout bounds how long Reset waits for a cancelled inference.
	DrainTimeout time.Duration
}

// NewAsync wraps a decider for out-of-band inference.
func NewAsync(inner agent.Decider) *Async {
	return &Async{inner: inner, DrainTimeout: time.Second}
}

// Decide implements agent.Decider.
func (a *Async) Decide(ctx context.Context, req agent.Request) (agent.Action, error) {
	var prev asyncResult
	if a.pending != nil {
		select {
		case prev = <-a.pending:
		case <-ctx.Done():
			return agent.Action{}, ctx.Err()
		}
		a.pending = nil
		a.cancel()
		if prev.err != nil {
			return agent.Action{}, prev.err
		}
	}

	d := a.inner
	if s, ok := d.(Snapshotter); ok {
		d = s.Snapshot(req)
	}

	ictx, cancel := context.WithCancel(ctx)
	ch := make(chan asyncResult, 1)
	a.pending, a.cancel = ch, cancel
	go func() {
		act, err := d.Decide(ictx, req)
		ch <- asyncResult{action: act, err: err}
	}()

	return prev.action, nil
}

// Reset cancels any in-flight inference, discards its result and resets the
// wrapped decider. It waits at most DrainTimeout for the inference to stop.
func (a *Async) Reset() {
	if a.pending != nil {
		a.cancel()
		timer := time.NewTimer(a.DrainTimeout)
		select {
		case <-a.pending:
		case <-timer.C:
			slog.Warn("async_inference_abandoned", "timeout", a.DrainTimeout)
		}
		timer.Stop()
		a.pending, a.cancel = nil, nil
	}
	if r, ok := a.inner.(agent.Resetter); ok {
		r.Reset()
	}
}
