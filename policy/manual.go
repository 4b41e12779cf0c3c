package policy

import (
	"context"
	"sync/atomic"

	"github.com/pthm-cable/penguin/agent"
)

// KeySource reports the current directional input state.
type KeySource interface {
	Keys() agent.Keys
}

// Manual turns directional inputs into actions with agent.Heuristic.
type Manual struct {
	src KeySource
}

// NewManual creates a manual policy reading from src.
func NewManual(src KeySource) *Manual {
	return &Manual{src: src}
}

// Decide implements agent.Decider.
func (m *Manual) Decide(context.Context, agent.Request) (agent.Action, error) {
	return agent.Heuristic(m.src.Keys()), nil
}

// KeyState is a KeySource written by the input loop and read by the simulation.
type KeyState struct {
	v atomic.Value
}

// Set stores the latest input state.
func (s *KeyState) Set(k agent.Keys) {
	s.v.Store(k)
}

// Keys implements KeySource.
func (s *KeyState) Keys() agent.Keys {
	k, _ := s.v.Load().(agent.Keys)
	return k
}
