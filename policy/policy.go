// Package policy provides action sources for the penguin agent: manual
// keyboard control, scripted and random baselines, network inference, a
// remote trainer connection, and an out-of-band inference wrapper.
package policy

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/pthm-cable/penguin/agent"
)

// Kind names a policy implementation selectable from the command line.
type Kind string

const (
	KindManual   Kind = "manual"
	KindScripted Kind = "scripted"
	KindRandom   Kind = "random"
	KindNetwork  Kind = "network"
	KindRemote   Kind = "remote"
)

// ParseKind validates a policy name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindManual, KindScripted, KindRandom, KindNetwork, KindRemote:
		return k, nil
	}
	return "", fmt.Errorf("unknown policy %q (want manual, scripted, random, network or remote)", s)
}

// Func adapts a function to agent.Decider.
type Func func(ctx context.Context, req agent.Request) (agent.Action, error)

// Decide implements agent.Decider.
func (f Func) Decide(ctx context.Context, req agent.Request) (agent.Action, error) {
	return f(ctx, req)
}

// Random picks uniformly among forward amounts in [0,1] and the three turn selectors.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a random policy with its own seeded source.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// Decide implements agent.Decider.
func (r *Random) Decide(context.Context, agent.Request) (agent.Action, error) {
	return agent.Action{
		Forward: r.rng.Float64(),
		Turn:    agent.TurnSelector(r.rng.Intn(3)),
	}, nil
}
