package game

import (
	"context"
	"fmt"
	"time"

	"github.com/pthm-cable/penguin/agent"
	"github.com/pthm-cable/penguin/policy"
)

// deciderFactory returns the factory that builds each arena's policy stack:
// the base policy, optionally wrapped for out-of-band inference, then for
// trajectory recording.
func (g *Game) deciderFactory(ctx context.Context) DeciderFactory {
	return func(e *Env) (agent.Decider, error) {
		d, err := g.basePolicy(ctx, e)
		if err != nil {
			return nil, err
		}
		if g.opts.AsyncInference {
			d = policy.NewAsync(d)
		}
		if g.trajectory != nil {
			t := &trajectoryDecider{inner: d, w: g.trajectory, runID: g.runID, arena: e.index}
			e.trajectory = t
			d = t
		}
		return d, nil
	}
}

// basePolicy creates the configured policy for one arena.
func (g *Game) basePolicy(ctx context.Context, e *Env) (agent.Decider, error) {
	seed := g.opts.Seed + int64(e.index) + 1

	switch g.opts.Policy {
	case policy.KindManual:
		return policy.NewManual(g.keys), nil
	case policy.KindScripted:
		return policy.NewScripted(e.arena), nil
	case policy.KindRandom:
		return policy.NewRandom(seed), nil
	case policy.KindNetwork:
		n, err := policy.LoadNetwork(g.opts.Weights, seed)
		if err != nil {
			return nil, err
		}
		return n, nil
	case policy.KindRemote:
		rc := g.cfg.Remote
		r, err := policy.DialRemote(ctx, policy.RemoteOptions{
			URL:             g.opts.TrainerURL,
			ProtocolVersion: rc.ProtocolVersion,
			RunID:           g.runID,
			Arena:           e.index,
			DecisionPeriod:  g.cfg.Agent.DecisionPeriod,
			MaxSteps:        g.cfg.Agent.MaxSteps,
			DialTimeout:     seconds(rc.DialTimeout),
			ReadTimeout:     seconds(rc.ReadTimeout),
			Parameters:      g.params,
		})
		if err != nil {
			return nil, err
		}
		e.listeners = append(e.listeners, r)
		e.closers = append(e.closers, r)
		return r, nil
	}
	return nil, fmt.Errorf("unknown policy %q", g.opts.Policy)
}

// seconds converts a config duration in seconds.
func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
