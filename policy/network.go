package policy

import (
	"context"
	"math/rand"

	"github.com/pthm-cable/penguin/agent"
	"github.com/pthm-cable/penguin/neural"
)

// Network runs feedforward inference on the observation.
type Network struct {
	nn     *neural.FFNN
	inputs []float32
}

// NewNetwork wraps a network for inference.
func NewNetwork(nn *neural.FFNN) *Network {
	return &Network{nn: nn, inputs: make([]float32, neural.NumInputs)}
}

// LoadNetwork creates a network policy from a weights file, or from seeded
// random weights when path is empty.
func LoadNetwork(path string, seed int64) (*Network, error) {
	if path == "" {
		return NewNetwork(neural.NewFFNN(rand.New(rand.NewSource(seed)))), nil
	}
	nn, err := neural.Load(path)
	if err != nil {
		return nil, err
	}
	return NewNetwork(nn), nil
}

// Decide implements agent.Decider.
func (n *Network) Decide(_ context.Context, req agent.Request) (agent.Action, error) {
	for i, v := range req.Observation {
		n.inputs[i] = float32(v)
	}
	forward, turn := n.nn.Forward(n.inputs)
	return agent.Action{Forward: float64(forward), Turn: agent.TurnSelector(turn)}, nil
}
