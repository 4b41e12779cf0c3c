// Package neural provides the feedforward network used for policy inference.
package neural

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
)

// Network dimensions.
const (
	NumInputs  = 8  // isFull, baby distance, baby direction xyz, forward xyz
	NumHidden  = 16
	NumOutputs = 4  // forward amount, turn none/left/right
)

// FFNN is a simple two-layer feedforward neural network.
type FFNN struct {
	W1 [NumHidden][NumInputs]float32  // input -> hidden weights
	B1 [NumHidden]float32             // hidden biases
	W2 [NumOutputs][NumHidden]float32 // hidden -> output weights
	B2 [NumOutputs]float32            // output biases
}

// NewFFNN creates a randomly initialized network.
func NewFFNN(rng *rand.Rand) *FFNN {
	nn := &FFNN{}
	// Xavier initialization
	scale1 := float32(math.Sqrt(2.0 / float64(NumInputs)))
	scale2 := float32(math.Sqrt(2.0 / float64(NumHidden)))

	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] = float32(rng.NormFloat64()) * scale1
		}
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] = float32(rng.NormFloat64()) * scale2
		}
	}

	// Slight preference for moving forward without turning.
	nn.B2[0] = 0.5
	nn.B2[1] = 0.5

	return nn
}

// Forward computes the network output.
// Returns the forward amount in [0,1] and the turn selector 0 (none), 1 (left) or 2 (right).
func (nn *FFNN) Forward(inputs []float32) (forward float32, turn int) {
	var hidden [NumHidden]float32
	for i := 0; i < NumHidden; i++ {
		sum := nn.B1[i]
		for j := 0; j < NumInputs; j++ {
			sum += nn.W1[i][j] * inputs[j]
		}
		hidden[i] = tanh(sum)
	}

	var outputs [NumOutputs]float32
	for i := 0; i < NumOutputs; i++ {
		sum := nn.B2[i]
		for j := 0; j < NumHidden; j++ {
			sum += nn.W2[i][j] * hidden[j]
		}
		outputs[i] = sum
	}

	forward = saturate01(outputs[0]*0.5 + 0.5)

	// Greedy turn choice; ties go to the lower selector.
	turn = 0
	for k := 1; k < 3; k++ {
		if outputs[1+k] > outputs[1+turn] {
			turn = k
		}
	}
	return forward, turn
}

// saturate01 clamps x to [0, 1].
func saturate01(x float32) float32 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return x
}

// Clone creates a deep copy of the network.
func (nn *FFNN) Clone() *FFNN {
	clone := *nn
	return &clone
}

// tanh uses a fast rational approximation avoiding float64 conversion.
func tanh(x float32) float32 {
	if x > 4 {
		return 1
	}
	if x < -4 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

// Weights holds flattened network weights for serialization.
type Weights struct {
	W1 []float32 `json:"w1"` // [NumHidden * NumInputs]
	B1 []float32 `json:"b1"` // [NumHidden]
	W2 []float32 `json:"w2"` // [NumOutputs * NumHidden]
	B2 []float32 `json:"b2"` // [NumOutputs]
}

// MarshalWeights flattens the network weights for JSON serialization.
func (nn *FFNN) MarshalWeights() Weights {
	w := Weights{
		W1: make([]float32, 0, NumHidden*NumInputs),
		B1: append([]float32(nil), nn.B1[:]...),
		W2: make([]float32, 0, NumOutputs*NumHidden),
		B2: append([]float32(nil), nn.B2[:]...),
	}
	for i := range nn.W1 {
		w.W1 = append(w.W1, nn.W1[i][:]...)
	}
	for i := range nn.W2 {
		w.W2 = append(w.W2, nn.W2[i][:]...)
	}
	return w
}

// UnmarshalWeights restores network weights from flattened form.
// Every slice must have exactly the network's dimensions.
func (nn *FFNN) UnmarshalWeights(w Weights) error {
	if len(w.W1) != NumHidden*NumInputs || len(w.B1) != NumHidden ||
		len(w.W2) != NumOutputs*NumHidden || len(w.B2) != NumOutputs {
		return fmt.Errorf("weights shape mismatch: w1=%d b1=%d w2=%d b2=%d",
			len(w.W1), len(w.B1), len(w.W2), len(w.B2))
	}
	for i := 0; i < NumHidden; i++ {
		copy(nn.W1[i][:], w.W1[i*NumInputs:(i+1)*NumInputs])
	}
	copy(nn.B1[:], w.B1)
	for i := 0; i < NumOutputs; i++ {
		copy(nn.W2[i][:], w.W2[i*NumHidden:(i+1)*NumHidden])
	}
	copy(nn.B2[:], w.B2)
	return nil
}

// Load reads a network from a JSON weights file.
func Load(path string) (*FFNN, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading weights: %w", err)
	}
	var w Weights
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parsing weights: %w", err)
	}
	nn := &FFNN{}
	if err := nn.UnmarshalWeights(w); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return nn, nil
}

// Save writes the network as a JSON weights file.
func (nn *FFNN) Save(path string) error {
	data, err := json.MarshalIndent(nn.MarshalWeights(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding weights: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing weights: %w", err)
	}
	return nil
}
