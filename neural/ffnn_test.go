package neural

import (
	"math/rand"
	"path/filepath"
	"testing"
)

func TestNewFFNN(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng)

	if nn == nil {
		t.Fatal("NewFFNN returned nil")
	}
	if len(nn.W1) != NumHidden || len(nn.W1[0]) != NumInputs {
		t.Errorf("W1 dimensions: got %dx%d, want %dx%d", len(nn.W1), len(nn.W1[0]), NumHidden, NumInputs)
	}
	if len(nn.W2) != NumOutputs || len(nn.W2[0]) != NumHidden {
		t.Errorf("W2 dimensions: got %dx%d, want %dx%d", len(nn.W2), len(nn.W2[0]), NumOutputs, NumHidden)
	}
}

func TestForwardRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		nn := NewFFNN(rng)
		inputs := make([]float32, NumInputs)
		for i := range inputs {
			inputs[i] = float32(rng.NormFloat64() * 5)
		}

		forward, turn := nn.Forward(inputs)
		if forward < 0 || forward > 1 {
			t.Errorf("forward out of range [0,1]: %f", forward)
		}
		if turn < 0 || turn > 2 {
			t.Errorf("turn out of range {0,1,2}: %d", turn)
		}
	}
}

func TestForwardDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng)

	inputs := make([]float32, NumInputs)
	for i := range inputs {
		inputs[i] = float32(i) / float32(NumInputs)
	}

	f1, t1 := nn.Forward(inputs)
	f2, t2 := nn.Forward(inputs)
	if f1 != f2 || t1 != t2 {
		t.Error("Forward is not deterministic")
	}
}

func TestForwardTurnChoice(t *testing.T) {
	tests := []struct {
		name string
		bias [3]float32
		want int
	}{
		{"none", [3]float32{1, 0, 0}, 0},
		{"left", [3]float32{0, 1, 0}, 1},
		{"right", [3]float32{0, 0, 1}, 2},
		{"tie goes low", [3]float32{0, 1, 1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nn := &FFNN{}
			copy(nn.B2[1:], tt.bias[:])
			_, got := nn.Forward(make([]float32, NumInputs))
			if got != tt.want {
				t.Errorf("turn = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClone(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng)

	clone := nn.Clone()
	if nn.W1[0][0] != clone.W1[0][0] {
		t.Error("Clone has different weights")
	}

	clone.W1[0][0] = 999
	if nn.W1[0][0] == 999 {
		t.Error("Clone is not independent")
	}
}

func TestSaveLoad(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	nn := NewFFNN(rng)
	path := filepath.Join(t.TempDir(), "weights.json")

	if err := nn.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *loaded != *nn {
		t.Error("loaded network differs from saved network")
	}
}

func TestUnmarshalWeightsShape(t *testing.T) {
	nn := &FFNN{}
	w := NewFFNN(rand.New(rand.NewSource(1))).MarshalWeights()
	w.B2 = w.B2[:2]
	if err := nn.UnmarshalWeights(w); err == nil {
		t.Error("expected shape error")
	}
}

func BenchmarkForward(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng)

	inputs := make([]float32, NumInputs)
	for i := range inputs {
		inputs[i] = 0.5
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		nn.Forward(inputs)
	}
}
