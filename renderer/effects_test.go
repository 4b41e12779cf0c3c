package renderer

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/penguin/agent"
)

func TestEffectSystemExpiry(t *testing.T) {
	s := NewEffectSystem()
	s.Emit(agent.Effect{Kind: agent.EffectHeart, Position: r3.Vec{Y: 1}, Lifetime: 1})
	s.Emit(agent.Effect{Kind: agent.EffectRegurgitatedFish, Lifetime: 2})

	tests := []struct {
		name string
		dt   float64
		want int
	}{
		{"fresh", 0, 2},
		{"half way", 0.5, 2},
		{"heart expired", 0.5, 1},
		{"all expired", 1.0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.Update(tt.dt)
			if got := s.Count(); got != tt.want {
				t.Errorf("got %d effects, want %d", got, tt.want)
			}
		})
	}
}

func TestEffectSystemIgnoresZeroLifetime(t *testing.T) {
	s := NewEffectSystem()
	s.Emit(agent.Effect{Kind: agent.EffectHeart})
	if got := s.Count(); got != 0 {
		t.Errorf("got %d effects, want 0", got)
	}
}

func TestEffectSystemCap(t *testing.T) {
	s := NewEffectSystem()
	for i := 0; i < maxEffects+10; i++ {
		s.Emit(agent.Effect{Kind: agent.EffectHeart, Lifetime: 4})
	}
	if got := s.Count(); got != maxEffects {
		t.Errorf("got %d effects, want %d", got, maxEffects)
	}
}

func TestLifeRatio(t *testing.T) {
	tests := []struct {
		age, lifetime float64
		want          float32
	}{
		{0, 4, 1},
		{1, 4, 0.75},
		{4, 4, 0},
		{5, 4, 0},
		{0, 0, 0},
	}
	for _, tt := range tests {
		e := ActiveEffect{Effect: agent.Effect{Lifetime: tt.lifetime}, Age: tt.age}
		if got := e.LifeRatio(); math.Abs(float64(got-tt.want)) > 1e-6 {
			t.Errorf("LifeRatio(age=%v, lifetime=%v) = %v, want %v", tt.age, tt.lifetime, got, tt.want)
		}
	}
}

func TestActiveIsCopy(t *testing.T) {
	s := NewEffectSystem()
	s.Emit(agent.Effect{Kind: agent.EffectHeart, Lifetime: 4})
	active := s.Active()
	active[0].Age = 100
	s.Update(0)
	if got := s.Count(); got != 1 {
		t.Errorf("mutating Active() changed the system: got %d effects, want 1", got)
	}
}
