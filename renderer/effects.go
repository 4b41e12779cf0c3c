package renderer

import (
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/penguin/agent"
	"github.com/pthm-cable/penguin/camera"
)

const maxEffects = 64

// ActiveEffect is an emitted effect with its remaining life.
type ActiveEffect struct {
	agent.Effect
	Age float64
}

// LifeRatio returns the fraction of life left, 1 when fresh.
func (e ActiveEffect) LifeRatio() float32 {
	if e.Lifetime <= 0 {
		return 0
	}
	r := 1 - e.Age/e.Lifetime
	if r < 0 {
		return 0
	}
	return float32(r)
}

// EffectSystem keeps feeding effects alive for their lifetime and draws them.
// It implements agent.EffectSink; the simulation never reads it back.
type EffectSystem struct {
	mu      sync.Mutex
	effects []ActiveEffect
}

// NewEffectSystem creates an empty effect system.
func NewEffectSystem() *EffectSystem {
	return &EffectSystem{effects: make([]ActiveEffect, 0, maxEffects)}
}

// Emit implements agent.EffectSink. Effects beyond the cap are dropped.
func (s *EffectSystem) Emit(e agent.Effect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.effects) >= maxEffects || e.Lifetime <= 0 {
		return
	}
	s.effects = append(s.effects, ActiveEffect{Effect: e})
}

// Update ages every effect by dt seconds and drops the expired ones.
func (s *EffectSystem) Update(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	alive := 0
	for i := range s.effects {
		e := &s.effects[i]
		e.Age += dt
		if e.Age >= e.Lifetime {
			continue
		}
		s.effects[alive] = s.effects[i]
		alive++
	}
	s.effects = s.effects[:alive]
}

// Active returns a copy of the live effects.
func (s *EffectSystem) Active() []ActiveEffect {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ActiveEffect, len(s.effects))
	copy(out, s.effects)
	return out
}

// Count returns the number of live effects.
func (s *EffectSystem) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.effects)
}

// Draw renders the live effects, fading them out over their lifetime.
func (s *EffectSystem) Draw(cam *camera.Camera) {
	for _, e := range s.Active() {
		lifeRatio := e.LifeRatio()
		sx, sy := cam.WorldToScreen(float32(e.Position.X), float32(e.Position.Z))

		switch e.Kind {
		case agent.EffectRegurgitatedFish:
			// Silver, shrinking
			color := rl.Color{R: 170, G: 190, B: 210, A: uint8(lifeRatio * 230)}
			size := cam.WorldLength(0.35) * (0.5 + 0.5*lifeRatio)
			drawFishShape(sx, sy, size, color)
		case agent.EffectHeart:
			// Red, rising on screen by its height above the floor
			color := rl.Color{R: 230, G: 60, B: 90, A: uint8(lifeRatio * 255)}
			rise := cam.WorldLength(float32(e.Position.Y)) * (1.5 - 0.5*lifeRatio)
			drawHeart(sx, sy-rise, cam.WorldLength(0.3), color)
		}
	}
}

// drawHeart draws a heart centered at (x, y).
func drawHeart(x, y, size float32, color rl.Color) {
	if size < 2 {
		size = 2
	}
	r := size / 2
	rl.DrawCircleV(rl.Vector2{X: x - r, Y: y - r/2}, r, color)
	rl.DrawCircleV(rl.Vector2{X: x + r, Y: y - r/2}, r, color)
	rl.DrawTriangle(
		rl.Vector2{X: x - 2*r, Y: y - r/4},
		rl.Vector2{X: x, Y: y + 1.6*size},
		rl.Vector2{X: x + 2*r, Y: y - r/4},
		color,
	)
}

// drawFishShape draws a small fish silhouette facing right.
func drawFishShape(x, y, size float32, color rl.Color) {
	if size < 2 {
		size = 2
	}
	rl.DrawEllipse(int32(x), int32(y), size, size*0.5, color)
	rl.DrawTriangle(
		rl.Vector2{X: x - size, Y: y},
		rl.Vector2{X: x - 1.6*size, Y: y + size*0.5},
		rl.Vector2{X: x - 1.6*size, Y: y - size*0.5},
		color,
	)
}
