// Package renderer draws the arena floor, its bodies, and the feeding effects.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/penguin/camera"
)

// Body is a drawable disc on the arena floor.
type Body struct {
	Position r3.Vec
	Heading  float64 // degrees, 0 = +Z
	Radius   float64
}

// ArenaView is the per-frame state the arena renderer needs.
type ArenaView struct {
	Center     r3.Vec
	Boundary   float64
	FeedRadius float64
	Agent      Body
	AgentFull  bool
	Baby       Body
	Fish       []Body
}

// ArenaRenderer draws the arena from above.
type ArenaRenderer struct {
	Water     rl.Color
	Floor     rl.Color
	Wall      rl.Color
	Penguin   rl.Color
	Belly     rl.Color
	Baby      rl.Color
	FishColor rl.Color
}

// NewArenaRenderer creates an arena renderer with the default palette.
func NewArenaRenderer() *ArenaRenderer {
	return &ArenaRenderer{
		Water:     rl.Color{R: 12, G: 40, B: 70, A: 255},
		Floor:     rl.Color{R: 215, G: 230, B: 240, A: 255},
		Wall:      rl.Color{R: 90, G: 120, B: 150, A: 255},
		Penguin:   rl.Color{R: 25, G: 25, B: 35, A: 255},
		Belly:     rl.Color{R: 250, G: 190, B: 60, A: 255},
		Baby:      rl.Color{R: 140, G: 140, B: 150, A: 255},
		FishColor: rl.Color{R: 70, G: 130, B: 200, A: 255},
	}
}

// Draw renders the floor, the wall, the feed radius, the fish, the baby, and the agent.
func (r *ArenaRenderer) Draw(v ArenaView, cam *camera.Camera) {
	rl.ClearBackground(r.Water)

	cx, cy := cam.WorldToScreen(float32(v.Center.X), float32(v.Center.Z))
	center := rl.Vector2{X: cx, Y: cy}
	rl.DrawCircleV(center, cam.WorldLength(float32(v.Boundary)), r.Floor)
	rl.DrawCircleLinesV(center, cam.WorldLength(float32(v.Boundary)), r.Wall)

	if v.FeedRadius > 0 {
		bx, by := cam.WorldToScreen(float32(v.Baby.Position.X), float32(v.Baby.Position.Z))
		rl.DrawCircleLinesV(rl.Vector2{X: bx, Y: by}, cam.WorldLength(float32(v.FeedRadius)), rl.Color{R: 230, G: 60, B: 90, A: 120})
	}

	for _, f := range v.Fish {
		r.drawOriented(f, r.FishColor, cam)
	}
	r.drawOriented(v.Baby, r.Baby, cam)
	r.drawOriented(v.Agent, r.Penguin, cam)

	if v.AgentFull {
		ax, ay := cam.WorldToScreen(float32(v.Agent.Position.X), float32(v.Agent.Position.Z))
		rl.DrawCircleV(rl.Vector2{X: ax, Y: ay}, cam.WorldLength(float32(v.Agent.Radius)*0.4), r.Belly)
	}
}

// drawOriented draws a body as a disc with a nose triangle along its heading.
func (r *ArenaRenderer) drawOriented(b Body, color rl.Color, cam *camera.Camera) {
	wx, wz := float32(b.Position.X), float32(b.Position.Z)
	if !cam.IsVisible(wx, wz, float32(b.Radius)*2) {
		return
	}
	sx, sy := cam.WorldToScreen(wx, wz)
	radius := cam.WorldLength(float32(b.Radius))
	if radius < 2 {
		radius = 2
	}
	rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, color)

	// Screen direction of forward (sin h, cos h) on X-Z, with screen Y down
	h := b.Heading * math.Pi / 180
	dx := float32(math.Sin(h))
	dy := -float32(math.Cos(h))
	px, py := -dy, dx

	tip := rl.Vector2{X: sx + dx*radius*1.6, Y: sy + dy*radius*1.6}
	port := rl.Vector2{X: sx - px*radius*0.6, Y: sy - py*radius*0.6}
	starboard := rl.Vector2{X: sx + px*radius*0.6, Y: sy + py*radius*0.6}
	// Counter-clockwise on screen
	rl.DrawTriangle(tip, port, starboard, color)
}
