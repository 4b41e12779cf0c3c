package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/penguin/agent"
)

// handleInput processes keyboard input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyTab) && g.controls != nil {
		g.controls.Toggle()
	}

	// Penguin keys, read by the manual policy at its next decision
	g.keys.Set(agent.Keys{
		Forward: rl.IsKeyDown(rl.KeyW),
		Back:    rl.IsKeyDown(rl.KeyS),
		Left:    rl.IsKeyDown(rl.KeyA),
		Right:   rl.IsKeyDown(rl.KeyD),
	})

	g.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	if g.camera != nil {
		g.camera.Resize(w, h)
	}
	if g.controls != nil {
		g.controls.SetPosition(int32(w)-controlsWidth-10, 10)
	}
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	if g.camera == nil {
		return
	}

	panSpeed := float32(8.0)

	// Arrow key panning
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Zoom controls: mouse wheel or +/- keys
	if wheelMove := rl.GetMouseWheelMove(); wheelMove != 0 {
		g.camera.ZoomBy(1 + wheelMove*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
