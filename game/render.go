package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/penguin/camera"
	"github.com/pthm-cable/penguin/params"
	"github.com/pthm-cable/penguin/policy"
	"github.com/pthm-cable/penguin/renderer"
	"github.com/pthm-cable/penguin/ui"
)

const controlsWidth = 260

// parameterSliders are the environment parameters editable in the window.
var parameterSliders = []ui.ParamSlider{
	{Name: params.FeedRadius, Label: "Feed radius", Default: params.DefaultFeedRadius, Min: 0, Max: 5},
	{Name: params.FishSpeed, Label: "Fish speed", Default: params.DefaultFishSpeed, Min: 0, Max: 3},
}

// initRendering creates the camera, renderers, and panels. The window must be open.
func (g *Game) initRendering() {
	g.screenWidth = float32(rl.GetScreenWidth())
	g.screenHeight = float32(rl.GetScreenHeight())

	c := g.cfg.Arena.Center
	extent := float32(g.cfg.Physics.BoundaryRadius) * 1.1
	g.camera = camera.New(g.screenWidth, g.screenHeight, float32(c[0]), float32(c[2]), extent)

	g.arenaRenderer = renderer.NewArenaRenderer()
	g.effects = renderer.NewEffectSystem()
	g.hud = ui.NewHUD()
	g.controls = ui.NewControlsPanel(g.params, parameterSliders, int32(g.screenWidth)-controlsWidth-10, 10, controlsWidth)
}

// Draw renders the first arena.
func (g *Game) Draw() {
	rl.BeginDrawing()

	e := g.envs[0]
	g.arenaRenderer.Draw(g.arenaView(e), g.camera)
	g.effects.Draw(g.camera)

	ag := e.agent
	g.hud.Draw(ui.HUDData{
		Title:         "Penguin",
		Policy:        string(g.opts.Policy),
		Arena:         e.index,
		Arenas:        len(g.envs),
		Episode:       ag.Episode(),
		Step:          ag.StepCount(),
		MaxSteps:      e.maxSteps,
		Reward:        ag.CumulativeReward(),
		FishRemaining: e.arena.FishRemaining(),
		IsFull:        ag.IsFull(),
		EpisodesDone:  int(g.Episodes()),
		Tick:          g.tick,
		Speed:         g.stepsPerUpdate,
		FPS:           rl.GetFPS(),
		Paused:        g.paused,
	})
	g.controls.Draw()

	controls := "[WASD] Swim  [Space] Pause  [<>] Speed  [Tab] Parameters  [Arrows/Wheel] Camera  [Home] Reset view"
	if g.opts.Policy != policy.KindManual {
		controls = fmt.Sprintf("Policy: %s  [Space] Pause  [<>] Speed  [Tab] Parameters  [Arrows/Wheel] Camera  [Home] Reset view", g.opts.Policy)
	}
	g.hud.DrawControls(int32(g.screenWidth), int32(g.screenHeight), controls)

	rl.EndDrawing()
}

// arenaView collects the drawable state of an arena.
func (g *Game) arenaView(e *Env) renderer.ArenaView {
	pc := g.cfg.Physics
	ph := e.physics
	ar := e.arena

	v := renderer.ArenaView{
		Center:     ar.Center(),
		Boundary:   pc.BoundaryRadius,
		FeedRadius: e.agent.FeedRadius(),
		AgentFull:  e.agent.IsFull(),
		Agent: renderer.Body{
			Position: ph.Position(ar.AgentBody()),
			Heading:  ph.Heading(ar.AgentBody()),
			Radius:   pc.AgentRadius,
		},
		Baby: renderer.Body{
			Position: ph.Position(ar.BabyBody()),
			Heading:  ph.Heading(ar.BabyBody()),
			Radius:   pc.BabyRadius,
		},
	}
	for _, f := range ar.Fish() {
		v.Fish = append(v.Fish, renderer.Body{
			Position: ph.Position(f),
			Heading:  ph.Heading(f),
			Radius:   pc.FishRadius,
		})
	}
	return v
}
