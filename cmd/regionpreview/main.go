// Placement region preview tool - interactive visualization of where the
// agent, the baby, and the fish are placed on episode reset.
//
// Usage: go run ./cmd/regionpreview [-config path]
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/penguin/camera"
	"github.com/pthm-cable/penguin/config"
)

const (
	windowWidth  = 1100
	windowHeight = 720
	previewSize  = 680
	panelWidth   = windowWidth - previewSize - 30
	samples      = 400
)

var regionColors = [...]rl.Color{
	{R: 25, G: 25, B: 35, A: 160},
	{R: 230, G: 60, B: 90, A: 160},
	{R: 70, G: 130, B: 200, A: 160},
}

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	defaults := layoutFromConfig(cfg.Arena)
	current := defaults
	boundary := cfg.Physics.BoundaryRadius

	rl.InitWindow(windowWidth, windowHeight, "Placement Region Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	cam := camera.New(previewSize, previewSize, 0, 0, float32(boundary)*1.05)
	selected := 0
	var seed int64 = 1
	points := make([][]r3.Vec, len(regionNames))
	needsResample := true

	for !rl.WindowShouldClose() {
		if needsResample {
			current.normalize()
			for i := range points {
				points[i] = samplePoints(current.Regions[i], r3.Vec{}, samples, seed+int64(i))
			}
			needsResample = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Preview, offset into its own viewport
		rl.BeginScissorMode(10, 10, previewSize, previewSize)
		rl.DrawRectangle(10, 10, previewSize, previewSize, rl.Color{R: 12, G: 40, B: 70, A: 255})
		cx, cy := cam.WorldToScreen(0, 0)
		rl.DrawCircleV(rl.Vector2{X: cx + 10, Y: cy + 10}, cam.WorldLength(float32(boundary)), rl.Color{R: 215, G: 230, B: 240, A: 255})
		for i, pts := range points {
			c := regionColors[i]
			if i != selected {
				c.A = 60
			}
			for _, p := range pts {
				sx, sy := cam.WorldToScreen(float32(p.X), float32(p.Z))
				rl.DrawCircleV(rl.Vector2{X: sx + 10, Y: sy + 10}, 2, c)
			}
		}
		rl.EndScissorMode()
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Placement Regions", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		for i, name := range regionNames {
			label := name
			if i == selected {
				label = "> " + name
			}
			if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 20), Height: 26}, label) {
				selected = i
			}
			panelY += 32
		}
		panelY += 10

		r := &current.Regions[selected]
		sliders := []struct {
			label    string
			value    *float64
			min, max float32
		}{
			{"Min angle (deg from +Z)", &r.MinAngle, -180, 360},
			{"Max angle", &r.MaxAngle, -180, 360},
			{"Min radius", &r.MinRadius, 0, float32(boundary)},
			{"Max radius", &r.MaxRadius, 0, float32(boundary)},
		}
		for _, s := range sliders {
			rl.DrawText(s.label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"", "",
				float32(*s.value), s.min, s.max,
			)
			rl.DrawText(fmt.Sprintf("%.1f", *s.value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			if v != float32(*s.value) {
				*s.value = float64(v)
				needsResample = true
			}
			panelY += 35
		}

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Resample") {
			seed++
			needsResample = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			current = defaults
			needsResample = true
		}
		panelY += 50

		// Output YAML
		snippet, err := current.yamlSnippet()
		if err != nil {
			snippet = err.Error()
		}
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		for _, line := range strings.Split(strings.TrimRight(snippet, "\n"), "\n") {
			rl.DrawText(line, int32(panelX), int32(panelY), 12, rl.Gray)
			panelY += 14
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) && err == nil {
			rl.SetClipboardText(snippet)
		}

		rl.EndDrawing()
	}
}
