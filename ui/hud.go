package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title         string
	Policy        string
	Arena         int
	Arenas        int
	Episode       int
	Step          int
	MaxSteps      int
	Reward        float64
	FishRemaining int
	IsFull        bool
	EpisodesDone  int
	Tick          int64
	Speed         int
	FPS           int32
	Paused        bool
}

// FormatReward formats a cumulative reward the way the HUD shows it.
func FormatReward(r float64) string {
	return fmt.Sprintf("%.2f", r)
}

// episodeSection describes the per-episode rows of the HUD.
var episodeSection = Section{
	Title: "Episode",
	Rows: []Row{
		{ID: "episode", Label: "Episode", Kind: RowText, Text: func(d any) string {
			return fmt.Sprintf("%d", d.(HUDData).Episode)
		}},
		{ID: "step", Label: "Step", Kind: RowText, Text: func(d any) string {
			h := d.(HUDData)
			if h.MaxSteps > 0 {
				return fmt.Sprintf("%d / %d", h.Step, h.MaxSteps)
			}
			return fmt.Sprintf("%d", h.Step)
		}},
		{ID: "reward", Label: "Reward", Kind: RowText, Text: func(d any) string {
			return FormatReward(d.(HUDData).Reward)
		}},
		{ID: "fish", Label: "Fish left", Kind: RowText, Text: func(d any) string {
			return fmt.Sprintf("%d", d.(HUDData).FishRemaining)
		}},
		{ID: "stomach", Label: "Stomach", Kind: RowText, Text: func(d any) string {
			if d.(HUDData).IsFull {
				return "full"
			}
			return "empty"
		}},
		{ID: "progress", Label: "Steps", Kind: RowBar,
			Show: func(d any) bool { return d.(HUDData).MaxSteps > 0 },
			Value: func(d any) float32 {
				h := d.(HUDData)
				return float32(h.Step) / float32(h.MaxSteps)
			},
		},
	},
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
	width    int32
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
		width:    260,
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)
	rl.DrawText(
		fmt.Sprintf("Arena %d/%d | Policy: %s | Episodes: %d", data.Arena+1, data.Arenas, data.Policy, data.EpisodesDone),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | Speed: %dx | FPS: %d", data.Tick, data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, 75, 16, rl.Yellow)

	r := h.renderer
	x, y := int32(10), int32(100)
	height := r.SectionHeight(episodeSection, data) + r.Theme.Padding*2
	r.DrawPanel(x, y, h.width, height)
	r.DrawSection(x+r.Theme.Padding, y+r.Theme.Padding, episodeSection, data, h.width-r.Theme.Padding*2)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}
