package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ParamStore is the environment parameter store edited by the panel.
type ParamStore interface {
	Get(name string, def float64) float64
	Set(name string, value float64)
}

// ParamSlider describes one editable environment parameter.
type ParamSlider struct {
	Name     string
	Label    string
	Default  float64
	Min, Max float64
}

// ControlsPanel renders sliders for environment parameters. Changes are
// written to the store and apply from the next episode.
type ControlsPanel struct {
	renderer *Renderer
	store    ParamStore
	sliders  []ParamSlider
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(store ParamStore, sliders []ParamSlider, x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		store:    store,
		sliders:  sliders,
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the panel and applies slider changes.
func (c *ControlsPanel) Draw() {
	if !c.visible {
		return
	}

	r := c.renderer
	padding := r.Theme.Padding
	rowHeight := int32(44)
	height := padding*2 + r.Theme.LineHeight + int32(len(c.sliders))*rowHeight + 14
	r.DrawPanel(c.x, c.y, c.width, height)

	y := c.y + padding
	rl.DrawText("Parameters", c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	y += r.Theme.LineHeight + 4

	sliderW := float32(c.width - padding*2 - 60)
	for _, s := range c.sliders {
		value := c.store.Get(s.Name, s.Default)
		rl.DrawText(s.Label, c.x+padding, y, r.Theme.FontSize, r.Theme.LabelColor)
		y += r.Theme.LineHeight

		bounds := rl.Rectangle{X: float32(c.x + padding), Y: float32(y), Width: sliderW, Height: 16}
		next := gui.SliderBar(bounds, "", "", float32(value), float32(s.Min), float32(s.Max))
		rl.DrawText(fmt.Sprintf("%.2f", value), c.x+padding+int32(sliderW)+8, y, r.Theme.FontSize, r.Theme.ValueColor)
		if float64(next) != float64(float32(value)) {
			c.store.Set(s.Name, float64(next))
		}
		y += rowHeight - r.Theme.LineHeight
	}

	rl.DrawText("applies next episode", c.x+padding, y, 12, rl.Gray)
}
