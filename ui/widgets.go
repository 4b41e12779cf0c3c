package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight + 2
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws a progress bar for [0, 1] values.
func (r *Renderer) DrawBar(x, y int32, label string, value float32, width int32) int32 {
	value = clamp01(value)

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+3, barWidth, r.Theme.BarHeight, r.Theme.BarBg)
	rl.DrawRectangle(barX, y+3, int32(float32(barWidth)*value), r.Theme.BarHeight, r.Theme.BarFill)
	rl.DrawText(fmt.Sprintf("%.0f%%", value*100), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawRow draws one row and returns the new Y position.
func (r *Renderer) DrawRow(x, y int32, row Row, data any, width int32) int32 {
	if row.Kind == RowBar {
		var v float32
		if row.Value != nil {
			v = row.Value(data)
		}
		return r.DrawBar(x, y, row.Label, v, width)
	}
	return r.DrawLabelValue(x, y, row.Label, RowText(row, data))
}

// DrawSection draws the title and every shown row of sec.
func (r *Renderer) DrawSection(x, y int32, sec Section, data any, width int32) int32 {
	if sec.Title != "" {
		y = r.DrawSectionHeader(x, y, sec.Title)
	}
	for _, row := range sec.Rows {
		if row.Show != nil && !row.Show(data) {
			continue
		}
		y = r.DrawRow(x, y, row, data, width)
	}
	return y + 4
}

// SectionHeight returns the pixel height DrawSection uses for data.
func (r *Renderer) SectionHeight(sec Section, data any) int32 {
	var h int32
	if sec.Title != "" {
		h += r.Theme.LineHeight + 2
	}
	for _, row := range sec.Rows {
		if row.Show != nil && !row.Show(data) {
			continue
		}
		h += r.Theme.LineHeight
		if row.Kind == RowBar {
			h += 2
		}
	}
	return h + 4
}

// RowText returns the value a text row shows for data.
func RowText(row Row, data any) string {
	if row.Text != nil {
		return row.Text(data)
	}
	if row.Value != nil {
		return fmt.Sprintf(row.Format, row.Value(data))
	}
	return ""
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
