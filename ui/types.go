// Package ui provides the heads-up display and the parameter panel.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// RowKind selects how a HUD row is drawn.
type RowKind int

const (
	RowText RowKind = iota // label and formatted value
	RowBar                 // label and a [0, 1] fill bar
)

// Row is one line of a HUD section. Text rows use Text when set and
// otherwise format Value with Format. Bar rows use Value.
type Row struct {
	ID     string
	Label  string
	Kind   RowKind
	Format string
	Value  func(any) float32
	Text   func(any) string
	Show   func(any) bool // nil shows the row always
}

// Section is a titled group of rows.
type Section struct {
	Title string
	Rows  []Row
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 220},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.White,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 100, G: 150, B: 200, A: 255},
		Padding:        10,
		LineHeight:     18,
		LabelWidth:     90,
		BarHeight:      12,
		FontSize:       14,
		HeaderFontSize: 16,
	}
}
