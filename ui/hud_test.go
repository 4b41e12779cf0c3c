package ui

import "testing"

func TestFormatReward(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{1, "1.00"},
		{7.9984, "8.00"},
		{-0.0002, "-0.00"},
		{2.346, "2.35"},
	}
	for _, tt := range tests {
		if got := FormatReward(tt.in); got != tt.want {
			t.Errorf("FormatReward(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func rowByID(t *testing.T, id string) Row {
	t.Helper()
	for _, row := range episodeSection.Rows {
		if row.ID == id {
			return row
		}
	}
	t.Fatalf("no row %q", id)
	return Row{}
}

func TestEpisodeSectionText(t *testing.T) {
	data := HUDData{Episode: 3, Step: 120, MaxSteps: 5000, Reward: 1.976, FishRemaining: 2, IsFull: true}

	tests := []struct {
		id   string
		data HUDData
		want string
	}{
		{"episode", data, "3"},
		{"step", data, "120 / 5000"},
		{"step", HUDData{Step: 42}, "42"},
		{"reward", data, "1.98"},
		{"fish", data, "2"},
		{"stomach", data, "full"},
		{"stomach", HUDData{}, "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.id+"/"+tt.want, func(t *testing.T) {
			if got := RowText(rowByID(t, tt.id), tt.data); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgressVisibility(t *testing.T) {
	row := rowByID(t, "progress")
	if row.Show(HUDData{}) {
		t.Error("progress bar should be hidden for unbounded episodes")
	}
	if !row.Show(HUDData{MaxSteps: 10}) {
		t.Error("progress bar should be visible when max steps is set")
	}
	if got := row.Value(HUDData{Step: 5, MaxSteps: 10}); got != 0.5 {
		t.Errorf("got %v, want 0.5", got)
	}
}

func TestSectionHeight(t *testing.T) {
	r := NewRenderer()
	lh := r.Theme.LineHeight

	// Title + 5 text rows + bar + trailing gap
	want := (lh + 2) + 5*lh + (lh + 2) + 4
	if got := r.SectionHeight(episodeSection, HUDData{MaxSteps: 10}); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
	// Bar hidden
	want -= lh + 2
	if got := r.SectionHeight(episodeSection, HUDData{}); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestRowTextFormatsValue(t *testing.T) {
	row := Row{Kind: RowText, Format: "%.2f", Value: func(any) float32 { return 1.5 }}
	if got := RowText(row, nil); got != "1.50" {
		t.Errorf("got %q, want %q", got, "1.50")
	}
	if got := RowText(Row{}, nil); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
