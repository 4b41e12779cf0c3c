package agent

import (
	"errors"
	"math"
	"testing"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		in      []float64
		want    Action
		wantErr error
	}{
		{"idle", []float64{0, 0}, Action{}, nil},
		{"forward left", []float64{1, 1}, Action{Forward: 1, Turn: TurnLeft}, nil},
		{"half right", []float64{0.5, 2}, Action{Forward: 0.5, Turn: TurnRight}, nil},
		{"short", []float64{1}, Action{}, ErrActionLength},
		{"long", []float64{1, 0, 0}, Action{}, ErrActionLength},
		{"negative forward", []float64{-0.1, 0}, Action{}, ErrForwardRange},
		{"forward above one", []float64{1.5, 0}, Action{}, ErrForwardRange},
		{"nan forward", []float64{math.NaN(), 0}, Action{}, ErrForwardRange},
		{"selector three", []float64{0, 3}, Action{}, ErrTurnSelector},
		{"fractional selector", []float64{0, 1.5}, Action{}, ErrTurnSelector},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHeuristic(t *testing.T) {
	tests := []struct {
		name string
		keys Keys
		want Action
	}{
		{"none", Keys{}, Action{}},
		{"forward", Keys{Forward: true}, Action{Forward: 1}},
		{"left", Keys{Left: true}, Action{Turn: TurnLeft}},
		{"right", Keys{Right: true}, Action{Turn: TurnRight}},
		{"left wins", Keys{Left: true, Right: true}, Action{Turn: TurnLeft}},
		{"back ignored", Keys{Back: true}, Action{}},
		{"forward right", Keys{Forward: true, Right: true}, Action{Forward: 1, Turn: TurnRight}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Heuristic(tt.keys); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestActionVectorRoundTrip(t *testing.T) {
	a := Action{Forward: 0.25, Turn: TurnRight}
	got, err := ParseAction(a.Vector())
	if err != nil {
		t.Fatalf("ParseAction: %v", err)
	}
	if got != a {
		t.Errorf("got %+v, want %+v", got, a)
	}
}
