package agent

import (
	"errors"
	"fmt"
	"math"
)

// ActionSize is the length of the action vector exchanged with a policy.
const ActionSize = 2

// Action contract violations.
var (
	ErrActionLength = errors.New("action: wrong vector length")
	ErrForwardRange = errors.New("action: forward amount outside [0, 1]")
	ErrTurnSelector = errors.New("action: turn selector not in {0, 1, 2}")
)

// TurnSelector picks the turning direction for a step.
type TurnSelector int

const (
	TurnNone TurnSelector = iota
	TurnLeft
	TurnRight
)

// Yaw returns the signed yaw rate multiplier: left turns negative, right positive.
func (t TurnSelector) Yaw() float64 {
	switch t {
	case TurnLeft:
		return -1
	case TurnRight:
		return 1
	}
	return 0
}

// String returns the selector name.
func (t TurnSelector) String() string {
	switch t {
	case TurnNone:
		return "none"
	case TurnLeft:
		return "left"
	case TurnRight:
		return "right"
	}
	return fmt.Sprintf("turn(%d)", int(t))
}

// Action is one decision of the policy: how far to move forward and which way to turn.
type Action struct {
	Forward float64 // in [0, 1]
	Turn    TurnSelector
}

// Validate checks the action against the policy contract.
func (a Action) Validate() error {
	if math.IsNaN(a.Forward) || a.Forward < 0 || a.Forward > 1 {
		return fmt.Errorf("%w: %v", ErrForwardRange, a.Forward)
	}
	if a.Turn < TurnNone || a.Turn > TurnRight {
		return fmt.Errorf("%w: %d", ErrTurnSelector, int(a.Turn))
	}
	return nil
}

// Vector returns the wire form [forwardAmount, turnSelector].
func (a Action) Vector() []float64 {
	return []float64{a.Forward, float64(a.Turn)}
}

// ParseAction converts a wire action vector, rejecting malformed input.
func ParseAction(v []float64) (Action, error) {
	if len(v) != ActionSize {
		return Action{}, fmt.Errorf("%w: got %d, want %d", ErrActionLength, len(v), ActionSize)
	}
	sel := v[1]
	if sel != 0 && sel != 1 && sel != 2 {
		return Action{}, fmt.Errorf("%w: %v", ErrTurnSelector, sel)
	}
	a := Action{Forward: v[0], Turn: TurnSelector(sel)}
	if err := a.Validate(); err != nil {
		return Action{}, err
	}
	return a, nil
}

// Keys is the state of the four directional inputs used for manual control.
type Keys struct {
	Forward, Back, Left, Right bool
}

// Heuristic maps directional inputs to an action in the policy's format.
// Left wins over right; the back input is not used.
func Heuristic(k Keys) Action {
	var a Action
	if k.Forward {
		a.Forward = 1
	}
	if k.Left {
		a.Turn = TurnLeft
	} else if k.Right {
		a.Turn = TurnRight
	}
	return a
}
