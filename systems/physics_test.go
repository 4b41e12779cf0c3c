package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/penguin/components"
)

func TestContactBeginIsEdgeTriggered(t *testing.T) {
	p := NewPhysicsSystem(r3.Vec{}, 14.5)
	agent := p.Spawn(components.TagAgent, r3.Vec{X: -2}, 0, 0.6)
	fish := p.Spawn(components.TagFish, r3.Vec{X: 2}, 0, 0.3)

	if got := p.Step(0.02); len(got) != 0 {
		t.Fatalf("contacts while apart = %d, want 0", len(got))
	}

	p.MovePosition(agent, r3.Vec{X: 1.5})
	got := p.Step(0.02)
	if len(got) != 1 {
		t.Fatalf("contacts on touch = %d, want 1", len(got))
	}
	other, tag, ok := got[0].Other(agent)
	if !ok || other != fish || tag != components.TagFish {
		t.Errorf("Other(agent) = %v, %v, %v", other, tag, ok)
	}

	if got := p.Step(0.02); len(got) != 0 {
		t.Errorf("contacts while staying in touch = %d, want 0", len(got))
	}

	p.MovePosition(agent, r3.Vec{X: -2})
	p.Step(0.02)
	p.MovePosition(agent, r3.Vec{X: 1.5})
	if got := p.Step(0.02); len(got) != 1 {
		t.Errorf("contacts on second touch = %d, want 1", len(got))
	}
}

func TestTeleportForgetsContacts(t *testing.T) {
	p := NewPhysicsSystem(r3.Vec{}, 14.5)
	agent := p.Spawn(components.TagAgent, r3.Vec{}, 0, 0.6)
	p.Spawn(components.TagBaby, r3.Vec{X: 0.5}, 180, 0.5)

	if got := p.Step(0.02); len(got) != 1 {
		t.Fatalf("initial contacts = %d, want 1", len(got))
	}

	p.Teleport(agent, r3.Vec{}, 90)
	if got := p.Step(0.02); len(got) != 1 {
		t.Errorf("contacts after teleport = %d, want 1", len(got))
	}
}

func TestDestroy(t *testing.T) {
	p := NewPhysicsSystem(r3.Vec{}, 14.5)
	agent := p.Spawn(components.TagAgent, r3.Vec{}, 0, 0.6)
	fish := p.Spawn(components.TagFish, r3.Vec{X: 0.5}, 0, 0.3)
	p.Step(0.02)

	p.Destroy(fish)
	p.Destroy(fish)
	if p.Alive(fish) {
		t.Fatal("fish still alive after Destroy")
	}
	if got := p.Step(0.02); len(got) != 0 {
		t.Errorf("contacts after destroy = %d, want 0", len(got))
	}

	fresh := p.Spawn(components.TagFish, r3.Vec{X: 0.5}, 0, 0.3)
	got := p.Step(0.02)
	if len(got) != 1 {
		t.Fatalf("contacts with new fish = %d, want 1", len(got))
	}
	if other, _, _ := got[0].Other(agent); other != fresh {
		t.Errorf("contact with %v, want %v", other, fresh)
	}
}

func TestIntegrateAndBoundary(t *testing.T) {
	tests := []struct {
		name  string
		start r3.Vec
		vel   r3.Vec
		steps int
		want  r3.Vec
	}{
		{"free motion", r3.Vec{}, r3.Vec{X: 1}, 50, r3.Vec{X: 1}},
		{"clamped at wall", r3.Vec{Z: 9}, r3.Vec{Z: 10}, 100, r3.Vec{Z: 14}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPhysicsSystem(r3.Vec{}, 14.5)
			e := p.Spawn(components.TagFish, tt.start, 0, 0.5)
			p.SetVelocity(e, components.Velocity{Linear: tt.vel})
			for range tt.steps {
				p.Step(0.02)
			}
			if got := p.Position(e); r3.Norm(r3.Sub(got, tt.want)) > 1e-9 {
				t.Errorf("position = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMovePositionClamps(t *testing.T) {
	p := NewPhysicsSystem(r3.Vec{X: 10, Z: 10}, 5)
	e := p.Spawn(components.TagAgent, r3.Vec{X: 10, Z: 10}, 0, 1)
	p.MovePosition(e, r3.Vec{X: 30, Y: 0.5, Z: 10})

	want := r3.Vec{X: 14, Y: 0.5, Z: 10}
	if got := p.Position(e); r3.Norm(r3.Sub(got, want)) > 1e-9 {
		t.Errorf("position = %v, want %v", got, want)
	}
}

func TestRotate(t *testing.T) {
	p := NewPhysicsSystem(r3.Vec{}, 14.5)
	e := p.Spawn(components.TagAgent, r3.Vec{}, 350, 0.6)
	p.Rotate(e, 20)
	if got := p.Heading(e); math.Abs(got-10) > 1e-9 {
		t.Errorf("heading = %v, want 10", got)
	}
	p.Rotate(e, -30)
	if got := p.Heading(e); math.Abs(got-340) > 1e-9 {
		t.Errorf("heading = %v, want 340", got)
	}
}

func TestHeadingForward(t *testing.T) {
	tests := []struct {
		heading float64
		want    r3.Vec
	}{
		{0, r3.Vec{Z: 1}},
		{90, r3.Vec{X: 1}},
		{180, r3.Vec{Z: -1}},
		{270, r3.Vec{X: -1}},
		{-90, r3.Vec{X: -1}},
	}

	for _, tt := range tests {
		got := HeadingForward(tt.heading)
		if r3.Norm(r3.Sub(got, tt.want)) > 1e-9 {
			t.Errorf("HeadingForward(%v) = %v, want %v", tt.heading, got, tt.want)
		}
	}
}

func TestHeadingTo(t *testing.T) {
	tests := []struct {
		to   r3.Vec
		want float64
	}{
		{r3.Vec{Z: 1}, 0},
		{r3.Vec{X: 1}, 90},
		{r3.Vec{Z: -1}, 180},
		{r3.Vec{X: -1}, 270},
	}

	for _, tt := range tests {
		if got := HeadingTo(r3.Vec{}, tt.to); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("HeadingTo(%v) = %v, want %v", tt.to, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, heading, angle float64
	}{
		{0, 0, 0},
		{360, 0, 0},
		{-90, 270, -90},
		{540, 180, -180},
		{190, 190, -170},
	}

	for _, tt := range tests {
		if got := NormalizeHeading(tt.in); math.Abs(got-tt.heading) > 1e-9 {
			t.Errorf("NormalizeHeading(%v) = %v, want %v", tt.in, got, tt.heading)
		}
		if got := NormalizeAngle(tt.in); math.Abs(got-tt.angle) > 1e-9 {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.in, got, tt.angle)
		}
	}
}

func TestDirectionCoincident(t *testing.T) {
	p := r3.Vec{X: 1, Y: 2, Z: 3}
	if got := Direction(p, p); got != (r3.Vec{}) {
		t.Errorf("Direction(p, p) = %v, want zero", got)
	}
}

func TestSpatialGridQuery(t *testing.T) {
	p := NewPhysicsSystem(r3.Vec{}, 14.5)
	a := p.Spawn(components.TagAgent, r3.Vec{}, 0, 0.5)
	b := p.Spawn(components.TagFish, r3.Vec{X: 1.5}, 0, 0.5)
	c := p.Spawn(components.TagFish, r3.Vec{X: 8}, 0, 0.5)

	g := NewSpatialGrid(r3.Vec{}, 15, 2)
	g.Insert(a, p.Position(a))
	g.Insert(b, p.Position(b))
	g.Insert(c, p.Position(c))

	got := g.QueryRadiusInto(nil, r3.Vec{}, 2, a)
	if len(got) != 1 || got[0].E != b {
		t.Fatalf("neighbors = %+v, want only b", got)
	}
	if math.Abs(got[0].DistSq-2.25) > 1e-9 {
		t.Errorf("DistSq = %v, want 2.25", got[0].DistSq)
	}
}
