// Package systems contains the ECS systems of the arena's movement substrate.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/penguin/components"
)

// Contact is a contact-begin event between two bodies.
type Contact struct {
	A, B       ecs.Entity
	TagA, TagB components.Tag
}

// Other returns the body touching self and its tag.
// ok is false when self is not part of the contact.
func (c Contact) Other(self ecs.Entity) (other ecs.Entity, tag components.Tag, ok bool) {
	switch self {
	case c.A:
		return c.B, c.TagB, true
	case c.B:
		return c.A, c.TagA, true
	}
	return ecs.Entity{}, 0, false
}

// pair is an unordered entity pair key.
type pair struct {
	a, b ecs.Entity
}

func makePair(a, b ecs.Entity) pair {
	if b.ID() < a.ID() {
		a, b = b, a
	}
	return pair{a, b}
}

// PhysicsSystem is the movement substrate for one arena: it owns the ECS
// world, integrates velocities, keeps bodies inside the arena wall, and
// reports contact-begin events.
type PhysicsSystem struct {
	world *ecs.World

	bodyMapper *ecs.Map3[components.Transform, components.Velocity, components.Body]
	filter     *ecs.Filter3[components.Transform, components.Velocity, components.Body]
	transforms *ecs.Map[components.Transform]
	velocities *ecs.Map[components.Velocity]
	bodies     *ecs.Map[components.Body]

	center   r3.Vec
	boundary float64

	grid      *SpatialGrid
	neighbors []Neighbor
	touching  map[pair]bool
	contacts  []Contact

	// scratch for the two-pass update
	entities []ecs.Entity
}

// NewPhysicsSystem creates a substrate whose wall is a circle of radius boundary around center.
func NewPhysicsSystem(center r3.Vec, boundary float64) *PhysicsSystem {
	w := ecs.NewWorld()
	return &PhysicsSystem{
		world:      w,
		bodyMapper: ecs.NewMap3[components.Transform, components.Velocity, components.Body](w),
		filter:     ecs.NewFilter3[components.Transform, components.Velocity, components.Body](w),
		transforms: ecs.NewMap[components.Transform](w),
		velocities: ecs.NewMap[components.Velocity](w),
		bodies:     ecs.NewMap[components.Body](w),
		center:     center,
		boundary:   boundary,
		grid:       NewSpatialGrid(center, boundary+1, 2),
		touching:   make(map[pair]bool),
	}
}

// World returns the ECS world backing the substrate.
func (s *PhysicsSystem) World() *ecs.World {
	return s.world
}

// Spawn creates a body at rest.
func (s *PhysicsSystem) Spawn(tag components.Tag, pos r3.Vec, heading, radius float64) ecs.Entity {
	tr := components.Transform{Position: pos, Heading: NormalizeHeading(heading)}
	vel := components.Velocity{}
	body := components.Body{Radius: radius, Tag: tag}
	return s.bodyMapper.NewEntity(&tr, &vel, &body)
}

// Destroy removes a body and forgets its contacts. Dead entities are ignored.
func (s *PhysicsSystem) Destroy(e ecs.Entity) {
	if !s.world.Alive(e) {
		return
	}
	s.forgetContacts(e)
	s.world.RemoveEntity(e)
}

// Alive reports whether the entity still exists.
func (s *PhysicsSystem) Alive(e ecs.Entity) bool {
	return s.world.Alive(e)
}

// Tag returns the category of a body.
func (s *PhysicsSystem) Tag(e ecs.Entity) components.Tag {
	return s.bodies.Get(e).Tag
}

// Position returns the body's position.
func (s *PhysicsSystem) Position(e ecs.Entity) r3.Vec {
	return s.transforms.Get(e).Position
}

// Heading returns the body's heading in degrees.
func (s *PhysicsSystem) Heading(e ecs.Entity) float64 {
	return s.transforms.Get(e).Heading
}

// Forward returns the body's unit facing vector.
func (s *PhysicsSystem) Forward(e ecs.Entity) r3.Vec {
	return HeadingForward(s.transforms.Get(e).Heading)
}

// Velocity returns the body's velocity.
func (s *PhysicsSystem) Velocity(e ecs.Entity) components.Velocity {
	return *s.velocities.Get(e)
}

// SetVelocity replaces the body's velocity.
func (s *PhysicsSystem) SetVelocity(e ecs.Entity, v components.Velocity) {
	*s.velocities.Get(e) = v
}

// ResetVelocity zeroes linear and angular velocity.
func (s *PhysicsSystem) ResetVelocity(e ecs.Entity) {
	*s.velocities.Get(e) = components.Velocity{}
}

// Teleport places a body at an absolute pose. Existing contacts of the body
// are dropped so that an overlap at the new pose reports a fresh contact.
func (s *PhysicsSystem) Teleport(e ecs.Entity, pos r3.Vec, heading float64) {
	tr := s.transforms.Get(e)
	tr.Position = pos
	tr.Heading = NormalizeHeading(heading)
	s.forgetContacts(e)
}

// MovePosition writes an absolute position, clamped to the arena wall.
func (s *PhysicsSystem) MovePosition(e ecs.Entity, pos r3.Vec) {
	tr := s.transforms.Get(e)
	tr.Position = s.clampToBoundary(pos, s.bodies.Get(e).Radius)
}

// SetHeading writes an absolute heading in degrees.
func (s *PhysicsSystem) SetHeading(e ecs.Entity, degrees float64) {
	s.transforms.Get(e).Heading = NormalizeHeading(degrees)
}

// Rotate adds degrees to the body's heading.
func (s *PhysicsSystem) Rotate(e ecs.Entity, degrees float64) {
	tr := s.transforms.Get(e)
	tr.Heading = NormalizeHeading(tr.Heading + degrees)
}

// Step integrates velocities over dt and returns the contacts that began
// during this step. The returned slice is reused by the next call.
func (s *PhysicsSystem) Step(dt float64) []Contact {
	s.integrate(dt)
	return s.detectContacts()
}

// integrate moves every body by its velocity and keeps it inside the wall.
func (s *PhysicsSystem) integrate(dt float64) {
	query := s.filter.Query()
	for query.Next() {
		tr, vel, body := query.Get()
		if vel.Linear != (r3.Vec{}) {
			next := r3.Add(tr.Position, r3.Scale(dt, vel.Linear))
			tr.Position = s.clampToBoundary(next, body.Radius)
		}
		if vel.Angular != 0 {
			tr.Heading = NormalizeHeading(tr.Heading + vel.Angular*dt)
		}
	}
}

// detectContacts finds overlapping pairs and reports the ones that were
// not touching during the previous step.
func (s *PhysicsSystem) detectContacts() []Contact {
	s.grid.Clear()
	s.entities = s.entities[:0]
	maxRadius := 0.0

	query := s.filter.Query()
	for query.Next() {
		e := query.Entity()
		tr, _, body := query.Get()
		s.grid.Insert(e, tr.Position)
		s.entities = append(s.entities, e)
		maxRadius = math.Max(maxRadius, body.Radius)
	}

	s.contacts = s.contacts[:0]
	current := make(map[pair]bool, len(s.touching))

	for _, e := range s.entities {
		pos := s.transforms.Get(e).Position
		body := s.bodies.Get(e)
		s.neighbors = s.grid.QueryRadiusInto(s.neighbors[:0], pos, body.Radius+maxRadius, e)

		for _, n := range s.neighbors {
			// Each pair is visited from both sides; handle it from the lower ID only.
			if n.E.ID() < e.ID() {
				continue
			}
			other := s.bodies.Get(n.E)
			reach := body.Radius + other.Radius
			if n.DistSq >= reach*reach {
				continue
			}
			p := makePair(e, n.E)
			current[p] = true
			if !s.touching[p] {
				s.contacts = append(s.contacts, Contact{A: e, B: n.E, TagA: body.Tag, TagB: other.Tag})
			}
		}
	}

	s.touching = current
	return s.contacts
}

// forgetContacts drops remembered contacts involving e.
func (s *PhysicsSystem) forgetContacts(e ecs.Entity) {
	for p := range s.touching {
		if p.a == e || p.b == e {
			delete(s.touching, p)
		}
	}
}

// clampToBoundary keeps a body of the given radius inside the arena wall.
func (s *PhysicsSystem) clampToBoundary(pos r3.Vec, radius float64) r3.Vec {
	limit := s.boundary - radius
	if limit <= 0 {
		return pos
	}
	dx := pos.X - s.center.X
	dz := pos.Z - s.center.Z
	d := math.Hypot(dx, dz)
	if d <= limit {
		return pos
	}
	scale := limit / d
	pos.X = s.center.X + dx*scale
	pos.Z = s.center.Z + dz*scale
	return pos
}
