package components

// Body holds the collision shape and category of an entity.
type Body struct {
	Radius float64 // collision circle on the X-Z plane
	Tag    Tag
}
