// Package components defines ECS components for the arena bodies.
package components

// Tag identifies the category of a body. Contact events carry the tag of
// the body that was touched.
type Tag uint8

const (
	TagAgent Tag = iota
	TagBaby
	TagFish
)

// String returns the contact category name.
func (t Tag) String() string {
	switch t {
	case TagAgent:
		return "agent"
	case TagBaby:
		return "baby"
	case TagFish:
		return "fish"
	}
	return "unknown"
}
