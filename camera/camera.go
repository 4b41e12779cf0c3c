// Package camera provides a top-down camera over the arena floor.
package camera

// Camera maps the arena's X-Z plane onto the screen. World X runs right and
// world Z runs up the screen.
type Camera struct {
	// X, Z is the camera center in world coordinates
	X, Z float32

	// Zoom level (1.0 = the arena fits the viewport)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// HomeX, HomeZ and Extent describe the area framed at zoom 1
	HomeX, HomeZ float32
	Extent       float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera framing a square of half-size extent around (cx, cz).
func New(viewportW, viewportH, cx, cz, extent float32) *Camera {
	if extent <= 0 {
		extent = 1
	}
	return &Camera{
		X:         cx,
		Z:         cz,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		HomeX:     cx,
		HomeZ:     cz,
		Extent:    extent,
		MinZoom:   0.5,
		MaxZoom:   8.0,
	}
}

// Scale returns screen pixels per world unit at the current zoom.
func (c *Camera) Scale() float32 {
	side := c.ViewportW
	if c.ViewportH < side {
		side = c.ViewportH
	}
	return side / (2 * c.Extent) * c.Zoom
}

// WorldToScreen converts world floor coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wz float32) (sx, sy float32) {
	s := c.Scale()
	sx = c.ViewportW/2 + (wx-c.X)*s
	sy = c.ViewportH/2 - (wz-c.Z)*s
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world floor coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wz float32) {
	s := c.Scale()
	wx = c.X + (sx-c.ViewportW/2)/s
	wz = c.Z - (sy-c.ViewportH/2)/s
	return wx, wz
}

// WorldLength converts a world distance to screen pixels.
func (c *Camera) WorldLength(d float32) float32 {
	return d * c.Scale()
}

// IsVisible returns true if a circle at (wx, wz) with the given world radius
// could be visible on screen.
func (c *Camera) IsVisible(wx, wz, radius float32) bool {
	s := c.Scale()
	halfW := c.ViewportW/(2*s) + radius
	halfH := c.ViewportH/(2*s) + radius
	return absf(wx-c.X) <= halfW && absf(wz-c.Z) <= halfH
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan moves the camera by the given delta in screen pixels.
// The center stays within two extents of home.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X = clamp(c.X+dx/s, c.HomeX-2*c.Extent, c.HomeX+2*c.Extent)
	c.Z = clamp(c.Z-dy/s, c.HomeZ-2*c.Extent, c.HomeZ+2*c.Extent)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the home position and zoom.
func (c *Camera) Reset() {
	c.X = c.HomeX
	c.Z = c.HomeZ
	c.Zoom = 1.0
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
