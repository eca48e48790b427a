// Package camera provides an orbit camera for viewing the simulation cube.
package camera

import "math"

// Pitch stays short of the poles so the up vector never flips.
const maxPitch = 1.5

// Camera orbits a target point at a fixed distance.
type Camera struct {
	// Target is the point the camera looks at, in world coordinates
	TargetX, TargetY, TargetZ float32

	// Yaw rotates around the world Y axis, Pitch tilts above the XZ plane (radians)
	Yaw, Pitch float32

	// Distance from the target
	Distance float32

	// Zoom constraints
	MinDistance, MaxDistance float32

	// Field of view in degrees
	FovY float32

	home float32
}

// New creates a camera framing a cube of the given half-extent centered on
// the origin.
func New(halfExtent float32) *Camera {
	home := halfExtent * 3
	return &Camera{
		Yaw:         math.Pi / 4,
		Pitch:       0.5,
		Distance:    home,
		MinDistance: halfExtent * 0.1,
		MaxDistance: halfExtent * 10,
		FovY:        45,
		home:        home,
	}
}

// Position returns the camera eye in world coordinates.
func (c *Camera) Position() (x, y, z float32) {
	cp := float32(math.Cos(float64(c.Pitch)))
	x = c.TargetX + c.Distance*cp*float32(math.Cos(float64(c.Yaw)))
	y = c.TargetY + c.Distance*float32(math.Sin(float64(c.Pitch)))
	z = c.TargetZ + c.Distance*cp*float32(math.Sin(float64(c.Yaw)))
	return x, y, z
}

// Orbit rotates the camera around its target.
func (c *Camera) Orbit(dYaw, dPitch float32) {
	c.Yaw = wrapAngle(c.Yaw + dYaw)
	c.Pitch = clamp(c.Pitch+dPitch, -maxPitch, maxPitch)
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float32) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy divides the orbit distance by factor, so factors above one move in.
func (c *Camera) ZoomBy(factor float32) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Reset returns the camera to its initial framing.
func (c *Camera) Reset() {
	c.TargetX, c.TargetY, c.TargetZ = 0, 0, 0
	c.Yaw = math.Pi / 4
	c.Pitch = 0.5
	c.Distance = c.home
}

// wrapAngle keeps an angle in [-pi, pi).
func wrapAngle(a float32) float32 {
	r := float32(math.Mod(float64(a)+math.Pi, 2*math.Pi))
	if r < 0 {
		r += 2 * math.Pi
	}
	w := r - math.Pi
	if w >= math.Pi {
		w -= 2 * math.Pi
	}
	return w
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
