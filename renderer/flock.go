// Package renderer draws the flock with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/camera"
	"github.com/pthm-cable/flock/systems"
)

// Palette endpoints for the speed ramp.
var (
	slowColor = rl.Color{R: 60, G: 110, B: 220, A: 255}
	fastColor = rl.Color{R: 255, G: 170, B: 60, A: 255}
)

// FlockRenderer renders particles as small cubes inside the scene bounds.
type FlockRenderer struct {
	halfExtent float32
	maxSpeed   float64
	pointSize  float32

	// ShowGrid draws the uniform grid's outer bounds.
	ShowGrid bool
	// ShowBounds draws the wrap-around scene cube.
	ShowBounds bool
}

// NewFlockRenderer creates a renderer for a scene of the given half-extent.
// maxSpeed is the per-axis velocity clamp used to normalize colors.
func NewFlockRenderer(halfExtent, maxSpeed float64) *FlockRenderer {
	return &FlockRenderer{
		halfExtent: float32(halfExtent),
		maxSpeed:   maxSpeed,
		pointSize:  float32(halfExtent) / 150,
		ShowBounds: true,
	}
}

// Camera3D converts the orbit camera into a raylib camera.
func Camera3D(c *camera.Camera) rl.Camera3D {
	x, y, z := c.Position()
	return rl.Camera3D{
		Position:   rl.NewVector3(x, y, z),
		Target:     rl.NewVector3(c.TargetX, c.TargetY, c.TargetZ),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       c.FovY,
		Projection: rl.CameraPerspective,
	}
}

// Draw renders every particle. Must be called between BeginDrawing and
// EndDrawing.
func (r *FlockRenderer) Draw(cam *camera.Camera, pos, vel []r3.Vec, geom systems.Geometry) {
	rl.BeginMode3D(Camera3D(cam))

	if r.ShowBounds {
		side := 2 * r.halfExtent
		rl.DrawCubeWiresV(rl.Vector3{}, rl.NewVector3(side, side, side), rl.Gray)
	}
	if r.ShowGrid {
		side := float32(geom.CellWidth) * float32(geom.Side)
		rl.DrawCubeWiresV(rl.Vector3{}, rl.NewVector3(side, side, side), rl.DarkGreen)
	}

	size := rl.NewVector3(r.pointSize, r.pointSize, r.pointSize)
	for i := range pos {
		p := pos[i]
		rl.DrawCubeV(rl.NewVector3(float32(p.X), float32(p.Y), float32(p.Z)), size, SpeedColor(vel[i], r.maxSpeed))
	}

	rl.EndMode3D()
}

// SpeedColor blends from slow to fast by speed relative to the largest
// speed the per-axis clamp allows.
func SpeedColor(v r3.Vec, maxSpeed float64) rl.Color {
	t := float32(0)
	if maxSpeed > 0 {
		// Per-axis clamping bounds the norm by sqrt(3) * maxSpeed.
		t = float32(r3.Norm(v) / (maxSpeed * 1.7320508075688772))
	}
	if t > 1 {
		t = 1
	}
	return lerpColor(slowColor, fastColor, t)
}

func lerpColor(a, b rl.Color, t float32) rl.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(float32(x) + (float32(y)-float32(x))*t + 0.5)
	}
	return rl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
