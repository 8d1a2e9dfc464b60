// Package camera provides the orbit camera used to inspect terrain grids.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCamera orbits around a target point.
type OrbitCamera struct {
	Target mgl32.Vec3

	Distance float32
	Pitch    float32 // radians above the horizon
	Yaw      float32 // radians around +Y

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	FovY float32 // radians
	Near float32
	Far  float32

	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera returns a camera looking at target from above.
func NewOrbitCamera(target mgl32.Vec3, distance float32) *OrbitCamera {
	return &OrbitCamera{
		Target:          target,
		Distance:        distance,
		Pitch:           0.6,
		MinDistance:     4,
		MaxDistance:     4096,
		MinPitch:        0.05,
		MaxPitch:        1.5,
		FovY:            mgl32.DegToRad(60),
		Near:            0.5,
		Far:             8192,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the eye position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	offset := mgl32.Vec3{
		c.Distance * cp * float32(math.Sin(float64(c.Yaw))),
		c.Distance * float32(math.Sin(float64(c.Pitch))),
		c.Distance * cp * float32(math.Cos(float64(c.Yaw))),
	}
	return c.Target.Add(offset)
}

// View returns the view matrix.
func (c *OrbitCamera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, mgl32.Vec3{0, 1, 0})
}

// Projection returns a perspective projection for the given aspect ratio.
func (c *OrbitCamera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// HandleDrag rotates the camera by a mouse drag delta in pixels.
func (c *OrbitCamera) HandleDrag(dx, dy float32) {
	c.Yaw -= dx * c.DragSensitivity
	c.Pitch = mgl32.Clamp(c.Pitch+dy*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom moves the camera along its view ray; positive steps zoom in.
func (c *OrbitCamera) HandleZoom(steps float32) {
	c.Distance = mgl32.Clamp(c.Distance*(1-steps*c.ZoomSensitivity), c.MinDistance, c.MaxDistance)
}
