// Package lighting provides the directional light used by the terrain passes.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Sun is a directional light given by angles in degrees. Longitude rotates
// around +Y starting at +Z, latitude is elevation above the horizon.
type Sun struct {
	Longitude float32
	Latitude  float32
}

// ToSun returns the unit vector pointing from the ground towards the sun.
func (s Sun) ToSun() mgl32.Vec3 {
	lon := float64(mgl32.DegToRad(s.Longitude))
	lat := float64(mgl32.DegToRad(mgl32.Clamp(s.Latitude, 0, 90)))

	return mgl32.Vec3{
		float32(math.Cos(lat) * math.Sin(lon)),
		float32(math.Sin(lat)),
		float32(math.Cos(lat) * math.Cos(lon)),
	}
}

// Direction returns the direction light travels in, the negated ToSun.
func (s Sun) Direction() mgl32.Vec3 {
	return s.ToSun().Mul(-1)
}
