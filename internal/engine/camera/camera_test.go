package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestPositionLooksDownAtTarget(t *testing.T) {
	c := NewOrbitCamera(mgl32.Vec3{10, 0, 10}, 100)
	c.Pitch = mgl32.DegToRad(90) - 1e-4
	c.Yaw = 0

	p := c.Position()
	if !mgl32.FloatEqualThreshold(p.X(), 10, 0.1) || !mgl32.FloatEqualThreshold(p.Z(), 10, 0.1) {
		t.Errorf("expected eye above target, got %v", p)
	}
	if !mgl32.FloatEqualThreshold(p.Y(), 100, 0.1) {
		t.Errorf("expected eye at height 100, got %v", p.Y())
	}
}

func TestViewMapsTargetOntoAxis(t *testing.T) {
	c := NewOrbitCamera(mgl32.Vec3{5, 0, -3}, 50)
	v := c.View().Mul4x1(c.Target.Vec4(1))

	// The target lies straight ahead, 50 units down -Z in view space.
	if !mgl32.FloatEqualThreshold(v.X(), 0, 1e-3) || !mgl32.FloatEqualThreshold(v.Y(), 0, 1e-3) {
		t.Errorf("target off the view axis: %v", v)
	}
	if !mgl32.FloatEqualThreshold(v.Z(), -50, 1e-2) {
		t.Errorf("expected target at z=-50, got %v", v.Z())
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera(mgl32.Vec3{}, 10)
	c.HandleDrag(0, 1e6)
	if c.Pitch != c.MaxPitch {
		t.Errorf("pitch: got %f, want %f", c.Pitch, c.MaxPitch)
	}
	c.HandleDrag(0, -1e6)
	if c.Pitch != c.MinPitch {
		t.Errorf("pitch: got %f, want %f", c.Pitch, c.MinPitch)
	}
}

func TestHandleZoomClampsDistance(t *testing.T) {
	c := NewOrbitCamera(mgl32.Vec3{}, 100)
	c.HandleZoom(1)
	if !mgl32.FloatEqual(c.Distance, 90) {
		t.Errorf("distance: got %f, want 90", c.Distance)
	}
	c.HandleZoom(100)
	if c.Distance != c.MinDistance {
		t.Errorf("distance: got %f, want %f", c.Distance, c.MinDistance)
	}
}
