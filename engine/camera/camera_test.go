package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

func TestPositionFromOrbit(t *testing.T) {
	c := NewCamera(WithOrbit(mgl32.Vec3{1, 0, 0}, 2, 0, 0))
	if got := c.Position(); !got.ApproxEqualThreshold(mgl32.Vec3{1, 0, 2}, 1e-5) {
		t.Errorf("expected (1,0,2), got %v", got)
	}
	c.Orbit(math.Pi/2, 0)
	if got := c.Position(); !got.ApproxEqualThreshold(mgl32.Vec3{3, 0, 0}, 1e-5) {
		t.Errorf("expected (3,0,0) after a quarter turn, got %v", got)
	}
}

func TestOrbitClampsElevation(t *testing.T) {
	c := NewCamera()
	c.Orbit(0, 10)
	if p := c.Position(); p[1] >= c.Radius() {
		t.Errorf("expected elevation to stop short of the pole, got %v", p)
	}
}

func TestZoomAndRadiusClamp(t *testing.T) {
	c := NewCamera(WithOrbit(mgl32.Vec3{}, 10, 0, 0), WithZoomStep(0.5))
	c.Zoom(1)
	if c.Radius() != 5 {
		t.Errorf("expected radius 5, got %v", c.Radius())
	}
	c.SetRadius(-1)
	if c.Radius() <= 0 {
		t.Errorf("expected a positive radius, got %v", c.Radius())
	}
}

func TestFrame(t *testing.T) {
	c := NewCamera()
	c.Frame(scene.NewBoundingBox(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2}))
	if !c.Target().ApproxEqualThreshold(mgl32.Vec3{1, 1, 1}, 1e-5) {
		t.Errorf("expected target (1,1,1), got %v", c.Target())
	}
	if c.Radius() <= float32(math.Sqrt(3)) {
		t.Errorf("expected the eye outside the box, got radius %v", c.Radius())
	}

	before := c.Target()
	c.Frame(scene.BoundingBox{})
	if c.Target() != before {
		t.Error("expected an invalid box to be ignored")
	}
}

func TestProjectionDepthRange(t *testing.T) {
	c := NewCamera(WithClipPlanes(1, 10))
	p := c.ProjectionMatrix()
	near := p.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	far := p.Mul4x1(mgl32.Vec4{0, 0, -10, 1})
	if d := near[2] / near[3]; math.Abs(float64(d)) > 1e-5 {
		t.Errorf("expected depth 0 at the near plane, got %v", d)
	}
	if d := far[2] / far[3]; math.Abs(float64(d-1)) > 1e-5 {
		t.Errorf("expected depth 1 at the far plane, got %v", d)
	}
	if CameraUniformSize != 80 {
		t.Errorf("expected an 80 byte uniform, got %d", CameraUniformSize)
	}
}
