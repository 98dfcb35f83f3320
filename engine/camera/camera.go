// Package camera provides the orbit camera used by the viewer to frame a loaded scene.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

// depthZeroToOne remaps OpenGL clip depth [-1, 1] to the [0, 1] range used by WebGPU and Vulkan.
var depthZeroToOne = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Camera is a perspective camera orbiting a target point.
// Angles are in radians; elevation is measured from the horizontal plane.
type Camera interface {
	// Position returns the world-space eye position.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position
	Position() mgl32.Vec3

	// Target returns the point the camera orbits and looks at.
	//
	// Returns:
	//   - mgl32.Vec3: the target
	Target() mgl32.Vec3

	// SetTarget moves the orbit center.
	//
	// Parameters:
	//   - target: the new target
	SetTarget(target mgl32.Vec3)

	// Radius returns the distance between eye and target.
	Radius() float32

	// SetRadius sets the orbit distance, clamped to the configured range.
	//
	// Parameters:
	//   - radius: the distance from the target
	SetRadius(radius float32)

	// Orbit rotates the eye around the target. Elevation is clamped short of the poles.
	//
	// Parameters:
	//   - dAzimuth: the change in azimuth
	//   - dElevation: the change in elevation
	Orbit(dAzimuth, dElevation float32)

	// Zoom moves the eye towards the target by a fraction of the current radius.
	//
	// Parameters:
	//   - delta: the scroll amount, positive zooms in
	Zoom(delta float32)

	// SetAspect sets the viewport aspect ratio (width / height).
	SetAspect(aspect float32)

	// Frame centers the camera on a bounding box and backs off far enough to see all of it.
	// Invalid boxes are ignored.
	//
	// Parameters:
	//   - bounds: the box to frame, usually Scene.Bounds
	Frame(bounds scene.BoundingBox)

	// ViewMatrix returns the world to view transform.
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the perspective projection with a [0, 1] depth range.
	ProjectionMatrix() mgl32.Mat4

	// Uniform returns the camera block uploaded to the GPU.
	//
	// Returns:
	//   - CameraUniform: the block
	Uniform() CameraUniform
}

type orbitCamera struct {
	target    mgl32.Vec3
	up        mgl32.Vec3
	radius    float32
	azimuth   float32
	elevation float32

	minRadius, maxRadius float32
	maxElevation         float32
	zoomStep             float32

	fov, aspect, near, far float32
}

var _ Camera = &orbitCamera{}

// NewCamera creates an orbit camera looking at the origin from radius 5.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &orbitCamera{
		up:           mgl32.Vec3{0, 1, 0},
		radius:       5,
		elevation:    math.Pi / 6,
		minRadius:    0.01,
		maxRadius:    1e5,
		maxElevation: math.Pi/2 - 0.01,
		zoomStep:     0.1,
		fov:          mgl32.DegToRad(45),
		aspect:       1,
		near:         0.01,
		far:          1000,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *orbitCamera) Position() mgl32.Vec3 {
	cosElev := float32(math.Cos(float64(c.elevation)))
	sinElev := float32(math.Sin(float64(c.elevation)))
	cosAzim := float32(math.Cos(float64(c.azimuth)))
	sinAzim := float32(math.Sin(float64(c.azimuth)))
	return c.target.Add(mgl32.Vec3{cosElev * sinAzim, sinElev, cosElev * cosAzim}.Mul(c.radius))
}

func (c *orbitCamera) Target() mgl32.Vec3 {
	return c.target
}

func (c *orbitCamera) SetTarget(target mgl32.Vec3) {
	c.target = target
}

func (c *orbitCamera) Radius() float32 {
	return c.radius
}

func (c *orbitCamera) SetRadius(radius float32) {
	c.radius = mgl32.Clamp(radius, c.minRadius, c.maxRadius)
}

func (c *orbitCamera) Orbit(dAzimuth, dElevation float32) {
	c.azimuth += dAzimuth
	c.elevation = mgl32.Clamp(c.elevation+dElevation, -c.maxElevation, c.maxElevation)
}

func (c *orbitCamera) Zoom(delta float32) {
	c.SetRadius(c.radius * (1 - delta*c.zoomStep))
}

func (c *orbitCamera) SetAspect(aspect float32) {
	if aspect > 0 {
		c.aspect = aspect
	}
}

func (c *orbitCamera) Frame(bounds scene.BoundingBox) {
	if !bounds.Valid {
		return
	}
	c.target = bounds.Center()
	halfDiagonal := bounds.Extent().Len() / 2
	if halfDiagonal == 0 {
		halfDiagonal = 1
	}
	distance := halfDiagonal / float32(math.Sin(float64(c.fov)/2))
	c.SetRadius(distance)
	c.near = max(distance/1000, 1e-4)
	c.far = distance + halfDiagonal*4
}

func (c *orbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.target, c.up)
}

func (c *orbitCamera) ProjectionMatrix() mgl32.Mat4 {
	return depthZeroToOne.Mul4(mgl32.Perspective(c.fov, c.aspect, c.near, c.far))
}

func (c *orbitCamera) Uniform() CameraUniform {
	return CameraUniform{
		ViewProjection: c.ProjectionMatrix().Mul4(c.ViewMatrix()),
		Position:       c.Position(),
	}
}
