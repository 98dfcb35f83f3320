package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraBuilderOption is a functional option used to configure a camera during construction.
type CameraBuilderOption func(*orbitCamera)

// WithFov sets the vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: the option
func WithFov(fov float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.fov = fov
	}
}

// WithAspect sets the aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio
//
// Returns:
//   - CameraBuilderOption: the option
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.SetAspect(aspect)
	}
}

// WithClipPlanes sets the near and far plane distances.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: the option
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.near = near
		c.far = far
	}
}

// WithOrbit sets the initial orbit.
//
// Parameters:
//   - target: the orbit center
//   - radius: the distance from target
//   - azimuth: the horizontal angle around the up axis
//   - elevation: the angle above the horizontal plane
//
// Returns:
//   - CameraBuilderOption: the option
func WithOrbit(target mgl32.Vec3, radius, azimuth, elevation float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.target = target
		c.radius = radius
		c.azimuth = azimuth
		c.elevation = elevation
	}
}

// WithZoomStep sets the fraction of the radius one scroll unit moves the eye.
func WithZoomStep(step float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		if step > 0 && step < 1 {
			c.zoomStep = step
		}
	}
}
