package camera

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraUniform is the camera uniform block read by the viewer shaders.
//
//	struct Camera {
//	    view_proj: mat4x4<f32>, // offset  0
//	    position:  vec3<f32>,   // offset 64
//	}
type CameraUniform struct {
	ViewProjection mgl32.Mat4
	Position       mgl32.Vec3
	_              float32
}

// CameraUniformSize is the size of CameraUniform in bytes.
const CameraUniformSize = int(unsafe.Sizeof(CameraUniform{}))
