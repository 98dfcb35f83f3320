package common

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(unsafe.Sizeof(*v)))
}

// QuatFromVec4 builds a quaternion from glTF's (x, y, z, w) component order.
//
// Parameters:
//   - v: the quaternion components in x, y, z, w order
//
// Returns:
//   - mgl32.Quat: the quaternion with W taken from v[3]
func QuatFromVec4(v mgl32.Vec4) mgl32.Quat {
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}

// MixVec4 linearly interpolates between a and b.
//
// Parameters:
//   - a: the value at t = 0
//   - b: the value at t = 1
//   - t: the interpolation factor
//
// Returns:
//   - mgl32.Vec4: a + (b - a) * t
func MixVec4(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}

// MinVec3 returns the component-wise minimum of a and b.
func MinVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

// MaxVec3 returns the component-wise maximum of a and b.
func MaxVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}

// TransformPoint applies m to the point p (w = 1) and drops w.
//
// Parameters:
//   - m: the transform
//   - p: the point to transform
//
// Returns:
//   - mgl32.Vec3: the transformed point
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformDirection applies the upper 3x3 of m to d and re-normalizes the result.
// Zero-length inputs are returned unchanged.
//
// Parameters:
//   - m: the transform
//   - d: the direction to transform
//
// Returns:
//   - mgl32.Vec3: the transformed unit direction
func TransformDirection(m mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	if d.Len() == 0 {
		return d
	}
	out := m.Mat3().Mul3x1(d)
	if out.Len() == 0 {
		return out
	}
	return out.Normalize()
}
