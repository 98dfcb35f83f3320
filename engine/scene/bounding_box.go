package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

// BoundingBox is an axis-aligned box. The zero value is an invalid (empty) box.
type BoundingBox struct {
	Min   mgl32.Vec3
	Max   mgl32.Vec3
	Valid bool
}

// NewBoundingBox returns a valid box spanning min to max.
//
// Parameters:
//   - min: the minimum corner
//   - max: the maximum corner
//
// Returns:
//   - BoundingBox: the box
func NewBoundingBox(min, max mgl32.Vec3) BoundingBox {
	return BoundingBox{Min: min, Max: max, Valid: true}
}

// AABB transforms the box by m and returns the axis-aligned box enclosing the result.
// Each basis column of m contributes the smaller and larger of its products with the
// box extremes, starting from the translation column.
//
// Parameters:
//   - m: the transform to apply
//
// Returns:
//   - BoundingBox: the transformed box, valid when b is valid
func (b BoundingBox) AABB(m mgl32.Mat4) BoundingBox {
	t := m.Col(3).Vec3()
	lo, hi := t, t
	for i := 0; i < 3; i++ {
		col := m.Col(i).Vec3()
		v0 := col.Mul(b.Min[i])
		v1 := col.Mul(b.Max[i])
		lo = lo.Add(common.MinVec3(v0, v1))
		hi = hi.Add(common.MaxVec3(v0, v1))
	}
	return BoundingBox{Min: lo, Max: hi, Valid: b.Valid}
}

// Merge returns the union of two boxes. Invalid boxes do not participate.
//
// Parameters:
//   - other: the box to merge with
//
// Returns:
//   - BoundingBox: the union
func (b BoundingBox) Merge(other BoundingBox) BoundingBox {
	switch {
	case !other.Valid:
		return b
	case !b.Valid:
		return other
	}
	return NewBoundingBox(common.MinVec3(b.Min, other.Min), common.MaxVec3(b.Max, other.Max))
}

// Extent returns Max - Min.
func (b BoundingBox) Extent() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}
