package scene

import "github.com/go-gl/mathgl/mgl32"

// Skin binds a joint hierarchy to the vertices of a mesh.
type Skin struct {
	Name string
	// SkeletonRoot is the node at the root of the joint hierarchy, -1 when not declared.
	SkeletonRoot int
	// Joints are node indices. Unresolvable joints are dropped, so Joints may be shorter
	// than InverseBindMatrices.
	Joints              []int
	InverseBindMatrices []mgl32.Mat4
}

// InverseBindMatrix returns the inverse bind matrix at position i, or identity when the
// skin declares fewer.
func (s *Skin) InverseBindMatrix(i int) mgl32.Mat4 {
	if i < len(s.InverseBindMatrices) {
		return s.InverseBindMatrices[i]
	}
	return mgl32.Ident4()
}
