package scene

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

// MaxJoints is the number of joint matrices a mesh uniform block can hold.
const MaxJoints = 64

// MeshUniform is the std140 per-mesh uniform block.
type MeshUniform struct {
	Matrix      mgl32.Mat4
	JointMatrix [MaxJoints]mgl32.Mat4
	JointCount  float32
	_           [3]float32
}

const (
	// MeshUniformSize is the size of MeshUniform in bytes.
	MeshUniformSize = int(unsafe.Sizeof(MeshUniform{}))
	// MeshMatrixSize is the size of the leading model matrix, the only part written for unskinned meshes.
	MeshMatrixSize = int(unsafe.Sizeof(mgl32.Mat4{}))
	// JointCountOffset is the byte offset of JointCount inside MeshUniform.
	JointCountOffset = int(unsafe.Offsetof(MeshUniform{}.JointCount))
)

// Primitive is a draw range into the scene-wide index buffer.
type Primitive struct {
	FirstIndex  uint32
	IndexCount  uint32
	FirstVertex uint32
	VertexCount uint32
	// Material indexes Scene.Materials and is always valid.
	Material int
	Bounds   BoundingBox
}

// Mesh is a list of primitives plus the uniform buffer holding the owning node's transforms.
type Mesh struct {
	Name string
	// Index is the glTF mesh index.
	Index      int
	Primitives []Primitive
	// Bounds is the union of the primitive bounds in mesh space.
	Bounds BoundingBox

	Uniform renderer.UniformBuffer
	// BindingSet is assigned by the caller's binding context.
	BindingSet renderer.BindingSet

	block MeshUniform
}

// UniformBlock returns the host copy of the last block written to Uniform.
func (m *Mesh) UniformBlock() MeshUniform {
	return m.block
}

// AddPrimitive appends p and grows the mesh bounds.
//
// Parameters:
//   - p: the primitive to add
func (m *Mesh) AddPrimitive(p Primitive) {
	m.Primitives = append(m.Primitives, p)
	m.Bounds = m.Bounds.Merge(p.Bounds)
}

// IndexCount returns the total number of indices across all primitives.
func (m *Mesh) IndexCount() uint32 {
	var n uint32
	for _, p := range m.Primitives {
		n += p.IndexCount
	}
	return n
}
