package scene

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is the interleaved vertex layout shared by every mesh in a scene.
// All fields are float32 and the struct has no padding.
type Vertex struct {
	Pos     mgl32.Vec3
	Normal  mgl32.Vec3
	UV0     mgl32.Vec2
	UV1     mgl32.Vec2
	Color   mgl32.Vec4
	Joint0  mgl32.Vec4
	Weight0 mgl32.Vec4
	Tangent mgl32.Vec4
}

// VertexSize is the stride of Vertex in bytes.
const VertexSize = int(unsafe.Sizeof(Vertex{}))

// VertexAttribute describes one field of Vertex for building a backend vertex layout.
type VertexAttribute struct {
	// Name is the glTF attribute name the field is read from.
	Name string
	// Location is the shader input location.
	Location uint32
	// Offset is the byte offset inside Vertex.
	Offset uint32
	// Components is the number of float32 components.
	Components uint32
}

// VertexAttributes returns the attribute table for Vertex in shader location order.
//
// Returns:
//   - []VertexAttribute: one entry per Vertex field
func VertexAttributes() []VertexAttribute {
	var v Vertex
	return []VertexAttribute{
		{Name: "POSITION", Location: 0, Offset: uint32(unsafe.Offsetof(v.Pos)), Components: 3},
		{Name: "NORMAL", Location: 1, Offset: uint32(unsafe.Offsetof(v.Normal)), Components: 3},
		{Name: "TEXCOORD_0", Location: 2, Offset: uint32(unsafe.Offsetof(v.UV0)), Components: 2},
		{Name: "TEXCOORD_1", Location: 3, Offset: uint32(unsafe.Offsetof(v.UV1)), Components: 2},
		{Name: "COLOR_0", Location: 4, Offset: uint32(unsafe.Offsetof(v.Color)), Components: 4},
		{Name: "JOINTS_0", Location: 5, Offset: uint32(unsafe.Offsetof(v.Joint0)), Components: 4},
		{Name: "WEIGHTS_0", Location: 6, Offset: uint32(unsafe.Offsetof(v.Weight0)), Components: 4},
		{Name: "TANGENT", Location: 7, Offset: uint32(unsafe.Offsetof(v.Tangent)), Components: 4},
	}
}
