package scene

import "github.com/go-gl/mathgl/mgl32"

// Node is one entry in the scene's node arena. Parent, child and skin references are
// indices into the owning Scene, -1 meaning none.
type Node struct {
	// Index is the glTF node index and the position in Scene.Nodes.
	Index int
	Name  string

	Parent   int
	Children []int

	// Mesh is owned by this node; nil for transform-only nodes.
	Mesh *Mesh
	// SkinIndex is the skin referenced by the source document.
	SkinIndex int
	// Skin is the resolved index into Scene.Skins, -1 until resolution succeeds.
	Skin int

	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
	Matrix      mgl32.Mat4

	// AABB is the mesh bounds in world space, set by Scene.Dimensions.
	AABB BoundingBox
	// BVH encloses AABB and the BVH of every descendant, set by Scene.Dimensions.
	BVH BoundingBox
}

// NewNode returns a detached node with an identity transform.
//
// Parameters:
//   - index: the node's position in the arena
//   - name: the node name
//
// Returns:
//   - Node: the node
func NewNode(index int, name string) Node {
	return Node{
		Index:     index,
		Name:      name,
		Parent:    -1,
		SkinIndex: -1,
		Skin:      -1,
		Rotation:  mgl32.QuatIdent(),
		Scale:     mgl32.Vec3{1, 1, 1},
		Matrix:    mgl32.Ident4(),
	}
}

// LocalMatrix returns T * R * S * Matrix.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	return mgl32.Translate3D(n.Translation[0], n.Translation[1], n.Translation[2]).
		Mul4(n.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2])).
		Mul4(n.Matrix)
}

// IsSkinned reports whether the node has a resolved skin and a mesh to deform.
func (n *Node) IsSkinned() bool {
	return n.Mesh != nil && n.Skin >= 0
}
