// Package scene holds a loaded glTF scene: the node arena, meshes, materials, textures, skins and
// animations, plus the per-frame update and draw logic that feeds a renderer.CommandRecorder.
//
// A Scene is built by the loader package and used from a single goroutine.
package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/logger"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

// DefaultMeshSetIndex is the set index mesh uniform sets are bound at unless configured otherwise.
const DefaultMeshSetIndex = 2

var (
	// ErrAnimationIndex is returned by UpdateAnimation for an index outside Animations.
	ErrAnimationIndex = errors.New("animation index out of range")
	// ErrNodeIndex is returned for a node index outside Nodes.
	ErrNodeIndex = errors.New("node index out of range")
	// ErrTextureIndex is returned for a texture index outside Textures.
	ErrTextureIndex = errors.New("texture index out of range")
)

// Scene is a loaded glTF scene. Nodes are addressed by index; Roots and LinearNodes list
// indices into Nodes.
type Scene struct {
	Name string
	// Path is the file the scene was loaded from, empty for reader loads.
	Path string

	Nodes []Node
	// Roots lists parentless nodes in load order.
	Roots []int
	// LinearNodes lists every loaded node, children before their parents.
	LinearNodes []int

	Materials  []Material
	Textures   []Texture
	Skins      []Skin
	Animations []Animation

	// Geometry holds the scene-wide vertex and index buffers.
	Geometry    renderer.Geometry
	VertexCount uint32
	IndexCount  uint32

	// Bounds and AABBMatrix are set by Dimensions. AABBMatrix maps the unit cube onto Bounds.
	Bounds     BoundingBox
	AABBMatrix mgl32.Mat4

	// Scale is the scale requested at load time. It is recorded only.
	Scale float32
	// ExtensionsUsed lists the document's extensionsUsed entries.
	ExtensionsUsed []string
	Diagnostics    []Diagnostic

	meshSet uint32
	log     *zap.Logger
}

// NewScene creates an empty scene.
//
// Parameters:
//   - options: optional configuration to apply
//
// Returns:
//   - *Scene: the scene
func NewScene(options ...SceneBuilderOption) *Scene {
	s := &Scene{
		AABBMatrix: mgl32.Ident4(),
		Scale:      1,
		meshSet:    DefaultMeshSetIndex,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("scene")
	}
	return s
}

// MeshSetIndex returns the set index Draw binds mesh uniform sets at.
func (s *Scene) MeshSetIndex() uint32 {
	return s.meshSet
}

// Logger returns the logger the scene reports through.
func (s *Scene) Logger() *zap.Logger {
	return s.log
}

// AddDiagnostic records a degraded condition and logs it.
//
// Parameters:
//   - sev: the severity
//   - subject: the offending element
//   - format: a fmt format for the message
//   - args: the format arguments
func (s *Scene) AddDiagnostic(sev Severity, subject, format string, args ...any) {
	d := Diagnostic{Severity: sev, Subject: subject, Message: fmt.Sprintf(format, args...)}
	s.Diagnostics = append(s.Diagnostics, d)
	switch sev {
	case SeverityError:
		s.log.Error(d.Message, zap.String("subject", subject))
	default:
		s.log.Warn(d.Message, zap.String("subject", subject))
	}
}

// HasErrors reports whether any error diagnostic was recorded.
func (s *Scene) HasErrors() bool {
	for _, d := range s.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// WorldMatrix returns the node's local matrix premultiplied by every ancestor's. It walks to
// the root on each call.
//
// Parameters:
//   - i: the node index
//
// Returns:
//   - mgl32.Mat4: the world matrix
func (s *Scene) WorldMatrix(i int) mgl32.Mat4 {
	m := s.Nodes[i].LocalMatrix()
	for p := s.Nodes[i].Parent; p >= 0; p = s.Nodes[p].Parent {
		m = s.Nodes[p].LocalMatrix().Mul4(m)
	}
	return m
}

// UpdateNode writes the uniform block of node i and recurses into its children.
// Unskinned meshes write only the model matrix. Skinned meshes write the full block with up to
// MaxJoints joint matrices of inverse(world) * jointWorld * inverseBind.
//
// Parameters:
//   - i: the node index
//
// Returns:
//   - error: ErrNodeIndex or a uniform write error
func (s *Scene) UpdateNode(i int) error {
	if !common.InRange(i, len(s.Nodes)) {
		return fmt.Errorf("%w: %d", ErrNodeIndex, i)
	}
	n := &s.Nodes[i]
	if n.Mesh != nil && n.Mesh.Uniform != nil {
		if err := s.writeMeshUniform(i); err != nil {
			return fmt.Errorf("node %d %q: %w", i, n.Name, err)
		}
	}
	for _, c := range n.Children {
		if err := s.UpdateNode(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scene) writeMeshUniform(i int) error {
	n := &s.Nodes[i]
	mesh := n.Mesh
	world := s.WorldMatrix(i)
	mesh.block.Matrix = world

	if !common.InRange(n.Skin, len(s.Skins)) {
		return mesh.Uniform.Write(0, common.StructToBytes(&mesh.block)[:MeshMatrixSize])
	}

	skin := &s.Skins[n.Skin]
	inverse := world.Inv()
	count := min(len(skin.Joints), MaxJoints)
	for j := 0; j < count; j++ {
		joint := s.WorldMatrix(skin.Joints[j]).Mul4(skin.InverseBindMatrix(j))
		mesh.block.JointMatrix[j] = inverse.Mul4(joint)
	}
	mesh.block.JointCount = float32(count)
	return mesh.Uniform.Write(0, common.StructToBytes(&mesh.block))
}

// Update rewrites the uniform block of every mesh node, starting from the roots.
//
// Returns:
//   - error: the first uniform write error
func (s *Scene) Update() error {
	for _, r := range s.Roots {
		if err := s.UpdateNode(r); err != nil {
			return err
		}
	}
	return nil
}

// Draw records the scene into rec. The geometry is bound once; each mesh binds its set at the
// scene's mesh set index and each primitive passing filter binds its material set at
// bindImageSet before one indexed draw.
//
// Parameters:
//   - rec: the command recorder
//   - layout: the pipeline layout the sets are bound against
//   - bindImageSet: the set index for material sets
//   - filter: the alpha modes to draw
func (s *Scene) Draw(rec renderer.CommandRecorder, layout renderer.PipelineLayout, bindImageSet uint32, filter DrawFilter) {
	if s.Geometry == nil {
		return
	}
	rec.BindGeometry(s.Geometry)
	for _, r := range s.Roots {
		s.drawNode(rec, layout, bindImageSet, filter, r)
	}
}

func (s *Scene) drawNode(rec renderer.CommandRecorder, layout renderer.PipelineLayout, bindImageSet uint32, filter DrawFilter, i int) {
	n := &s.Nodes[i]
	if n.Mesh != nil {
		rec.BindSet(layout, s.meshSet, n.Mesh.BindingSet)
		for _, p := range n.Mesh.Primitives {
			mat := &s.Materials[p.Material]
			if !filter.Includes(mat.AlphaMode) {
				continue
			}
			rec.BindSet(layout, bindImageSet, mat.BindingSet)
			rec.DrawIndexed(p.IndexCount, p.FirstIndex)
		}
	}
	for _, c := range n.Children {
		s.drawNode(rec, layout, bindImageSet, filter, c)
	}
}

// Dimensions computes every node's world AABB and BVH, then the scene Bounds and AABBMatrix.
// When no node has a mesh with valid bounds, Bounds is invalid and AABBMatrix is identity.
func (s *Scene) Dimensions() {
	for _, r := range s.Roots {
		s.computeBVH(r)
	}

	bounds := BoundingBox{}
	for _, i := range s.LinearNodes {
		bounds = bounds.Merge(s.Nodes[i].BVH)
	}
	s.Bounds = bounds
	s.AABBMatrix = mgl32.Ident4()
	if !bounds.Valid {
		return
	}

	ext := bounds.Extent()
	s.AABBMatrix = mgl32.Scale3D(ext[0], ext[1], ext[2])
	s.AABBMatrix.SetCol(3, bounds.Min.Vec4(1))
}

func (s *Scene) computeBVH(i int) BoundingBox {
	n := &s.Nodes[i]
	n.AABB = BoundingBox{}
	if n.Mesh != nil && n.Mesh.Bounds.Valid {
		n.AABB = n.Mesh.Bounds.AABB(s.WorldMatrix(i))
	}
	bvh := n.AABB
	for _, c := range n.Children {
		bvh = bvh.Merge(s.computeBVH(c))
	}
	s.Nodes[i].BVH = bvh
	return bvh
}

// TextureDescriptor returns the backend descriptor of texture i.
//
// Parameters:
//   - i: the texture index
//
// Returns:
//   - any: the descriptor, nil for textures without a GPU image
//   - error: ErrTextureIndex when i is out of range
func (s *Scene) TextureDescriptor(i int) (any, error) {
	if !common.InRange(i, len(s.Textures)) {
		return nil, fmt.Errorf("%w: %d of %d", ErrTextureIndex, i, len(s.Textures))
	}
	if s.Textures[i].GPU == nil {
		return nil, nil
	}
	return s.Textures[i].GPU.Descriptor(), nil
}

// MaterialTextures resolves the texture slots of a material to GPU textures in binding order.
// Empty slots and textures without a GPU image are nil; binding contexts substitute their
// fallback texture.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - [MaterialTextureSlots]renderer.Texture: the textures per slot
func (s *Scene) MaterialTextures(m *Material) [MaterialTextureSlots]renderer.Texture {
	var out [MaterialTextureSlots]renderer.Texture
	for slot, tex := range m.TextureSlots() {
		if common.InRange(tex, len(s.Textures)) && s.Textures[tex].GPU != nil {
			out[slot] = s.Textures[tex].GPU
		}
	}
	return out
}

// Meshes returns every mesh owned by a loaded node, in LinearNodes order.
func (s *Scene) Meshes() []*Mesh {
	var out []*Mesh
	for _, i := range s.LinearNodes {
		if m := s.Nodes[i].Mesh; m != nil {
			out = append(out, m)
		}
	}
	return out
}

// AnimationByName returns the index of the first animation called name, or -1.
func (s *Scene) AnimationByName(name string) int {
	for i := range s.Animations {
		if s.Animations[i].Name == name {
			return i
		}
	}
	return -1
}

// NodeByName returns the index of the first node called name, or -1.
func (s *Scene) NodeByName(name string) int {
	for i := range s.Nodes {
		if s.Nodes[i].Name == name {
			return i
		}
	}
	return -1
}

// Stats summarises a scene's contents.
type Stats struct {
	Nodes        int
	Meshes       int
	Primitives   int
	Materials    int
	Textures     int
	Skins        int
	Animations   int
	Vertices     uint32
	Indices      uint32
	GeometrySize uint64
	Diagnostics  int
}

// Stats counts the scene's contents.
func (s *Scene) Stats() Stats {
	st := Stats{
		Nodes:       len(s.Nodes),
		Materials:   len(s.Materials),
		Textures:    len(s.Textures),
		Skins:       len(s.Skins),
		Animations:  len(s.Animations),
		Vertices:    s.VertexCount,
		Indices:     s.IndexCount,
		Diagnostics: len(s.Diagnostics),
	}
	for i := range s.Nodes {
		if m := s.Nodes[i].Mesh; m != nil {
			st.Meshes++
			st.Primitives += len(m.Primitives)
		}
	}
	if s.Geometry != nil {
		st.GeometrySize = s.Geometry.VertexBytes() + s.Geometry.IndexBytes()
	}
	return st
}

// Destroy releases every GPU resource the scene owns. The scene must not be drawn afterwards.
func (s *Scene) Destroy() {
	for i := range s.Nodes {
		if m := s.Nodes[i].Mesh; m != nil && m.Uniform != nil {
			m.Uniform.Destroy()
			m.Uniform = nil
		}
	}
	for i := range s.Textures {
		if s.Textures[i].GPU != nil {
			s.Textures[i].GPU.Destroy()
			s.Textures[i].GPU = nil
		}
	}
	if s.Geometry != nil {
		s.Geometry.Destroy()
		s.Geometry = nil
	}
}
