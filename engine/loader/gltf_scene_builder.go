package loader

import (
	"fmt"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

// supportedExtensions lists the glTF extensions the loader interprets.
var supportedExtensions = []string{extSpecularGlossiness, extEmissiveStrength, extUnlit}

// sceneBuilder turns one parsed document into a Scene. It is used once.
type sceneBuilder struct {
	parser   gltfParser
	doc      *gltfDocument
	settings loadSettings

	scene *scene.Scene
	geo   sceneGeometry
	// loaded marks the glTF nodes reached from the scene roots.
	loaded []bool

	meshes gltfMeshExtractor
}

func newSceneBuilder(parser gltfParser, settings loadSettings) *sceneBuilder {
	return &sceneBuilder{
		parser:   parser,
		doc:      parser.Document(),
		settings: settings,
	}
}

// build runs the two passes over the document. On error every GPU resource created so far is
// released.
func (b *sceneBuilder) build(name string) (*scene.Scene, error) {
	started := time.Now()
	log := b.settings.log.With(zap.String("scene", name))
	s := scene.NewScene(
		scene.WithName(name),
		scene.WithLogger(log),
		scene.WithMeshSetIndex(b.settings.meshSet),
		scene.WithScale(b.settings.scale),
	)
	b.scene = s
	s.ExtensionsUsed = b.doc.ExtensionsUsed
	for _, ext := range b.doc.ExtensionsRequired {
		if !slices.Contains(supportedExtensions, ext) {
			s.AddDiagnostic(scene.SeverityWarning, "document", "required extension %q is not supported", ext)
		}
	}

	report := s.AddDiagnostic
	b.meshes = newGLTFMeshExtractor(b.parser, report)

	roots := b.sceneRoots()

	// Pre-pass: size the scene-wide arrays.
	var vertexCount, indexCount int
	counted := make([]bool, len(b.doc.Nodes))
	for _, r := range roots {
		v, i := b.countNode(r, counted)
		vertexCount += v
		indexCount += i
	}
	b.geo.vertices = make([]scene.Vertex, 0, vertexCount)
	b.geo.indices = make([]uint32, 0, indexCount)

	textures := newGLTFTextureExtractor(b.parser, b.settings, report)
	samplers := textures.ExtractSamplers()
	texs, err := textures.ExtractTextures(samplers, !b.settings.flags.Has(DontLoadImages))
	if err != nil {
		return nil, err
	}
	s.Textures = texs

	failed := func(i int) bool {
		return !b.settings.flags.Has(DontLoadImages) && s.Textures[i].Source >= 0 && s.Textures[i].GPU == nil
	}
	s.Materials = newGLTFMaterialExtractor(b.parser, report, func(i int) bool { return !failed(i) }).ExtractAllMaterials()

	s.Nodes = make([]scene.Node, len(b.doc.Nodes))
	for i := range b.doc.Nodes {
		s.Nodes[i] = scene.NewNode(i, b.doc.Nodes[i].Name)
	}
	b.loaded = make([]bool, len(b.doc.Nodes))
	for _, r := range roots {
		if _, err := b.loadNode(-1, r); err != nil {
			s.Destroy()
			return nil, err
		}
	}

	s.Animations = newGLTFAnimationExtractor(b.parser, report).ExtractAllAnimations()
	s.Skins = newGLTFSkeletonExtractor(b.parser, report).ExtractAllSkins(func(node int) bool { return b.loaded[node] })
	b.resolveSkins()

	b.applyFlags()

	if err := b.uploadGeometry(name); err != nil {
		s.Destroy()
		return nil, err
	}
	if err := s.Update(); err != nil {
		s.Destroy()
		return nil, fmt.Errorf("initial update: %w", err)
	}
	s.Dimensions()

	log.Debug("scene built",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("roots", len(s.Roots)),
		zap.Int("materials", len(s.Materials)),
		zap.Int("textures", len(s.Textures)),
		zap.Stringer("flags", b.settings.flags),
	)
	return s, nil
}

// sceneRoots returns the root nodes of the default scene, scene 0 when no default is set, or
// every parentless node when the document has no scenes.
func (b *sceneBuilder) sceneRoots() []int {
	doc := b.doc
	var candidates []int
	if len(doc.Scenes) > 0 {
		idx := common.IndexOr(doc.Scene, 0)
		if !common.InRange(idx, len(doc.Scenes)) {
			b.scene.AddDiagnostic(scene.SeverityWarning, "document", "default scene %d out of range, using scene 0", idx)
			idx = 0
		}
		candidates = doc.Scenes[idx].Nodes
	} else {
		hasParent := make([]bool, len(doc.Nodes))
		for i := range doc.Nodes {
			for _, c := range doc.Nodes[i].Children {
				if common.InRange(c, len(doc.Nodes)) {
					hasParent[c] = true
				}
			}
		}
		for i := range doc.Nodes {
			if !hasParent[i] {
				candidates = append(candidates, i)
			}
		}
	}

	roots := make([]int, 0, len(candidates))
	for _, r := range candidates {
		if !common.InRange(r, len(doc.Nodes)) {
			b.scene.AddDiagnostic(scene.SeverityWarning, "document", "root node %d out of range", r)
			continue
		}
		roots = append(roots, r)
	}
	return roots
}

// countNode sums the vertex and index counts of node i and its descendants.
func (b *sceneBuilder) countNode(i int, counted []bool) (int, int) {
	if counted[i] {
		return 0, 0
	}
	counted[i] = true

	var vertices, indices int
	gn := &b.doc.Nodes[i]
	if gn.Mesh != nil && common.InRange(*gn.Mesh, len(b.doc.Meshes)) {
		for p := range b.doc.Meshes[*gn.Mesh].Primitives {
			v, idx := b.meshes.PrimitiveSize(&b.doc.Meshes[*gn.Mesh].Primitives[p])
			vertices += v
			indices += idx
		}
	}
	for _, c := range gn.Children {
		if common.InRange(c, len(b.doc.Nodes)) {
			v, idx := b.countNode(c, counted)
			vertices += v
			indices += idx
		}
	}
	return vertices, indices
}

// loadNode fills node i, loading its children before its own mesh. The node is linked to
// Roots when parent is -1 and always appended to LinearNodes. It reports false when the node
// was already reached through another parent.
func (b *sceneBuilder) loadNode(parent, i int) (bool, error) {
	s := b.scene
	subject := fmt.Sprintf("node %d", i)
	if b.loaded[i] {
		s.AddDiagnostic(scene.SeverityWarning, subject, "node is referenced more than once, extra reference ignored")
		return false, nil
	}
	b.loaded[i] = true

	gn := &b.doc.Nodes[i]
	n := &s.Nodes[i]
	n.Parent = parent
	gltfApplyNodeTransform(n, gn)
	if gn.Matrix != nil && (gn.Translation != nil || gn.Rotation != nil || gn.Scale != nil) {
		s.AddDiagnostic(scene.SeverityWarning, subject, "node declares both a matrix and TRS, both are applied")
	}

	for _, c := range gn.Children {
		if !common.InRange(c, len(b.doc.Nodes)) {
			s.AddDiagnostic(scene.SeverityWarning, subject, "child %d out of range", c)
			continue
		}
		ok, err := b.loadNode(i, c)
		if err != nil {
			return false, err
		}
		if ok {
			n.Children = append(n.Children, c)
		}
	}

	if gn.Mesh != nil {
		if err := b.loadMesh(n, *gn.Mesh, subject); err != nil {
			return false, err
		}
	}
	n.SkinIndex = common.IndexOr(gn.Skin, -1)

	if parent < 0 {
		s.Roots = append(s.Roots, i)
	}
	s.LinearNodes = append(s.LinearNodes, i)
	return true, nil
}

func (b *sceneBuilder) loadMesh(n *scene.Node, meshIndex int, subject string) error {
	mesh, err := b.meshes.ExtractMesh(meshIndex, &b.geo)
	if err != nil {
		b.scene.AddDiagnostic(scene.SeverityError, subject, "mesh ignored: %v", err)
		return nil
	}

	label := fmt.Sprintf("%s/%s/mesh %d", b.scene.Name, subject, meshIndex)
	mesh.Uniform, err = b.settings.device.CreateUniformBuffer(label, uint64(scene.MeshUniformSize))
	if err != nil {
		return fmt.Errorf("%s: create mesh uniform buffer: %w", subject, err)
	}
	n.Mesh = mesh
	return nil
}

// gltfApplyNodeTransform copies the node's TRS and matrix onto n. Absent values keep their
// identity defaults.
func gltfApplyNodeTransform(n *scene.Node, gn *gltfNode) {
	if gn.Translation != nil {
		n.Translation = mgl32.Vec3(*gn.Translation)
	}
	if gn.Rotation != nil {
		n.Rotation = common.QuatFromVec4(mgl32.Vec4(*gn.Rotation))
	}
	if gn.Scale != nil {
		n.Scale = mgl32.Vec3(*gn.Scale)
	}
	if gn.Matrix != nil {
		n.Matrix = mgl32.Mat4(*gn.Matrix)
	}
}

// resolveSkins binds every loaded node's document skin to the scene skin list.
func (b *sceneBuilder) resolveSkins() {
	s := b.scene
	for _, i := range s.LinearNodes {
		n := &s.Nodes[i]
		if n.SkinIndex < 0 {
			continue
		}
		if !common.InRange(n.SkinIndex, len(s.Skins)) {
			s.AddDiagnostic(scene.SeverityError, fmt.Sprintf("node %d", i), "skin %d out of range", n.SkinIndex)
			continue
		}
		n.Skin = n.SkinIndex
	}
}

// applyFlags runs the vertex post-processing selected by the load flags, primitive by primitive.
func (b *sceneBuilder) applyFlags() {
	flags := b.settings.flags
	if flags&(PreTransformVertices|PreMultiplyVertexColors|FlipY) == 0 {
		return
	}

	s := b.scene
	for _, i := range s.LinearNodes {
		mesh := s.Nodes[i].Mesh
		if mesh == nil {
			continue
		}
		world := s.WorldMatrix(i)
		for _, p := range mesh.Primitives {
			base := s.Materials[p.Material].BaseColorFactor
			verts := b.geo.vertices[p.FirstVertex : p.FirstVertex+p.VertexCount]
			for v := range verts {
				vert := &verts[v]
				if flags.Has(PreTransformVertices) {
					vert.Pos = common.TransformPoint(world, vert.Pos)
					vert.Normal = common.TransformDirection(world, vert.Normal)
					t := common.TransformDirection(world, vert.Tangent.Vec3())
					vert.Tangent = t.Vec4(vert.Tangent[3])
				}
				if flags.Has(FlipY) {
					vert.Pos[1] = -vert.Pos[1]
					vert.Normal[1] = -vert.Normal[1]
					vert.Tangent[1] = -vert.Tangent[1]
				}
				if flags.Has(PreMultiplyVertexColors) {
					vert.Color = mgl32.Vec4{
						vert.Color[0] * base[0],
						vert.Color[1] * base[1],
						vert.Color[2] * base[2],
						vert.Color[3] * base[3],
					}
				}
			}
		}
	}
}

func (b *sceneBuilder) uploadGeometry(name string) error {
	s := b.scene
	s.VertexCount = uint32(len(b.geo.vertices))
	s.IndexCount = uint32(len(b.geo.indices))
	if len(b.geo.vertices) == 0 {
		return nil
	}

	geometry, err := b.settings.device.CreateGeometry(name,
		common.SliceToBytes(b.geo.vertices),
		common.SliceToBytes(b.geo.indices),
	)
	if err != nil {
		return fmt.Errorf("upload geometry: %w", err)
	}
	s.Geometry = geometry
	return nil
}
