package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/config"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

const epsilon = 1e-5

func near(a, b mgl32.Vec3) bool {
	return a.ApproxEqualThreshold(b, epsilon)
}

func newTestLoader(options ...LoaderBuilderOption) (Loader, *renderer.HeadlessDevice) {
	dev := renderer.NewHeadlessDevice()
	opts := append([]LoaderBuilderOption{WithDevice(dev), WithLogger(zap.NewNop())}, options...)
	return NewLoader(BackendTypeGLTF, opts...), dev
}

// hierarchyDoc is a parent at (1,0,0) with a child at (0,1,0) holding a red quad and an
// untextured, non-indexed triangle without a material.
func hierarchyDoc() *docBuilder {
	d := newDocBuilder()
	d.doc.Materials = []gltfMaterial{{
		Name:                 "red",
		PbrMetallicRoughness: &gltfPbrMetallicRoughness{BaseColorFactor: &[4]float32{1, 0, 0, 1}},
	}}
	quad := d.quad(ptr(0))
	tri := gltfPrimitive{Attributes: map[string]int{attrPosition: d.positions(0, 0, 0, 1, 0, 0, 0, 1, 0)}}
	mesh := d.mesh(quad, tri)

	child := d.node(gltfNode{Name: "child", Mesh: ptr(mesh), Translation: &[3]float32{0, 1, 0}})
	d.node(gltfNode{Name: "parent", Children: []int{child}, Translation: &[3]float32{1, 0, 0}})
	d.doc.Scenes = []gltfScene{{Name: "hierarchy", Nodes: []int{1}}}
	d.doc.Scene = ptr(0)
	return d
}

func loadDoc(t *testing.T, l Loader, name string, data []byte) *scene.Scene {
	t.Helper()
	s, err := l.LoadReader(name, bytes.NewReader(data), t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestLoadHierarchy(t *testing.T) {
	l, _ := newTestLoader()
	s := loadDoc(t, l, "hierarchy", hierarchyDoc().json(t))

	if s.Name != "hierarchy" {
		t.Errorf("expected the default scene name, got %q", s.Name)
	}
	if len(s.Roots) != 1 || s.Roots[0] != 1 {
		t.Errorf("expected roots [1], got %v", s.Roots)
	}
	if len(s.LinearNodes) != 2 || s.LinearNodes[0] != 0 || s.LinearNodes[1] != 1 {
		t.Errorf("expected children before parents [0 1], got %v", s.LinearNodes)
	}
	if s.Nodes[0].Parent != 1 || len(s.Nodes[1].Children) != 1 {
		t.Errorf("expected node 0 parented to node 1, got parent %d children %v", s.Nodes[0].Parent, s.Nodes[1].Children)
	}

	origin := s.WorldMatrix(0).Col(3).Vec3()
	if !near(origin, mgl32.Vec3{1, 1, 0}) {
		t.Errorf("expected the child origin at (1,1,0), got %v", origin)
	}
	mesh := s.Nodes[0].Mesh
	if mesh == nil {
		t.Fatal("expected the child to own a mesh")
	}
	if got := mesh.UniformBlock().Matrix.Col(3).Vec3(); !near(got, mgl32.Vec3{1, 1, 0}) {
		t.Errorf("expected the initial uniform at (1,1,0), got %v", got)
	}

	if !s.Bounds.Valid || !near(s.Bounds.Min, mgl32.Vec3{}) || !near(s.Bounds.Max, mgl32.Vec3{2, 2, 0}) {
		t.Errorf("expected bounds [0,0,0]..[2,2,0], got %v..%v", s.Bounds.Min, s.Bounds.Max)
	}
	if len(s.Diagnostics) != 0 {
		t.Errorf("expected no diagnostics, got %v", s.Diagnostics)
	}
}

func TestIndexCountsAndRanges(t *testing.T) {
	l, _ := newTestLoader()
	s := loadDoc(t, l, "hierarchy", hierarchyDoc().json(t))

	if s.VertexCount != 7 || s.IndexCount != 9 {
		t.Errorf("expected 7 vertices and 9 indices, got %d and %d", s.VertexCount, s.IndexCount)
	}
	g := s.Geometry.(*renderer.HeadlessGeometry)
	if len(g.VertexData) != 7*scene.VertexSize {
		t.Errorf("expected %d vertex bytes, got %d", 7*scene.VertexSize, len(g.VertexData))
	}

	var sum uint32
	for _, p := range s.Nodes[0].Mesh.Primitives {
		sum += p.IndexCount
		for k := p.FirstIndex; k < p.FirstIndex+p.IndexCount; k++ {
			idx := binary.LittleEndian.Uint32(g.IndexData[k*4:])
			if idx < p.FirstVertex || idx >= p.FirstVertex+p.VertexCount {
				t.Errorf("index %d = %d outside [%d, %d)", k, idx, p.FirstVertex, p.FirstVertex+p.VertexCount)
			}
		}
	}
	if sum != s.IndexCount {
		t.Errorf("expected primitive index counts to sum to %d, got %d", s.IndexCount, sum)
	}

	tri := s.Nodes[0].Mesh.Primitives[1]
	if tri.FirstVertex != 4 || tri.FirstIndex != 6 || tri.IndexCount != 3 {
		t.Errorf("expected the triangle at vertex 4 index 6 with 3 indices, got %+v", tri)
	}
}

func TestDefaultMaterialSentinel(t *testing.T) {
	l, _ := newTestLoader()
	s := loadDoc(t, l, "hierarchy", hierarchyDoc().json(t))

	if len(s.Materials) != 2 {
		t.Fatalf("expected 1 material plus the default, got %d", len(s.Materials))
	}
	if s.Materials[1].Name != "default" || s.Materials[1].Index != 1 {
		t.Errorf("expected the default material last, got %q at %d", s.Materials[1].Name, s.Materials[1].Index)
	}
	prims := s.Nodes[0].Mesh.Primitives
	if prims[0].Material != 0 || prims[1].Material != 1 {
		t.Errorf("expected materials [0 1], got [%d %d]", prims[0].Material, prims[1].Material)
	}
	if s.Materials[0].BaseColorFactor != (mgl32.Vec4{1, 0, 0, 1}) {
		t.Errorf("expected red, got %v", s.Materials[0].BaseColorFactor)
	}
}

func TestDrawAfterLoad(t *testing.T) {
	l, _ := newTestLoader()
	s := loadDoc(t, l, "hierarchy", hierarchyDoc().json(t))

	rec := &renderer.RecordingCommandRecorder{}
	s.Draw(rec, nil, 1, scene.DrawAll)
	draws := rec.Draws()
	if len(draws) != 2 || draws[0].IndexCount != 6 || draws[1].FirstIndex != 6 {
		t.Errorf("expected two draws of 6 and 3 indices, got %+v", draws)
	}
}

func TestUnsupportedIndexTypeRollsBack(t *testing.T) {
	d := newDocBuilder()
	badPos := d.positions(0, 0, 0, 1, 0, 0, 0, 1, 0)
	badIdx := d.accessor(floatBytes(0, 1, 2), gltfComponentTypeFloat, gltfAccessorTypeScalar, 3)
	bad := gltfPrimitive{Attributes: map[string]int{attrPosition: badPos}, Indices: ptr(badIdx)}
	ubyte := gltfPrimitive{
		Attributes: map[string]int{attrPosition: d.positions(0, 0, 0, 2, 0, 0, 0, 2, 0)},
		Indices:    ptr(d.accessor([]byte{2, 1, 0}, gltfComponentTypeUnsignedByte, gltfAccessorTypeScalar, 3)),
	}
	mesh := d.mesh(bad, d.quad(nil), ubyte)
	d.node(gltfNode{Mesh: ptr(mesh)})

	l, _ := newTestLoader()
	s := loadDoc(t, l, "indices", d.json(t))

	prims := s.Nodes[0].Mesh.Primitives
	if len(prims) != 2 {
		t.Fatalf("expected the bad primitive to be dropped, got %d primitives", len(prims))
	}
	if prims[0].FirstVertex != 0 || s.VertexCount != 7 {
		t.Errorf("expected rolled back vertices, got first vertex %d and %d vertices", prims[0].FirstVertex, s.VertexCount)
	}
	if n := diagnosticsContaining(s, scene.SeverityError, ErrUnsupportedIndexType.Error()); n != 1 {
		t.Errorf("expected 1 index type error, got %d: %v", n, s.Diagnostics)
	}

	g := s.Geometry.(*renderer.HeadlessGeometry)
	first := binary.LittleEndian.Uint32(g.IndexData[prims[1].FirstIndex*4:])
	if first != 6 {
		t.Errorf("expected ubyte index 2 offset by 4, got %d", first)
	}
}

func TestOutOfRangeIndexRollsBack(t *testing.T) {
	d := newDocBuilder()
	tri := gltfPrimitive{
		Attributes: map[string]int{attrPosition: d.positions(0, 0, 0, 1, 0, 0, 0, 1, 0)},
		Indices:    ptr(d.indices16(0, 1, 500)),
	}
	mesh := d.mesh(tri, d.quad(nil))
	d.node(gltfNode{Mesh: ptr(mesh)})

	l, _ := newTestLoader()
	s := loadDoc(t, l, "index-range", d.json(t))

	prims := s.Nodes[0].Mesh.Primitives
	if len(prims) != 1 {
		t.Fatalf("expected the triangle to be dropped, got %d primitives", len(prims))
	}
	if prims[0].FirstVertex != 0 || prims[0].FirstIndex != 0 || s.VertexCount != 4 {
		t.Errorf("expected the quad at the start of the arrays, got %+v with %d vertices", prims[0], s.VertexCount)
	}
	if n := diagnosticsContaining(s, scene.SeverityError, ErrIndexRange.Error()); n != 1 {
		t.Errorf("expected 1 index range error, got %d: %v", n, s.Diagnostics)
	}
}

func TestMalformedAccessorsAreReported(t *testing.T) {
	d := newDocBuilder()
	negative := d.quad(nil)
	d.doc.Accessors[negative.Attributes[attrPosition]].ByteOffset = -8
	huge := d.quad(nil)
	d.doc.Accessors[huge.Attributes[attrPosition]].Count = 1 << 40
	mesh := d.mesh(negative, huge, d.quad(nil))
	d.node(gltfNode{Mesh: ptr(mesh)})

	l, _ := newTestLoader()
	s := loadDoc(t, l, "malformed", d.json(t))

	if n := len(s.Nodes[0].Mesh.Primitives); n != 1 {
		t.Fatalf("expected only the valid quad, got %d primitives", n)
	}
	if n := diagnosticsContaining(s, scene.SeverityError, ErrAccessorRange.Error()); n != 2 {
		t.Errorf("expected 2 accessor range errors, got %d: %v", n, s.Diagnostics)
	}
}

func TestMissingPositionSkipsPrimitive(t *testing.T) {
	d := newDocBuilder()
	normals := d.accessor(floatBytes(0, 0, 1), gltfComponentTypeFloat, gltfAccessorTypeVec3, 1)
	mesh := d.mesh(gltfPrimitive{Attributes: map[string]int{attrNormal: normals}}, d.quad(nil))
	d.node(gltfNode{Mesh: ptr(mesh)})

	l, _ := newTestLoader()
	s := loadDoc(t, l, "no-position", d.json(t))

	if len(s.Nodes[0].Mesh.Primitives) != 1 {
		t.Errorf("expected 1 primitive, got %d", len(s.Nodes[0].Mesh.Primitives))
	}
	if n := diagnosticsContaining(s, scene.SeverityError, ErrMissingPosition.Error()); n != 1 {
		t.Errorf("expected 1 missing POSITION error, got %d", n)
	}
	if !s.HasErrors() {
		t.Error("expected HasErrors to report the skipped primitive")
	}
}

func TestVertexAttributes(t *testing.T) {
	d := newDocBuilder()
	pos := d.positions(0, 0, 0, 1, 0, 0, 0, 1, 0)
	colors := d.accessor([]byte{255, 0, 0, 0, 255, 0, 0, 0, 255}, gltfComponentTypeUnsignedByte, gltfAccessorTypeVec3, 3)
	d.doc.Accessors[colors].Normalized = true
	uvs := d.accessor(u16Bytes(0, 65535, 65535, 0, 0, 0), gltfComponentTypeUnsignedShort, gltfAccessorTypeVec2, 3)
	d.doc.Accessors[uvs].Normalized = true
	weights := d.accessor(floatBytes(0, 0, 0, 0, 0.5, 0.5, 0, 0, 1, 0, 0, 0), gltfComponentTypeFloat, gltfAccessorTypeVec4, 3)
	joints := d.accessor(u16Bytes(0, 0, 0, 0, 1, 2, 0, 0, 3, 0, 0, 0), gltfComponentTypeUnsignedShort, gltfAccessorTypeVec4, 3)
	mesh := d.mesh(gltfPrimitive{Attributes: map[string]int{
		attrPosition:  pos,
		attrColor0:    colors,
		attrTexCoord0: uvs,
		attrWeights0:  weights,
		attrJoints0:   joints,
	}})
	d.node(gltfNode{Mesh: ptr(mesh)})

	l, _ := newTestLoader()
	s := loadDoc(t, l, "attributes", d.json(t))
	data := s.Geometry.(*renderer.HeadlessGeometry).VertexData

	v0, v1 := vertexAt(t, data, 0), vertexAt(t, data, 1)
	if v0.Color != (mgl32.Vec4{1, 0, 0, 1}) {
		t.Errorf("expected a normalized red with alpha 1, got %v", v0.Color)
	}
	if v0.UV0 != (mgl32.Vec2{0, 1}) {
		t.Errorf("expected uv (0,1), got %v", v0.UV0)
	}
	if v0.Weight0 != (mgl32.Vec4{1, 0, 0, 0}) {
		t.Errorf("expected zero weights to become (1,0,0,0), got %v", v0.Weight0)
	}
	if v1.Weight0 != (mgl32.Vec4{0.5, 0.5, 0, 0}) || v1.Joint0 != (mgl32.Vec4{1, 2, 0, 0}) {
		t.Errorf("expected weights (0.5,0.5,0,0) on joints (1,2,0,0), got %v on %v", v1.Weight0, v1.Joint0)
	}
	if v1.Normal != (mgl32.Vec3{}) {
		t.Errorf("expected a missing NORMAL to stay zero, got %v", v1.Normal)
	}
}

func TestLoadGLB(t *testing.T) {
	l, _ := newTestLoader()
	s := loadDoc(t, l, "binary", hierarchyDoc().glb(t))

	if s.IndexCount != 9 || len(s.Materials) != 2 {
		t.Errorf("expected the same scene as the JSON form, got %d indices and %d materials", s.IndexCount, len(s.Materials))
	}
}

func TestLoadFromFileCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.gltf")
	if err := os.WriteFile(path, hierarchyDoc().json(t), 0o644); err != nil {
		t.Fatalf("write scene: %v", err)
	}

	l, dev := newTestLoader()
	first, err := l.LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := l.LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("expected the second load to hit the cache")
	}
	if first.Path != path {
		t.Errorf("expected path %q, got %q", path, first.Path)
	}
	if st := dev.Stats(); st.Geometries != 1 || st.UniformBuffers != 1 {
		t.Errorf("expected 1 geometry and 1 uniform buffer, got %+v", st)
	}
	if l.Get(path) != first || len(l.Scenes()) != 1 {
		t.Error("expected the scene in the cache")
	}

	if !l.Evict(path) {
		t.Fatal("expected Evict to remove the scene")
	}
	if l.Get(path) != nil || first.Geometry != nil {
		t.Error("expected the evicted scene to be released")
	}
	if l.Evict(path) {
		t.Error("expected a second Evict to report false")
	}
}

func TestLoadErrors(t *testing.T) {
	l, _ := newTestLoader()
	if _, err := l.LoadFromFile("model.obj"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := l.LoadFromFile(filepath.Join(t.TempDir(), "missing.gltf")); err == nil {
		t.Error("expected an error for a missing file")
	}
	if _, err := l.LoadReader("bad", bytes.NewReader([]byte(`{"asset":{"version":"1.0"}}`)), ""); !errors.Is(err, ErrInvalidGLTFVersion) {
		t.Errorf("expected ErrInvalidGLTFVersion, got %v", err)
	}

	noDevice := NewLoader(BackendTypeGLTF, WithLogger(zap.NewNop()))
	if _, err := noDevice.LoadReader("x", bytes.NewReader(nil), ""); !errors.Is(err, ErrNoDevice) {
		t.Errorf("expected ErrNoDevice, got %v", err)
	}
}

func TestLoadFlags(t *testing.T) {
	l, _ := newTestLoader(WithFlags(PreTransformVertices | FlipY | PreMultiplyVertexColors))
	s := loadDoc(t, l, "flags", hierarchyDoc().json(t))
	data := s.Geometry.(*renderer.HeadlessGeometry).VertexData

	// Quad vertex 0 is (-1,-1,0) under a world translation of (1,1,0), then flipped.
	v := vertexAt(t, data, 0)
	if !near(v.Pos, mgl32.Vec3{0, 0, 0}) {
		t.Errorf("expected (0,0,0), got %v", v.Pos)
	}
	v = vertexAt(t, data, 2)
	if !near(v.Pos, mgl32.Vec3{2, -2, 0}) {
		t.Errorf("expected (2,-2,0), got %v", v.Pos)
	}
	if v.Color != (mgl32.Vec4{1, 0, 0, 1}) {
		t.Errorf("expected the vertex color multiplied by red, got %v", v.Color)
	}
	if tri := vertexAt(t, data, 4); tri.Color != (mgl32.Vec4{1, 1, 1, 1}) {
		t.Errorf("expected the default material to keep white, got %v", tri.Color)
	}
	if l.Flags() != PreTransformVertices|FlipY|PreMultiplyVertexColors {
		t.Errorf("unexpected flags %v", l.Flags())
	}
}

func TestFlagsFromConfig(t *testing.T) {
	cfg := config.Default().Loader
	if f := FlagsFromConfig(cfg); f != 0 {
		t.Errorf("expected no flags by default, got %v", f)
	}
	cfg.FlipY = true
	cfg.DontLoadImages = true
	if f := FlagsFromConfig(cfg); f != FlipY|DontLoadImages {
		t.Errorf("expected flip-y|dont-load-images, got %v", f)
	}
	if s := (FlipY | DontLoadImages).String(); s != "flip-y|dont-load-images" {
		t.Errorf("unexpected string %q", s)
	}

	l := NewLoader(BackendTypeGLTF, WithLoaderConfig(cfg)).(*loader)
	if l.settings.flags != FlipY|DontLoadImages || l.settings.meshSet != cfg.MeshSetIndex || l.settings.imageWorkers != cfg.ImageWorkers {
		t.Errorf("expected the config to be applied, got %+v", l.settings)
	}
}

func TestMatrixAndTRSWarning(t *testing.T) {
	d := newDocBuilder()
	m := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 5, 1}
	d.node(gltfNode{Matrix: &m, Translation: &[3]float32{1, 0, 0}})

	l, _ := newTestLoader()
	s := loadDoc(t, l, "matrix", d.json(t))

	if got := s.WorldMatrix(0).Col(3).Vec3(); !near(got, mgl32.Vec3{1, 0, 5}) {
		t.Errorf("expected T * M to place the node at (1,0,5), got %v", got)
	}
	if n := diagnosticsContaining(s, scene.SeverityWarning, "both a matrix and TRS"); n != 1 {
		t.Errorf("expected 1 warning, got %d", n)
	}
	if s.Geometry != nil {
		t.Error("expected no geometry for a scene without meshes")
	}
}

func TestNoSceneListUsesParentlessNodes(t *testing.T) {
	d := newDocBuilder()
	d.node(gltfNode{Name: "a", Children: []int{2}})
	d.node(gltfNode{Name: "b"})
	d.node(gltfNode{Name: "c"})

	l, _ := newTestLoader()
	s := loadDoc(t, l, "loose", d.json(t))

	if len(s.Roots) != 2 || s.Roots[0] != 0 || s.Roots[1] != 1 {
		t.Errorf("expected roots [0 1], got %v", s.Roots)
	}
	if len(s.LinearNodes) != 3 {
		t.Errorf("expected 3 linear nodes, got %v", s.LinearNodes)
	}
	if s.Name != "loose" {
		t.Errorf("expected the reader name, got %q", s.Name)
	}
}

func TestTextures(t *testing.T) {
	build := func(t *testing.T) *docBuilder {
		d := newDocBuilder()
		d.doc.Images = []gltfImage{{URI: pngDataURI(t, 8, 4)}, {URI: "data:image/png;base64,AAAA"}}
		d.doc.Samplers = []gltfSampler{{MagFilter: ptr(gltfFilterNearest), WrapS: ptr(gltfWrapClampToEdge)}}
		d.doc.Textures = []gltfTexture{{Source: ptr(0), Sampler: ptr(0)}, {Source: ptr(1)}}
		d.doc.Materials = []gltfMaterial{{
			PbrMetallicRoughness: &gltfPbrMetallicRoughness{BaseColorTexture: &gltfTextureInfo{Index: 0, TexCoord: 1}},
			EmissiveTexture:      &gltfTextureInfo{Index: 1},
		}}
		d.node(gltfNode{Mesh: ptr(d.mesh(d.quad(ptr(0))))})
		return d
	}

	for _, workers := range []int{1, 4} {
		l, dev := newTestLoader(WithImageWorkers(workers))
		s := loadDoc(t, l, "textures", build(t).json(t))

		tex := s.Textures[0]
		if !tex.Loaded() || tex.Width != 8 || tex.Height != 4 || tex.MipLevels != 4 {
			t.Errorf("workers=%d: expected an 8x4 texture with 4 mips, got %+v", workers, tex)
		}
		if tex.Sampler.MagFilter != common.FilterModeNearest || tex.Sampler.MaxAnisotropy != 8 {
			t.Errorf("workers=%d: expected the document sampler with anisotropy 8, got %+v", workers, tex.Sampler)
		}
		if s.Textures[1].Loaded() {
			t.Errorf("workers=%d: expected the broken image to stay unloaded", workers)
		}
		mat := s.Materials[0]
		if mat.BaseColorTexture != 0 || mat.TexCoordSets.BaseColor != 1 || mat.EmissiveTexture != -1 {
			t.Errorf("workers=%d: expected color texture 0 on set 1 and no emissive, got %d/%d/%d",
				workers, mat.BaseColorTexture, mat.TexCoordSets.BaseColor, mat.EmissiveTexture)
		}
		if n := diagnosticsContaining(s, scene.SeverityError, "texture 1 not loaded"); n != 1 {
			t.Errorf("workers=%d: expected 1 decode error, got %d", workers, n)
		}
		if dev.Stats().Textures != 1 {
			t.Errorf("workers=%d: expected 1 texture upload, got %d", workers, dev.Stats().Textures)
		}
	}

	l, dev := newTestLoader(WithFlags(DontLoadImages))
	s := loadDoc(t, l, "no-images", build(t).json(t))
	if s.Textures[0].Loaded() || dev.Stats().Textures != 0 {
		t.Error("expected no uploads with DontLoadImages")
	}
	if s.Materials[0].BaseColorTexture != 0 {
		t.Errorf("expected the texture reference to survive, got %d", s.Materials[0].BaseColorTexture)
	}
}

func TestSkinsAndAnimation(t *testing.T) {
	d := newDocBuilder()
	ibm := mgl32.Translate3D(0, -1, 0)
	ibmAcc := d.accessor(floatBytes(ibm[:]...), gltfComponentTypeFloat, gltfAccessorTypeMat4, 1)
	input := d.accessor(floatBytes(0, 2), gltfComponentTypeFloat, gltfAccessorTypeScalar, 2)
	output := d.accessor(floatBytes(0, 1, 0, 4, 1, 0), gltfComponentTypeFloat, gltfAccessorTypeVec3, 2)

	mesh := d.mesh(d.quad(nil))
	joint := d.node(gltfNode{Name: "joint", Translation: &[3]float32{0, 1, 0}})
	d.node(gltfNode{Name: "body", Mesh: ptr(mesh), Skin: ptr(0)})
	d.node(gltfNode{Name: "root", Children: []int{0, 1}})
	d.doc.Skins = []gltfSkin{{Name: "rig", InverseBindMatrices: ptr(ibmAcc), Joints: []int{joint, 9}}}
	d.doc.Animations = []gltfAnimation{{
		Name:     "walk",
		Samplers: []gltfAnimSampler{{Input: input, Output: output}, {Input: input, Output: output, Interpolation: "BOUNCE"}},
		Channels: []gltfAnimChannel{
			{Sampler: 0, Target: gltfAnimTarget{Node: ptr(joint), Path: "translation"}},
			{Sampler: 0, Target: gltfAnimTarget{Node: ptr(joint), Path: "pointer"}},
		},
	}}
	d.doc.Scenes = []gltfScene{{Nodes: []int{2}}}

	l, _ := newTestLoader()
	s := loadDoc(t, l, "skinned", d.json(t))

	if len(s.Skins) != 1 || len(s.Skins[0].Joints) != 1 {
		t.Fatalf("expected 1 skin with the unresolvable joint dropped, got %+v", s.Skins)
	}
	if s.Nodes[1].Skin != 0 || !s.Nodes[1].IsSkinned() {
		t.Errorf("expected node 1 bound to skin 0, got %d", s.Nodes[1].Skin)
	}
	if n := diagnosticsContaining(s, scene.SeverityWarning, "node 9 is not in the scene"); n != 1 {
		t.Errorf("expected 1 joint warning, got %d", n)
	}

	ub := s.Nodes[1].Mesh.Uniform.(*renderer.HeadlessUniformBuffer)
	count := math.Float32frombits(binary.LittleEndian.Uint32(ub.Data[scene.JointCountOffset:]))
	if count != 1 {
		t.Errorf("expected a joint count of 1, got %v", count)
	}
	// The joint sits at its bind pose, so its skinning matrix is identity.
	if got := s.Nodes[1].Mesh.UniformBlock().JointMatrix[0]; !got.ApproxEqualThreshold(mgl32.Ident4(), epsilon) {
		t.Errorf("expected an identity joint matrix, got %v", got)
	}

	anim := s.Animations[0]
	if anim.Name != "walk" || anim.Start != 0 || anim.End != 2 || len(anim.Channels) != 1 {
		t.Errorf("expected walk over [0,2] with 1 channel, got %q [%v,%v] %d", anim.Name, anim.Start, anim.End, len(anim.Channels))
	}
	if anim.Samplers[1].Interpolation != scene.InterpolationLinear {
		t.Errorf("expected an unknown interpolation to fall back to LINEAR, got %v", anim.Samplers[1].Interpolation)
	}
	if n := diagnosticsContaining(s, scene.SeverityWarning, "BOUNCE"); n != 1 {
		t.Errorf("expected 1 interpolation warning, got %d", n)
	}

	if err := s.UpdateAnimation(s.AnimationByName("walk"), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Nodes[1].Mesh.UniformBlock().JointMatrix[0].Col(3).Vec3(); !near(got, mgl32.Vec3{2, 0, 0}) {
		t.Errorf("expected the joint to move by (2,0,0), got %v", got)
	}
}
