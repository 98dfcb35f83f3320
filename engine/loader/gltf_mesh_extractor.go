package loader

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

// ErrMissingPosition is recorded for primitives without a POSITION attribute.
var ErrMissingPosition = errors.New("primitive has no POSITION attribute")

// ErrIndexRange is recorded for primitives with an index past their own vertices.
var ErrIndexRange = errors.New("index out of primitive vertex range")

// Vertex attribute semantics read by the mesh extractor.
const (
	attrPosition  = "POSITION"
	attrNormal    = "NORMAL"
	attrTexCoord0 = "TEXCOORD_0"
	attrTexCoord1 = "TEXCOORD_1"
	attrColor0    = "COLOR_0"
	attrTangent   = "TANGENT"
	attrJoints0   = "JOINTS_0"
	attrWeights0  = "WEIGHTS_0"
)

// sceneGeometry is the scene-wide vertex and index arrays primitives are appended to.
type sceneGeometry struct {
	vertices []scene.Vertex
	indices  []uint32
}

// diagnosticFunc records a degraded condition on the scene being built.
type diagnosticFunc func(sev scene.Severity, subject, format string, args ...any)

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser gltfParser
	report diagnosticFunc
	// defaultMaterial is the sentinel material index for primitives without a valid one.
	defaultMaterial int
}

// gltfMeshExtractor defines the interface for converting glTF meshes into scene meshes whose
// primitives are ranges of one shared vertex and index array.
type gltfMeshExtractor interface {
	// ExtractMesh appends every primitive of a mesh to geo and returns the mesh describing them.
	// Primitives that cannot be read are reported and skipped; their vertices are rolled back
	// so geo stays consistent.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh to extract
	//   - geo: the scene-wide arrays to append to
	//
	// Returns:
	//   - *scene.Mesh: the mesh, without a uniform buffer
	//   - error: error if meshIndex is out of range
	ExtractMesh(meshIndex int, geo *sceneGeometry) (*scene.Mesh, error)

	// PrimitiveSize returns the vertex and index counts a primitive contributes, used to size
	// the scene-wide arrays before extraction.
	//
	// Parameters:
	//   - prim: the primitive
	//
	// Returns:
	//   - int: the vertex count
	//   - int: the index count
	PrimitiveSize(prim *gltfPrimitive) (int, int)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a new mesh extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//   - report: receives per-primitive diagnostics
//
// Returns:
//   - gltfMeshExtractor: the mesh extractor
func newGLTFMeshExtractor(parser gltfParser, report diagnosticFunc) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{
		parser:          parser,
		report:          report,
		defaultMaterial: len(parser.Document().Materials),
	}
}

func (e *gltfMeshExtractorImpl) PrimitiveSize(prim *gltfPrimitive) (int, int) {
	doc := e.parser.Document()
	pos, ok := prim.Attributes[attrPosition]
	if !ok {
		return 0, 0
	}
	vertexCount := readableCount(doc, pos)
	indexCount := vertexCount
	if prim.Indices != nil {
		indexCount = readableCount(doc, *prim.Indices)
	}
	return vertexCount, indexCount
}

func (e *gltfMeshExtractorImpl) ExtractMesh(meshIndex int, geo *sceneGeometry) (*scene.Mesh, error) {
	doc := e.parser.Document()
	if !common.InRange(meshIndex, len(doc.Meshes)) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	gm := &doc.Meshes[meshIndex]
	mesh := &scene.Mesh{Name: gm.Name, Index: meshIndex}

	for primIdx := range gm.Primitives {
		subject := fmt.Sprintf("mesh %d primitive %d", meshIndex, primIdx)
		vertexStart, indexStart := len(geo.vertices), len(geo.indices)

		prim, err := e.extractPrimitive(&gm.Primitives[primIdx], subject, geo)
		if err != nil {
			geo.vertices = geo.vertices[:vertexStart]
			geo.indices = geo.indices[:indexStart]
			e.report(scene.SeverityError, subject, "primitive skipped: %v", err)
			continue
		}
		mesh.AddPrimitive(prim)
	}

	return mesh, nil
}

// extractPrimitive appends one primitive's vertices and indices to geo.
func (e *gltfMeshExtractorImpl) extractPrimitive(gp *gltfPrimitive, subject string, geo *sceneGeometry) (scene.Primitive, error) {
	// Check for triangle mode (default is TRIANGLES)
	if gp.Mode != nil && *gp.Mode != gltfPrimitiveModeTriangles {
		return scene.Primitive{}, fmt.Errorf("unsupported primitive mode %d (only triangles supported)", *gp.Mode)
	}

	posAccessor, ok := gp.Attributes[attrPosition]
	if !ok {
		return scene.Primitive{}, ErrMissingPosition
	}
	positions, comps, err := e.parser.ReadFloats(posAccessor, false)
	if err != nil {
		return scene.Primitive{}, fmt.Errorf("failed to read positions: %w", err)
	}
	if comps != 3 {
		return scene.Primitive{}, fmt.Errorf("POSITION has %d components: %w", comps, ErrUnsupportedComponentType)
	}

	vertexStart := uint32(len(geo.vertices))
	vertexCount := len(positions) / 3
	for i := 0; i < vertexCount; i++ {
		geo.vertices = append(geo.vertices, scene.Vertex{
			Pos:   mgl32.Vec3{positions[i*3], positions[i*3+1], positions[i*3+2]},
			Color: mgl32.Vec4{1, 1, 1, 1},
		})
	}
	verts := geo.vertices[vertexStart:]

	e.readAttribute(gp, attrNormal, subject, verts, func(v *scene.Vertex, c []float32) {
		v.Normal = mgl32.Vec3{c[0], c[1], c[2]}
	}, 3)
	e.readAttribute(gp, attrTexCoord0, subject, verts, func(v *scene.Vertex, c []float32) {
		v.UV0 = mgl32.Vec2{c[0], c[1]}
	}, 2)
	e.readAttribute(gp, attrTexCoord1, subject, verts, func(v *scene.Vertex, c []float32) {
		v.UV1 = mgl32.Vec2{c[0], c[1]}
	}, 2)
	e.readAttribute(gp, attrColor0, subject, verts, func(v *scene.Vertex, c []float32) {
		v.Color = mgl32.Vec4{c[0], c[1], c[2], 1}
		if len(c) == 4 {
			v.Color[3] = c[3]
		}
	}, 3, 4)
	// glTF TANGENT is VEC4: xyz = tangent direction, w = handedness.
	e.readAttribute(gp, attrTangent, subject, verts, func(v *scene.Vertex, c []float32) {
		v.Tangent = mgl32.Vec4{c[0], c[1], c[2], c[3]}
	}, 4)
	e.readAttribute(gp, attrWeights0, subject, verts, func(v *scene.Vertex, c []float32) {
		v.Weight0 = mgl32.Vec4{c[0], c[1], c[2], c[3]}
	}, 4)

	if jointsAccessor, ok := gp.Attributes[attrJoints0]; ok {
		joints, err := e.parser.ReadJoints(jointsAccessor)
		if err != nil {
			e.report(scene.SeverityError, subject, "JOINTS_0 ignored: %v", err)
		}
		for i := 0; i < len(joints) && i < vertexCount; i++ {
			j := joints[i]
			verts[i].Joint0 = mgl32.Vec4{float32(j[0]), float32(j[1]), float32(j[2]), float32(j[3])}
		}
	}

	for i := range verts {
		if verts[i].Weight0.Len() == 0 {
			verts[i].Weight0 = mgl32.Vec4{1, 0, 0, 0}
		}
	}

	indexStart := uint32(len(geo.indices))
	if gp.Indices != nil {
		indices, err := e.parser.ReadIndices(*gp.Indices)
		if err != nil {
			return scene.Primitive{}, fmt.Errorf("failed to read indices: %w", err)
		}
		for _, idx := range indices {
			if idx >= uint32(vertexCount) {
				return scene.Primitive{}, fmt.Errorf("index %d of %d vertices: %w", idx, vertexCount, ErrIndexRange)
			}
			geo.indices = append(geo.indices, idx+vertexStart)
		}
	} else {
		for i := 0; i < vertexCount; i++ {
			geo.indices = append(geo.indices, uint32(i)+vertexStart)
		}
	}

	materialIndex := e.defaultMaterial
	if gp.Material != nil {
		if common.InRange(*gp.Material, e.defaultMaterial) {
			materialIndex = *gp.Material
		} else {
			e.report(scene.SeverityWarning, subject, "material %d out of range, using the default material", *gp.Material)
		}
	}

	return scene.Primitive{
		FirstIndex:  indexStart,
		IndexCount:  uint32(len(geo.indices)) - indexStart,
		FirstVertex: vertexStart,
		VertexCount: uint32(vertexCount),
		Material:    materialIndex,
		Bounds:      e.primitiveBounds(posAccessor, verts),
	}, nil
}

// readAttribute reads an optional float attribute and hands each element to set. Integer
// components are normalized. Missing attributes are silent; unreadable ones are reported and
// leave the defaults in place.
func (e *gltfMeshExtractorImpl) readAttribute(gp *gltfPrimitive, name, subject string, verts []scene.Vertex, set func(v *scene.Vertex, c []float32), allowed ...int) {
	accessor, ok := gp.Attributes[name]
	if !ok {
		return
	}
	values, comps, err := e.parser.ReadFloats(accessor, true)
	if err != nil {
		e.report(scene.SeverityError, subject, "%s ignored: %v", name, err)
		return
	}
	valid := false
	for _, n := range allowed {
		valid = valid || comps == n
	}
	if !valid {
		e.report(scene.SeverityError, subject, "%s ignored: %d components", name, comps)
		return
	}

	for i := 0; i < len(verts) && (i+1)*comps <= len(values); i++ {
		set(&verts[i], values[i*comps:(i+1)*comps])
	}
}

// primitiveBounds trusts the POSITION accessor min/max and falls back to scanning the
// vertices when they are not declared.
func (e *gltfMeshExtractorImpl) primitiveBounds(posAccessor int, verts []scene.Vertex) scene.BoundingBox {
	acc := &e.parser.Document().Accessors[posAccessor]
	if len(acc.Min) >= 3 && len(acc.Max) >= 3 {
		return scene.NewBoundingBox(
			mgl32.Vec3{acc.Min[0], acc.Min[1], acc.Min[2]},
			mgl32.Vec3{acc.Max[0], acc.Max[1], acc.Max[2]},
		)
	}

	bounds := scene.BoundingBox{}
	for i := range verts {
		bounds = bounds.Merge(scene.NewBoundingBox(verts[i].Pos, verts[i].Pos))
	}
	return bounds
}
