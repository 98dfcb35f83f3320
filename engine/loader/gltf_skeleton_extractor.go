package loader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

// gltfSkeletonExtractorImpl is the implementation of the gltfSkeletonExtractor interface.
type gltfSkeletonExtractorImpl struct {
	parser gltfParser
	report diagnosticFunc
}

// gltfSkeletonExtractor defines the interface for extracting skins from a parsed glTF document.
type gltfSkeletonExtractor interface {
	// ExtractSkin extracts a skin by index. Joints that do not name a loaded node are dropped
	// and reported, so the joint list may end up shorter than the inverse bind matrices.
	//
	// Parameters:
	//   - skinIndex: the index of the skin to extract
	//   - loaded: reports whether a node index was loaded into the scene
	//
	// Returns:
	//   - scene.Skin: the extracted skin
	//   - error: error if the index is out of range or the matrices cannot be read
	ExtractSkin(skinIndex int, loaded func(node int) bool) (scene.Skin, error)

	// ExtractAllSkins extracts all skins from the document. Skins whose matrices cannot be
	// read are reported and kept without inverse bind matrices.
	//
	// Parameters:
	//   - loaded: reports whether a node index was loaded into the scene
	//
	// Returns:
	//   - []scene.Skin: all skins in document order
	ExtractAllSkins(loaded func(node int) bool) []scene.Skin
}

var _ gltfSkeletonExtractor = &gltfSkeletonExtractorImpl{}

// newGLTFSkeletonExtractor creates a new skeleton extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//   - report: receives per-skin diagnostics
//
// Returns:
//   - gltfSkeletonExtractor: the skeleton extractor
func newGLTFSkeletonExtractor(parser gltfParser, report diagnosticFunc) gltfSkeletonExtractor {
	return &gltfSkeletonExtractorImpl{parser: parser, report: report}
}

func (e *gltfSkeletonExtractorImpl) ExtractSkin(skinIndex int, loaded func(node int) bool) (scene.Skin, error) {
	doc := e.parser.Document()
	if !common.InRange(skinIndex, len(doc.Skins)) {
		return scene.Skin{}, fmt.Errorf("skin index %d out of range", skinIndex)
	}

	gs := &doc.Skins[skinIndex]
	subject := fmt.Sprintf("skin %d", skinIndex)
	skin := scene.Skin{
		Name:         gs.Name,
		SkeletonRoot: common.IndexOr(gs.Skeleton, -1),
		Joints:       make([]int, 0, len(gs.Joints)),
	}
	if !common.InRange(skin.SkeletonRoot, len(doc.Nodes)) {
		skin.SkeletonRoot = -1
	}

	for i, node := range gs.Joints {
		if !common.InRange(node, len(doc.Nodes)) || !loaded(node) {
			e.report(scene.SeverityWarning, subject, "joint %d: node %d is not in the scene", i, node)
			continue
		}
		skin.Joints = append(skin.Joints, node)
	}

	if gs.InverseBindMatrices != nil {
		mats, err := e.parser.ReadMat4s(*gs.InverseBindMatrices)
		if err != nil {
			return skin, fmt.Errorf("failed to read inverse bind matrices: %w", err)
		}
		skin.InverseBindMatrices = make([]mgl32.Mat4, len(mats))
		for i, m := range mats {
			skin.InverseBindMatrices[i] = mgl32.Mat4(m)
		}
	}
	if len(skin.InverseBindMatrices) < len(skin.Joints) {
		e.report(scene.SeverityWarning, subject, "%d inverse bind matrices for %d joints, using identity for the rest",
			len(skin.InverseBindMatrices), len(skin.Joints))
	}
	if len(skin.Joints) > scene.MaxJoints {
		e.report(scene.SeverityWarning, subject, "%d joints, only the first %d are uploaded", len(skin.Joints), scene.MaxJoints)
	}

	return skin, nil
}

func (e *gltfSkeletonExtractorImpl) ExtractAllSkins(loaded func(node int) bool) []scene.Skin {
	doc := e.parser.Document()
	result := make([]scene.Skin, 0, len(doc.Skins))
	for i := range doc.Skins {
		skin, err := e.ExtractSkin(i, loaded)
		if err != nil {
			e.report(scene.SeverityError, fmt.Sprintf("skin %d", i), "%v", err)
		}
		result = append(result, skin)
	}
	return result
}
