package loader

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

// gltfDefaultAlphaCutoff is the glTF default cutoff for MASK materials that do not declare one.
const gltfDefaultAlphaCutoff = 0.5

// gltfMaterialExtractorImpl is the implementation of the gltfMaterialExtractor interface.
type gltfMaterialExtractorImpl struct {
	parser gltfParser
	report diagnosticFunc
	// textureUsable reports whether a texture index can be bound. Nil accepts every in-range index.
	textureUsable func(index int) bool
}

// gltfMaterialExtractor defines the interface for converting glTF materials, including the
// supported KHR material extensions, into scene materials.
type gltfMaterialExtractor interface {
	// ExtractMaterial extracts a single material by index.
	//
	// Parameters:
	//   - materialIndex: the index of the material in the document
	//
	// Returns:
	//   - scene.Material: the extracted material
	//   - error: error if the index is out of range
	ExtractMaterial(materialIndex int) (scene.Material, error)

	// ExtractAllMaterials extracts every material and appends the default material, so the
	// result always has len(doc.Materials)+1 entries.
	//
	// Returns:
	//   - []scene.Material: all materials followed by the default
	ExtractAllMaterials() []scene.Material
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

// newGLTFMaterialExtractor creates a new material extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//   - report: receives per-material diagnostics
//   - textureUsable: filters texture references, nil to accept all
//
// Returns:
//   - gltfMaterialExtractor: the material extractor
func newGLTFMaterialExtractor(parser gltfParser, report diagnosticFunc, textureUsable func(int) bool) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{parser: parser, report: report, textureUsable: textureUsable}
}

func (e *gltfMaterialExtractorImpl) ExtractMaterial(materialIndex int) (scene.Material, error) {
	doc := e.parser.Document()
	if !common.InRange(materialIndex, len(doc.Materials)) {
		return scene.Material{}, fmt.Errorf("material index %d out of range", materialIndex)
	}

	gm := &doc.Materials[materialIndex]
	subject := fmt.Sprintf("material %d", materialIndex)
	result := scene.DefaultMaterial(materialIndex, gm.Name)
	result.DoubleSided = gm.DoubleSided

	if pbr := gm.PbrMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			result.BaseColorFactor = mgl32.Vec4(*pbr.BaseColorFactor)
		}
		if pbr.MetallicFactor != nil {
			result.MetallicFactor = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			result.RoughnessFactor = *pbr.RoughnessFactor
		}
		result.BaseColorTexture, result.TexCoordSets.BaseColor = e.textureRef(pbr.BaseColorTexture, subject)
		result.MetallicRoughnessTexture, result.TexCoordSets.MetallicRoughness = e.textureRef(pbr.MetallicRoughnessTexture, subject)
	}
	if gm.NormalTexture != nil {
		result.NormalTexture, result.TexCoordSets.Normal = e.textureRef(&gm.NormalTexture.gltfTextureInfo, subject)
	}
	if gm.OcclusionTexture != nil {
		result.OcclusionTexture, result.TexCoordSets.Occlusion = e.textureRef(&gm.OcclusionTexture.gltfTextureInfo, subject)
	}
	result.EmissiveTexture, result.TexCoordSets.Emissive = e.textureRef(gm.EmissiveTexture, subject)

	if gm.AlphaMode != "" {
		mode, ok := scene.ParseAlphaMode(gm.AlphaMode)
		if !ok {
			e.report(scene.SeverityWarning, subject, "unknown alpha mode %q, using OPAQUE", gm.AlphaMode)
		}
		result.AlphaMode = mode
	}
	switch {
	case gm.AlphaCutoff != nil:
		result.AlphaCutoff = *gm.AlphaCutoff
	case result.AlphaMode == scene.AlphaModeMask:
		result.AlphaCutoff = gltfDefaultAlphaCutoff
	}

	var emissive mgl32.Vec3
	if gm.EmissiveFactor != nil {
		emissive = mgl32.Vec3(*gm.EmissiveFactor)
	}

	if raw, ok := gm.Extensions[extSpecularGlossiness]; ok {
		var sg gltfSpecularGlossiness
		if err := json.Unmarshal(raw, &sg); err != nil {
			e.report(scene.SeverityWarning, subject, "%s ignored: %v", extSpecularGlossiness, err)
		} else {
			e.applySpecularGlossiness(&result, &sg, subject)
		}
	}
	if raw, ok := gm.Extensions[extEmissiveStrength]; ok {
		var es gltfEmissiveStrength
		if err := json.Unmarshal(raw, &es); err != nil {
			e.report(scene.SeverityWarning, subject, "%s ignored: %v", extEmissiveStrength, err)
		} else if es.EmissiveStrength != nil {
			result.EmissiveStrength = *es.EmissiveStrength
		}
	}
	if _, ok := gm.Extensions[extUnlit]; ok {
		result.Unlit = true
	}

	result.EmissiveFactor = emissive.Mul(result.EmissiveStrength).Vec4(1)
	return result, nil
}

func (e *gltfMaterialExtractorImpl) applySpecularGlossiness(m *scene.Material, sg *gltfSpecularGlossiness, subject string) {
	m.Workflow = scene.WorkflowSpecularGlossiness
	if sg.DiffuseFactor != nil {
		m.Extension.DiffuseFactor = mgl32.Vec4(*sg.DiffuseFactor)
	}
	if sg.SpecularFactor != nil {
		m.Extension.SpecularFactor = mgl32.Vec3(*sg.SpecularFactor)
	}
	if sg.GlossinessFactor != nil {
		m.Extension.GlossinessFactor = *sg.GlossinessFactor
	}
	m.Extension.DiffuseTexture, m.TexCoordSets.BaseColor = e.textureRef(sg.DiffuseTexture, subject)
	m.Extension.SpecularGlossinessTexture, m.TexCoordSets.SpecularGlossiness = e.textureRef(sg.SpecularGlossinessTexture, subject)
}

func (e *gltfMaterialExtractorImpl) ExtractAllMaterials() []scene.Material {
	doc := e.parser.Document()
	result := make([]scene.Material, 0, len(doc.Materials)+1)
	for i := range doc.Materials {
		m, _ := e.ExtractMaterial(i)
		result = append(result, m)
	}
	return append(result, scene.DefaultMaterial(len(doc.Materials), "default"))
}

// textureRef resolves an optional texture reference to a texture index and TEXCOORD set.
// Unusable references fall back to no texture.
func (e *gltfMaterialExtractorImpl) textureRef(info *gltfTextureInfo, subject string) (int, uint8) {
	if info == nil {
		return -1, 0
	}
	if !common.InRange(info.Index, len(e.parser.Document().Textures)) {
		e.report(scene.SeverityWarning, subject, "texture %d out of range", info.Index)
		return -1, 0
	}
	if e.textureUsable != nil && !e.textureUsable(info.Index) {
		return -1, 0
	}
	if info.TexCoord > 1 {
		e.report(scene.SeverityWarning, subject, "TEXCOORD_%d is not loaded, using TEXCOORD_0", info.TexCoord)
		return info.Index, 0
	}
	return info.Index, uint8(info.TexCoord)
}

// gltfSamplerToStagingData converts a glTF sampler to SamplerStagingData.
// Any unset fields in the glTF sampler fall back to the glTF spec defaults (linear filtering, repeat wrapping).
// Unknown values fall back the same way and are reported.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-sampler
//
// Parameters:
//   - s: the glTF sampler to convert
//   - report: receives diagnostics for unknown values
//   - subject: the sampler being converted
//
// Returns:
//   - common.SamplerStagingData: the converted sampler staging data
func gltfSamplerToStagingData(s *gltfSampler, report diagnosticFunc, subject string) common.SamplerStagingData {
	result := common.DefaultSampler()

	if s.MagFilter != nil {
		switch *s.MagFilter {
		case gltfFilterNearest:
			result.MagFilter = common.FilterModeNearest
		case gltfFilterLinear:
			result.MagFilter = common.FilterModeLinear
		default:
			report(scene.SeverityWarning, subject, "unknown magFilter %d, using LINEAR", *s.MagFilter)
		}
	}

	if s.MinFilter != nil {
		switch *s.MinFilter {
		case gltfFilterNearest, gltfFilterNearestMipmapNearest, gltfFilterNearestMipmapLinear:
			result.MinFilter = common.FilterModeNearest
		case gltfFilterLinear, gltfFilterLinearMipmapNearest, gltfFilterLinearMipmapLinear:
			result.MinFilter = common.FilterModeLinear
		default:
			report(scene.SeverityWarning, subject, "unknown minFilter %d, using LINEAR", *s.MinFilter)
		}
		// The mipmap filter follows the minification filter variant.
		switch *s.MinFilter {
		case gltfFilterNearestMipmapNearest, gltfFilterLinearMipmapNearest, gltfFilterNearest, gltfFilterLinear:
			result.MipmapMode = common.MipmapModeNearest
		case gltfFilterNearestMipmapLinear, gltfFilterLinearMipmapLinear:
			result.MipmapMode = common.MipmapModeLinear
		}
	}

	if s.WrapS != nil {
		result.AddressModeU = gltfWrapToAddressMode(*s.WrapS, report, subject)
	}
	if s.WrapT != nil {
		result.AddressModeV = gltfWrapToAddressMode(*s.WrapT, report, subject)
	}
	result.AddressModeW = result.AddressModeV

	return result
}

// gltfWrapToAddressMode converts a glTF wrap mode constant to a common.AddressMode.
func gltfWrapToAddressMode(wrap int, report diagnosticFunc, subject string) common.AddressMode {
	switch wrap {
	case gltfWrapClampToEdge:
		return common.AddressModeClampToEdge
	case gltfWrapMirroredRepeat:
		return common.AddressModeMirroredRepeat
	case gltfWrapRepeat:
		return common.AddressModeRepeat
	default:
		report(scene.SeverityWarning, subject, "unknown wrap mode %d, using REPEAT", wrap)
		return common.AddressModeRepeat
	}
}
