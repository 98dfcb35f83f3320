package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

// AlphaMode is a material's alpha rendering mode.
type AlphaMode int

const (
	// AlphaModeOpaque ignores alpha.
	AlphaModeOpaque AlphaMode = iota
	// AlphaModeMask discards fragments below the alpha cutoff.
	AlphaModeMask
	// AlphaModeBlend alpha blends over the existing image.
	AlphaModeBlend
)

// ParseAlphaMode maps a glTF alphaMode string to an AlphaMode. An empty string is OPAQUE.
//
// Parameters:
//   - s: the glTF alphaMode value
//
// Returns:
//   - AlphaMode: the mode, AlphaModeOpaque when unknown
//   - bool: false when s is not a known mode
func ParseAlphaMode(s string) (AlphaMode, bool) {
	switch s {
	case "", "OPAQUE":
		return AlphaModeOpaque, true
	case "MASK":
		return AlphaModeMask, true
	case "BLEND":
		return AlphaModeBlend, true
	default:
		return AlphaModeOpaque, false
	}
}

func (m AlphaMode) String() string {
	switch m {
	case AlphaModeOpaque:
		return "OPAQUE"
	case AlphaModeMask:
		return "MASK"
	case AlphaModeBlend:
		return "BLEND"
	default:
		return fmt.Sprintf("AlphaMode(%d)", int(m))
	}
}

// Filter returns the DrawFilter bit selecting this mode.
func (m AlphaMode) Filter() DrawFilter {
	switch m {
	case AlphaModeOpaque:
		return DrawOpaque
	case AlphaModeMask:
		return DrawAlphaMask
	case AlphaModeBlend:
		return DrawAlphaBlend
	default:
		panic(fmt.Sprintf("unhandled alpha mode %d", int(m)))
	}
}

// DrawFilter selects which alpha modes a Draw call renders.
type DrawFilter uint32

const (
	DrawOpaque DrawFilter = 1 << iota
	DrawAlphaMask
	DrawAlphaBlend

	DrawAll = DrawOpaque | DrawAlphaMask | DrawAlphaBlend
)

// Includes reports whether primitives with the given alpha mode pass the filter.
func (f DrawFilter) Includes(m AlphaMode) bool {
	return f&m.Filter() != 0
}

// Workflow is the PBR parameterisation of a material.
type Workflow int

const (
	WorkflowMetallicRoughness Workflow = iota
	WorkflowSpecularGlossiness
)

func (w Workflow) String() string {
	switch w {
	case WorkflowMetallicRoughness:
		return "metallic-roughness"
	case WorkflowSpecularGlossiness:
		return "specular-glossiness"
	default:
		return fmt.Sprintf("Workflow(%d)", int(w))
	}
}

// TexCoordSets holds the TEXCOORD set each texture slot samples.
type TexCoordSets struct {
	BaseColor          uint8
	MetallicRoughness  uint8
	SpecularGlossiness uint8
	Normal             uint8
	Occlusion          uint8
	Emissive           uint8
}

// MaterialExtension holds KHR_materials_pbrSpecularGlossiness data.
type MaterialExtension struct {
	SpecularGlossinessTexture int
	DiffuseTexture            int
	DiffuseFactor             mgl32.Vec4
	SpecularFactor            mgl32.Vec3
	GlossinessFactor          float32
}

// Material is a PBR material. Texture fields index Scene.Textures, -1 meaning none.
type Material struct {
	Name  string
	Index int

	AlphaMode   AlphaMode
	AlphaCutoff float32
	DoubleSided bool
	Unlit       bool

	BaseColorFactor  mgl32.Vec4
	MetallicFactor   float32
	RoughnessFactor  float32
	EmissiveFactor   mgl32.Vec4
	EmissiveStrength float32

	BaseColorTexture         int
	MetallicRoughnessTexture int
	NormalTexture            int
	OcclusionTexture         int
	EmissiveTexture          int
	TexCoordSets             TexCoordSets

	Extension MaterialExtension
	Workflow  Workflow

	// BindingSet is assigned by the caller's binding context.
	BindingSet renderer.BindingSet
}

// DefaultMaterial returns the glTF default material: white, fully metallic and rough, opaque,
// with no textures.
//
// Parameters:
//   - index: the material's position in Scene.Materials
//   - name: the material name
//
// Returns:
//   - Material: the material
func DefaultMaterial(index int, name string) Material {
	return Material{
		Name:                     name,
		Index:                    index,
		AlphaMode:                AlphaModeOpaque,
		AlphaCutoff:              1,
		BaseColorFactor:          mgl32.Vec4{1, 1, 1, 1},
		MetallicFactor:           1,
		RoughnessFactor:          1,
		EmissiveFactor:           mgl32.Vec4{0, 0, 0, 1},
		EmissiveStrength:         1,
		BaseColorTexture:         -1,
		MetallicRoughnessTexture: -1,
		NormalTexture:            -1,
		OcclusionTexture:         -1,
		EmissiveTexture:          -1,
		Extension: MaterialExtension{
			SpecularGlossinessTexture: -1,
			DiffuseTexture:            -1,
			DiffuseFactor:             mgl32.Vec4{1, 1, 1, 1},
			SpecularFactor:            mgl32.Vec3{1, 1, 1},
			GlossinessFactor:          1,
		},
	}
}

// MaterialTextureSlots is the number of texture bindings in a material set.
const MaterialTextureSlots = 5

// TextureSlots returns the five textures bound in a material set, in binding order:
// color, physical descriptor, normal, occlusion, emissive. The specular-glossiness workflow
// binds its diffuse and specular-glossiness textures in the first two slots.
//
// Returns:
//   - [MaterialTextureSlots]int: texture indices, -1 for an empty slot
func (m *Material) TextureSlots() [MaterialTextureSlots]int {
	color, physical := m.BaseColorTexture, m.MetallicRoughnessTexture
	if m.Workflow == WorkflowSpecularGlossiness {
		color, physical = m.Extension.DiffuseTexture, m.Extension.SpecularGlossinessTexture
	}
	return [MaterialTextureSlots]int{color, physical, m.NormalTexture, m.OcclusionTexture, m.EmissiveTexture}
}

// MaterialParams is the std140 uniform block describing a material to the shader.
// Texture set fields hold the TEXCOORD set of the slot, or -1 when the slot is empty.
type MaterialParams struct {
	BaseColorFactor              mgl32.Vec4
	EmissiveFactor               mgl32.Vec4
	DiffuseFactor                mgl32.Vec4
	SpecularFactor               mgl32.Vec4
	Workflow                     float32
	ColorTextureSet              int32
	PhysicalDescriptorTextureSet int32
	NormalTextureSet             int32
	OcclusionTextureSet          int32
	EmissiveTextureSet           int32
	MetallicFactor               float32
	RoughnessFactor              float32
	AlphaMask                    float32
	AlphaMaskCutoff              float32
	Unlit                        float32
	_                            float32
}

// ShaderParams packs the material into a MaterialParams block.
func (m *Material) ShaderParams() MaterialParams {
	set := func(tex int, coord uint8) int32 {
		if tex < 0 {
			return -1
		}
		return int32(coord)
	}

	p := MaterialParams{
		BaseColorFactor:     m.BaseColorFactor,
		EmissiveFactor:      m.EmissiveFactor,
		DiffuseFactor:       m.Extension.DiffuseFactor,
		SpecularFactor:      m.Extension.SpecularFactor.Vec4(1),
		NormalTextureSet:    set(m.NormalTexture, m.TexCoordSets.Normal),
		OcclusionTextureSet: set(m.OcclusionTexture, m.TexCoordSets.Occlusion),
		EmissiveTextureSet:  set(m.EmissiveTexture, m.TexCoordSets.Emissive),
		MetallicFactor:      m.MetallicFactor,
		RoughnessFactor:     m.RoughnessFactor,
		AlphaMaskCutoff:     m.AlphaCutoff,
	}

	switch m.Workflow {
	case WorkflowMetallicRoughness:
		p.Workflow = 0
		p.ColorTextureSet = set(m.BaseColorTexture, m.TexCoordSets.BaseColor)
		p.PhysicalDescriptorTextureSet = set(m.MetallicRoughnessTexture, m.TexCoordSets.MetallicRoughness)
	case WorkflowSpecularGlossiness:
		p.Workflow = 1
		p.ColorTextureSet = set(m.Extension.DiffuseTexture, m.TexCoordSets.BaseColor)
		p.PhysicalDescriptorTextureSet = set(m.Extension.SpecularGlossinessTexture, m.TexCoordSets.SpecularGlossiness)
	}
	if m.AlphaMode == AlphaModeMask {
		p.AlphaMask = 1
	}
	if m.Unlit {
		p.Unlit = 1
	}
	return p
}
