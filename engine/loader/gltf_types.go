// gltf_types.go holds the glTF 2.0 JSON schema types the loader decodes into.
// Only the properties the loader reads are declared; encoding/json drops the rest.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package loader

import "encoding/json"

// gltfDocument is the root object of a glTF asset.
type gltfDocument struct {
	Asset gltfAsset `json:"asset"`

	// Scene is the default scene index.
	Scene  *int        `json:"scene,omitempty"`
	Scenes []gltfScene `json:"scenes,omitempty"`

	Nodes       []gltfNode       `json:"nodes,omitempty"`
	Meshes      []gltfMesh       `json:"meshes,omitempty"`
	Accessors   []gltfAccessor   `json:"accessors,omitempty"`
	BufferViews []gltfBufferView `json:"bufferViews,omitempty"`
	Buffers     []gltfBuffer     `json:"buffers,omitempty"`
	Materials   []gltfMaterial   `json:"materials,omitempty"`
	Textures    []gltfTexture    `json:"textures,omitempty"`
	Images      []gltfImage      `json:"images,omitempty"`
	Samplers    []gltfSampler    `json:"samplers,omitempty"`
	Skins       []gltfSkin       `json:"skins,omitempty"`
	Animations  []gltfAnimation  `json:"animations,omitempty"`

	ExtensionsUsed     []string `json:"extensionsUsed,omitempty"`
	ExtensionsRequired []string `json:"extensionsRequired,omitempty"`
}

type gltfAsset struct {
	// Version must be "2.0".
	Version    string `json:"version"`
	MinVersion string `json:"minVersion,omitempty"`
	Generator  string `json:"generator,omitempty"`
	Copyright  string `json:"copyright,omitempty"`
}

type gltfScene struct {
	Name string `json:"name,omitempty"`
	// Nodes lists the scene's root nodes.
	Nodes []int `json:"nodes,omitempty"`
}

// gltfNode is one node of the transform hierarchy.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-node
type gltfNode struct {
	Name     string `json:"name,omitempty"`
	Children []int  `json:"children,omitempty"`
	Mesh     *int   `json:"mesh,omitempty"`
	Skin     *int   `json:"skin,omitempty"`

	// Matrix is column-major.
	Matrix      *[16]float32 `json:"matrix,omitempty"`
	Translation *[3]float32  `json:"translation,omitempty"`
	// Rotation is a unit quaternion in x, y, z, w order.
	Rotation *[4]float32 `json:"rotation,omitempty"`
	Scale    *[3]float32 `json:"scale,omitempty"`
}

type gltfMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []gltfPrimitive `json:"primitives"`
}

// gltfPrimitive is one draw of a mesh.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-mesh-primitive
type gltfPrimitive struct {
	// Attributes maps a semantic (POSITION, NORMAL, TEXCOORD_0, ...) to an accessor index.
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices,omitempty"`
	Material   *int           `json:"material,omitempty"`
	// Mode defaults to TRIANGLES.
	Mode *int `json:"mode,omitempty"`
}

const gltfPrimitiveModeTriangles = 4

// gltfAccessor describes a typed view into a buffer view.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-accessor
type gltfAccessor struct {
	Name          string `json:"name,omitempty"`
	BufferView    *int   `json:"bufferView,omitempty"`
	ByteOffset    int    `json:"byteOffset,omitempty"`
	ComponentType int    `json:"componentType"`
	Normalized    bool   `json:"normalized,omitempty"`
	Count         int    `json:"count"`
	// Type is SCALAR, VEC2, VEC3, VEC4, MAT2, MAT3 or MAT4.
	Type string    `json:"type"`
	Max  []float32 `json:"max,omitempty"`
	Min  []float32 `json:"min,omitempty"`
	// Sparse is only checked for presence; sparse storage is not supported.
	Sparse *struct {
		Count int `json:"count"`
	} `json:"sparse,omitempty"`
}

const (
	gltfComponentTypeByte          = 5120
	gltfComponentTypeUnsignedByte  = 5121
	gltfComponentTypeShort         = 5122
	gltfComponentTypeUnsignedShort = 5123
	gltfComponentTypeUnsignedInt   = 5125
	gltfComponentTypeFloat         = 5126
)

const (
	gltfAccessorTypeScalar = "SCALAR"
	gltfAccessorTypeVec2   = "VEC2"
	gltfAccessorTypeVec3   = "VEC3"
	gltfAccessorTypeVec4   = "VEC4"
	gltfAccessorTypeMat2   = "MAT2"
	gltfAccessorTypeMat3   = "MAT3"
	gltfAccessorTypeMat4   = "MAT4"
)

type gltfBufferView struct {
	Name       string `json:"name,omitempty"`
	Buffer     int    `json:"buffer"`
	ByteOffset int    `json:"byteOffset,omitempty"`
	ByteLength int    `json:"byteLength"`
	// ByteStride is set only for interleaved vertex data.
	ByteStride *int `json:"byteStride,omitempty"`
}

type gltfBuffer struct {
	Name string `json:"name,omitempty"`
	// URI is a data URI or a path relative to the asset. Empty for the GLB BIN chunk.
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`

	// Data is filled in by the parser.
	Data []byte `json:"-"`
}

// gltfMaterial is a core glTF material plus the raw extension objects.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-material
type gltfMaterial struct {
	Name                 string                    `json:"name,omitempty"`
	PbrMetallicRoughness *gltfPbrMetallicRoughness `json:"pbrMetallicRoughness,omitempty"`
	NormalTexture        *gltfNormalTextureInfo    `json:"normalTexture,omitempty"`
	OcclusionTexture     *gltfOcclusionTextureInfo `json:"occlusionTexture,omitempty"`
	EmissiveTexture      *gltfTextureInfo          `json:"emissiveTexture,omitempty"`
	EmissiveFactor       *[3]float32               `json:"emissiveFactor,omitempty"`
	// AlphaMode is OPAQUE (default), MASK or BLEND.
	AlphaMode   string   `json:"alphaMode,omitempty"`
	AlphaCutoff *float32 `json:"alphaCutoff,omitempty"`
	DoubleSided bool     `json:"doubleSided,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
}

type gltfPbrMetallicRoughness struct {
	BaseColorFactor          *[4]float32      `json:"baseColorFactor,omitempty"`
	BaseColorTexture         *gltfTextureInfo `json:"baseColorTexture,omitempty"`
	MetallicFactor           *float32         `json:"metallicFactor,omitempty"`
	RoughnessFactor          *float32         `json:"roughnessFactor,omitempty"`
	MetallicRoughnessTexture *gltfTextureInfo `json:"metallicRoughnessTexture,omitempty"`
}

type gltfTextureInfo struct {
	Index int `json:"index"`
	// TexCoord is the TEXCOORD_n set, default 0.
	TexCoord int `json:"texCoord,omitempty"`
}

type gltfNormalTextureInfo struct {
	gltfTextureInfo
	Scale *float32 `json:"scale,omitempty"`
}

type gltfOcclusionTextureInfo struct {
	gltfTextureInfo
	Strength *float32 `json:"strength,omitempty"`
}

// Material extensions read from gltfMaterial.Extensions.
const (
	extSpecularGlossiness = "KHR_materials_pbrSpecularGlossiness"
	extEmissiveStrength   = "KHR_materials_emissive_strength"
	extUnlit              = "KHR_materials_unlit"
)

// gltfSpecularGlossiness is the KHR_materials_pbrSpecularGlossiness object.
type gltfSpecularGlossiness struct {
	DiffuseFactor             *[4]float32      `json:"diffuseFactor,omitempty"`
	DiffuseTexture            *gltfTextureInfo `json:"diffuseTexture,omitempty"`
	SpecularFactor            *[3]float32      `json:"specularFactor,omitempty"`
	GlossinessFactor          *float32         `json:"glossinessFactor,omitempty"`
	SpecularGlossinessTexture *gltfTextureInfo `json:"specularGlossinessTexture,omitempty"`
}

// gltfEmissiveStrength is the KHR_materials_emissive_strength object.
type gltfEmissiveStrength struct {
	EmissiveStrength *float32 `json:"emissiveStrength,omitempty"`
}

type gltfTexture struct {
	Name    string `json:"name,omitempty"`
	Sampler *int   `json:"sampler,omitempty"`
	Source  *int   `json:"source,omitempty"`
}

// gltfImage is referenced either by URI or by a buffer view with a MIME type.
type gltfImage struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	BufferView *int   `json:"bufferView,omitempty"`
}

// gltfSampler uses the OpenGL enum values for filters and wrap modes.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-sampler
type gltfSampler struct {
	Name      string `json:"name,omitempty"`
	MagFilter *int   `json:"magFilter,omitempty"`
	MinFilter *int   `json:"minFilter,omitempty"`
	WrapS     *int   `json:"wrapS,omitempty"`
	WrapT     *int   `json:"wrapT,omitempty"`
}

const (
	gltfFilterNearest              = 9728
	gltfFilterLinear               = 9729
	gltfFilterNearestMipmapNearest = 9984
	gltfFilterLinearMipmapNearest  = 9985
	gltfFilterNearestMipmapLinear  = 9986
	gltfFilterLinearMipmapLinear   = 9987
)

const (
	gltfWrapClampToEdge    = 33071
	gltfWrapMirroredRepeat = 33648
	gltfWrapRepeat         = 10497
)

type gltfSkin struct {
	Name                string `json:"name,omitempty"`
	InverseBindMatrices *int   `json:"inverseBindMatrices,omitempty"`
	Skeleton            *int   `json:"skeleton,omitempty"`
	Joints              []int  `json:"joints"`
}

type gltfAnimation struct {
	Name     string            `json:"name,omitempty"`
	Channels []gltfAnimChannel `json:"channels"`
	Samplers []gltfAnimSampler `json:"samplers"`
}

type gltfAnimChannel struct {
	Sampler int            `json:"sampler"`
	Target  gltfAnimTarget `json:"target"`
}

type gltfAnimTarget struct {
	Node *int `json:"node,omitempty"`
	// Path is translation, rotation, scale or weights.
	Path string `json:"path"`
}

type gltfAnimSampler struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	// Interpolation is LINEAR (default), STEP or CUBICSPLINE.
	Interpolation string `json:"interpolation,omitempty"`
}

// gltfGLBHeader is the 12 byte GLB file header.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
type gltfGLBHeader struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

type gltfGLBChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32
}

const (
	gltfGLBMagic     = 0x46546C67 // "glTF"
	gltfGLBVersion   = 2
	gltfGLBChunkJSON = 0x4E4F534A // "JSON"
	gltfGLBChunkBIN  = 0x004E4942 // "BIN\0"
)
