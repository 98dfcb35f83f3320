// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// TextureFormatRGBA8 is the only texel layout staged by the engine: 4 bytes per pixel, R8G8B8A8 unorm.
const TextureFormatRGBA8 = 4

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
// Levels[0] is the full resolution image. When len(Levels) < MipLevels the backend
// generates the remaining levels itself (blit chain on Vulkan, CPU box filter on WebGPU).
type TextureStagingData struct {
	// Levels holds tightly packed RGBA8 texel rows for each pre-baked mip level.
	Levels [][]byte
	// Width is the width of mip level 0 in pixels.
	Width uint32
	// Height is the height of mip level 0 in pixels.
	Height uint32
	// MipLevels is the total number of mip levels the GPU image is created with.
	MipLevels uint32
}

// Pixels returns the level 0 texel data, or nil when nothing is staged.
func (t TextureStagingData) Pixels() []byte {
	if len(t.Levels) == 0 {
		return nil
	}
	return t.Levels[0]
}

// GeneratesMips reports whether the backend has to produce levels that were not staged.
func (t TextureStagingData) GeneratesMips() bool {
	return uint32(len(t.Levels)) < t.MipLevels
}

// LevelExtent returns the width and height of the given mip level, clamped to 1.
//
// Parameters:
//   - level: the mip level index
//
// Returns:
//   - uint32: the level width in pixels
//   - uint32: the level height in pixels
func (t TextureStagingData) LevelExtent(level uint32) (uint32, uint32) {
	return max(t.Width>>level, 1), max(t.Height>>level, 1)
}

// FilterMode selects texel filtering for magnification and minification.
type FilterMode int

const (
	// FilterModeLinear blends neighbouring texels.
	FilterModeLinear FilterMode = iota
	// FilterModeNearest picks the closest texel.
	FilterModeNearest
)

// MipmapMode selects filtering between mip levels.
type MipmapMode int

const (
	// MipmapModeLinear blends the two closest mip levels.
	MipmapModeLinear MipmapMode = iota
	// MipmapModeNearest picks the closest mip level.
	MipmapModeNearest
)

// AddressMode selects how texture coordinates outside [0, 1] are resolved.
type AddressMode int

const (
	// AddressModeRepeat tiles the texture.
	AddressModeRepeat AddressMode = iota
	// AddressModeMirroredRepeat tiles the texture, mirroring every other tile.
	AddressModeMirroredRepeat
	// AddressModeClampToEdge clamps to the edge texels.
	AddressModeClampToEdge
	// AddressModeClampToBorder clamps to the border color.
	AddressModeClampToBorder
)

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// The zero value is a linear/repeat sampler using the backend's default anisotropy.
type SamplerStagingData struct {
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter FilterMode
	// MipmapMode specifies the filtering mode for mipmap level selection.
	MipmapMode MipmapMode
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW AddressMode
	// MaxAnisotropy caps anisotropic filtering. Zero selects the backend default; the backend clamps to the device limit.
	MaxAnisotropy float32
}

// DefaultSampler returns the sampler used for textures that do not reference one.
func DefaultSampler() SamplerStagingData {
	return SamplerStagingData{
		MagFilter:    FilterModeLinear,
		MinFilter:    FilterModeLinear,
		MipmapMode:   MipmapModeLinear,
		AddressModeU: AddressModeRepeat,
		AddressModeV: AddressModeRepeat,
		AddressModeW: AddressModeRepeat,
	}
}
