package scene

import (
	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

// Texture is a scene texture and the GPU image backing it.
type Texture struct {
	Name string
	// Index is the glTF texture index.
	Index int
	// Source is the glTF image index, -1 when the texture has no image.
	Source int

	Width     uint32
	Height    uint32
	MipLevels uint32
	Sampler   common.SamplerStagingData

	// GPU owns the image, view, memory and sampler. Nil when images were not loaded or decoding failed.
	GPU renderer.Texture
}

// Loaded reports whether the texture has a GPU image.
func (t *Texture) Loaded() bool {
	return t.GPU != nil
}
