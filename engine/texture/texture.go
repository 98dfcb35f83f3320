// Package texture turns decoded or container images into sampled, mip-mapped GPU textures.
//
// Uploads go through a renderer.Device, so the same code path serves the Vulkan, WebGPU and
// headless backends. Mip levels that are not stored in the source are generated by the backend.
package texture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

// LoadFromImage uploads an 8-bit image as an RGBA texture with a full mip chain.
// Three component images are repacked to RGBA first.
//
// Parameters:
//   - dev: the device to allocate on
//   - img: the decoded image
//   - sampler: the sampler configuration
//   - label: a debug label for the GPU objects
//
// Returns:
//   - renderer.Texture: the uploaded texture
//   - error: error if the image is malformed or the upload fails
func LoadFromImage(dev renderer.Device, img Image, sampler common.SamplerStagingData, label string) (renderer.Texture, error) {
	pixels, err := ToRGBA(img)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", label, err)
	}

	tex, err := dev.CreateTexture(label, common.TextureStagingData{
		Levels:    [][]byte{pixels},
		Width:     img.Width,
		Height:    img.Height,
		MipLevels: common.MipLevelCount(img.Width, img.Height),
	}, sampler)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", label, err)
	}
	return tex, nil
}

// LoadFromFile loads a texture from disk. KTX containers are uploaded level by level as stored;
// every other file is decoded and uploaded with a generated mip chain.
//
// Parameters:
//   - dev: the device to allocate on
//   - path: the image or .ktx file
//   - sampler: the sampler configuration
//
// Returns:
//   - renderer.Texture: the uploaded texture
//   - error: error if the file cannot be read, parsed or uploaded
func LoadFromFile(dev renderer.Device, path string, sampler common.SamplerStagingData) (renderer.Texture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read texture: %w", err)
	}
	label := filepath.Base(path)

	if strings.EqualFold(filepath.Ext(path), ".ktx") {
		ktx, err := ParseKTX(data)
		if err != nil {
			return nil, fmt.Errorf("texture %q: %w", label, err)
		}
		tex, err := dev.CreateTexture(label, common.TextureStagingData{
			Levels:    ktx.Levels,
			Width:     ktx.Width,
			Height:    ktx.Height,
			MipLevels: ktx.MipLevels,
		}, sampler)
		if err != nil {
			return nil, fmt.Errorf("texture %q: %w", label, err)
		}
		return tex, nil
	}

	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", label, err)
	}
	return LoadFromImage(dev, img, sampler, label)
}
