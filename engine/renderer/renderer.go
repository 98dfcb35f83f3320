// Package renderer defines the backend-neutral GPU surface the scene loader uploads into and draws through.
//
// The loader never owns device handles. Callers build a Device from their own handles
// (see the vulkan_backend and wgpu_backend packages, or NewHeadlessDevice for CPU-only use)
// and pass it to the loader, which allocates buffers and textures through it.
package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

// BackendType identifies the graphics API behind a Device.
type BackendType int

const (
	// BackendTypeHeadless keeps every resource in host memory. Used by tools and tests.
	BackendTypeHeadless BackendType = iota
	// BackendTypeVulkan selects the vulkan-go backend.
	BackendTypeVulkan
	// BackendTypeWGPU selects the WebGPU backend.
	BackendTypeWGPU
)

// String returns the backend name.
func (b BackendType) String() string {
	switch b {
	case BackendTypeHeadless:
		return "headless"
	case BackendTypeVulkan:
		return "vulkan"
	case BackendTypeWGPU:
		return "wgpu"
	default:
		return "unknown"
	}
}

var (
	// ErrEmptyGeometry is returned when a geometry upload has no vertex data.
	ErrEmptyGeometry = errors.New("geometry has no vertex data")
	// ErrEmptyTexture is returned when a texture upload has no level 0 pixels or a zero extent.
	ErrEmptyTexture = errors.New("texture has no pixel data")
	// ErrTextureSize is returned when a staged level does not match its expected byte size.
	ErrTextureSize = errors.New("texture level size mismatch")
	// ErrWriteOutOfRange is returned when a uniform write exceeds the buffer.
	ErrWriteOutOfRange = errors.New("uniform write out of range")
)

// PipelineLayout is a backend pipeline layout handle (vk.PipelineLayout on Vulkan, unused on WebGPU).
type PipelineLayout any

// BindingSet is a backend resource binding handle (vk.DescriptorSet on Vulkan, *wgpu.BindGroup on WebGPU).
type BindingSet any

// Device is the allocation surface consumed by the loader.
//
// Every method is synchronous: uploads are complete (fence-waited on Vulkan) when they return.
// Implementations are not required to be safe for concurrent use.
type Device interface {
	// Backend returns the graphics API implemented by this device.
	//
	// Returns:
	//   - BackendType: the backend identifier
	Backend() BackendType

	// CreateGeometry uploads the scene-wide vertex and index arrays into device-local buffers.
	//
	// Parameters:
	//   - label: a debug label for the buffers
	//   - vertexData: the packed vertex array
	//   - indexData: the packed uint32 index array, may be empty
	//
	// Returns:
	//   - Geometry: the uploaded buffers
	//   - error: an error if allocation or the transfer fails
	CreateGeometry(label string, vertexData, indexData []byte) (Geometry, error)

	// CreateUniformBuffer allocates a host-visible, host-coherent uniform buffer that stays
	// writable for its whole lifetime.
	//
	// Parameters:
	//   - label: a debug label for the buffer
	//   - size: the buffer size in bytes
	//
	// Returns:
	//   - UniformBuffer: the mapped buffer
	//   - error: an error if allocation or mapping fails
	CreateUniformBuffer(label string, size uint64) (UniformBuffer, error)

	// CreateTexture uploads RGBA8 texel data into a sampled, mip-mapped image with its own sampler.
	// Levels missing from data are generated by the backend.
	//
	// Parameters:
	//   - label: a debug label for the image
	//   - data: the staged texel levels and mip count
	//   - sampler: the sampler configuration
	//
	// Returns:
	//   - Texture: the GPU texture
	//   - error: an error if the format cannot be blitted, or allocation or the transfer fails
	CreateTexture(label string, data common.TextureStagingData, sampler common.SamplerStagingData) (Texture, error)

	// WaitIdle blocks until the device has finished all submitted work.
	WaitIdle()
}

// Geometry holds the scene-wide vertex and index buffers.
type Geometry interface {
	// VertexBytes returns the size of the vertex buffer.
	VertexBytes() uint64
	// IndexBytes returns the size of the index buffer, zero when the scene has no indices.
	IndexBytes() uint64
	// Destroy releases the buffers.
	Destroy()
}

// UniformBuffer is a persistently writable uniform buffer. Writes are visible to the GPU
// without an explicit flush.
type UniformBuffer interface {
	// Size returns the buffer size in bytes.
	Size() uint64

	// Write copies data into the buffer at offset.
	//
	// Parameters:
	//   - offset: the byte offset to write at
	//   - data: the bytes to copy
	//
	// Returns:
	//   - error: ErrWriteOutOfRange if the write does not fit
	Write(offset uint64, data []byte) error

	// Destroy unmaps and releases the buffer.
	Destroy()
}

// Texture is a sampled GPU image owning its view, memory and sampler.
// It must never be copied by value into a second owner.
type Texture interface {
	// Width returns the width of mip level 0.
	Width() uint32
	// Height returns the height of mip level 0.
	Height() uint32
	// MipLevels returns the number of mip levels in the image.
	MipLevels() uint32

	// Descriptor returns the backend descriptor used to bind the texture:
	// vk.DescriptorImageInfo on Vulkan, wgpu_backend.TextureBinding on WebGPU, nil when headless.
	//
	// Returns:
	//   - any: the backend descriptor
	Descriptor() any

	// Destroy releases the image, view, memory and sampler.
	Destroy()
}

// CommandRecorder records the draw commands issued by a scene.
type CommandRecorder interface {
	// BindGeometry binds the scene-wide vertex buffer at slot 0 and the uint32 index buffer.
	//
	// Parameters:
	//   - g: the scene geometry
	BindGeometry(g Geometry)

	// BindSet binds one resource set at the given set index.
	//
	// Parameters:
	//   - layout: the pipeline layout the set is compatible with
	//   - set: the set (bind group) index
	//   - binding: the backend set handle, nil is ignored
	BindSet(layout PipelineLayout, set uint32, binding BindingSet)

	// DrawIndexed issues one indexed draw of a single instance.
	//
	// Parameters:
	//   - indexCount: the number of indices to draw
	//   - firstIndex: the first index in the bound index buffer
	DrawIndexed(indexCount, firstIndex uint32)
}
