// Package wgpu_backend implements renderer.Device on cogentcore/webgpu.
//
// Uploads go through queue writes. WebGPU has no blit, so missing mip levels are generated on
// the CPU with common.GenerateMipChain and written level by level.
package wgpu_backend

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/logger"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

// TextureFormat is the format every staged texture is created with.
const TextureFormat = wgpu.TextureFormatRGBA8Unorm

const defaultMaxAnisotropy = 8

// Device allocates loader resources on a caller-owned WebGPU device and queue.
type Device struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	maxAnisotropy uint16
	log           *zap.Logger
}

// DeviceBuilderOption is a functional option used to configure a Device during construction.
type DeviceBuilderOption func(*Device)

// WithLogger sets the logger used for device diagnostics.
//
// Parameters:
//   - log: the logger
//
// Returns:
//   - DeviceBuilderOption: the option
func WithLogger(log *zap.Logger) DeviceBuilderOption {
	return func(d *Device) {
		if log != nil {
			d.log = log
		}
	}
}

// WithMaxAnisotropy sets the anisotropy used by samplers that do not request their own.
//
// Parameters:
//   - max: the anisotropy, ignored when zero
//
// Returns:
//   - DeviceBuilderOption: the option
func WithMaxAnisotropy(max uint16) DeviceBuilderOption {
	return func(d *Device) {
		if max > 0 {
			d.maxAnisotropy = max
		}
	}
}

var _ renderer.Device = &Device{}

// NewDevice wraps a WebGPU device and its queue in a renderer.Device.
//
// Parameters:
//   - device: the device
//   - queue: the device queue
//   - options: functional options
//
// Returns:
//   - *Device: the device
func NewDevice(device *wgpu.Device, queue *wgpu.Queue, options ...DeviceBuilderOption) *Device {
	d := &Device{
		device:        device,
		queue:         queue,
		maxAnisotropy: defaultMaxAnisotropy,
		log:           logger.Named("wgpu"),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *Device) Backend() renderer.BackendType {
	return renderer.BackendTypeWGPU
}

func (d *Device) WaitIdle() {
	d.device.Poll(true, nil)
}

// Handle returns the wrapped device.
func (d *Device) Handle() *wgpu.Device {
	return d.device
}

// Geometry is the scene-wide vertex and index buffer pair.
type Geometry struct {
	Vertices *wgpu.Buffer
	Indices  *wgpu.Buffer

	vertexBytes, indexBytes uint64
}

var _ renderer.Geometry = &Geometry{}

func (d *Device) CreateGeometry(label string, vertexData, indexData []byte) (renderer.Geometry, error) {
	if len(vertexData) == 0 {
		return nil, fmt.Errorf("%s: %w", label, renderer.ErrEmptyGeometry)
	}

	g := &Geometry{vertexBytes: uint64(len(vertexData)), indexBytes: uint64(len(indexData))}
	var err error
	g.Vertices, err = d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Vertex Buffer",
		Size:  g.vertexBytes,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: vertex buffer: %w", label, err)
	}
	d.queue.WriteBuffer(g.Vertices, 0, vertexData)

	if len(indexData) > 0 {
		g.Indices, err = d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label + " Index Buffer",
			Size:  g.indexBytes,
			Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			g.Destroy()
			return nil, fmt.Errorf("%s: index buffer: %w", label, err)
		}
		d.queue.WriteBuffer(g.Indices, 0, indexData)
	}

	d.log.Debug("geometry uploaded",
		zap.String("label", label),
		zap.Int("vertex_bytes", len(vertexData)),
		zap.Int("index_bytes", len(indexData)),
	)
	return g, nil
}

func (g *Geometry) VertexBytes() uint64 { return g.vertexBytes }
func (g *Geometry) IndexBytes() uint64  { return g.indexBytes }

func (g *Geometry) Destroy() {
	if g.Vertices != nil {
		g.Vertices.Release()
		g.Vertices = nil
	}
	if g.Indices != nil {
		g.Indices.Release()
		g.Indices = nil
	}
}

// UniformBuffer is a uniform buffer written through the device queue.
type UniformBuffer struct {
	queue  *wgpu.Queue
	Buffer *wgpu.Buffer
	size   uint64
}

var _ renderer.UniformBuffer = &UniformBuffer{}

func (d *Device) CreateUniformBuffer(label string, size uint64) (renderer.UniformBuffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Uniform Buffer",
		Size:  alignUp(size, 16),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return &UniformBuffer{queue: d.queue, Buffer: buf, size: size}, nil
}

func (b *UniformBuffer) Size() uint64 { return b.size }

func (b *UniformBuffer) Write(offset uint64, data []byte) error {
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("%d bytes at %d in %d: %w", len(data), offset, b.size, renderer.ErrWriteOutOfRange)
	}
	if len(data) == 0 {
		return nil
	}
	b.queue.WriteBuffer(b.Buffer, offset, data)
	return nil
}

func (b *UniformBuffer) Destroy() {
	if b.Buffer != nil {
		b.Buffer.Release()
		b.Buffer = nil
	}
}

// TextureBinding is the descriptor of a WebGPU texture: a view over every mip level and its
// sampler.
type TextureBinding struct {
	View    *wgpu.TextureView
	Sampler *wgpu.Sampler
}

// Texture is a sampled RGBA8 texture with its view and sampler.
type Texture struct {
	texture *wgpu.Texture
	binding TextureBinding

	width, height, mipLevels uint32
}

var _ renderer.Texture = &Texture{}

func (d *Device) CreateTexture(label string, data common.TextureStagingData, sampler common.SamplerStagingData) (renderer.Texture, error) {
	if err := renderer.ValidateStagingData(data); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label + " Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              data.Width,
			Height:             data.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        TextureFormat,
		MipLevelCount: data.MipLevels,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	t := &Texture{texture: tex, width: data.Width, height: data.Height, mipLevels: data.MipLevels}

	for level, texels := range completeMipChain(data) {
		w, h := data.LevelExtent(uint32(level))
		d.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: uint32(level),
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			texels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  w * common.TextureFormatRGBA8,
				RowsPerImage: h,
			},
			&wgpu.Extent3D{
				Width:              w,
				Height:             h,
				DepthOrArrayLayers: 1,
			},
		)
	}

	t.binding.View, err = tex.CreateView(nil)
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("%s: texture view: %w", label, err)
	}
	t.binding.Sampler, err = d.device.CreateSampler(d.samplerDescriptor(label, sampler, data.MipLevels))
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("%s: sampler: %w", label, err)
	}

	d.log.Debug("texture uploaded",
		zap.String("label", label),
		zap.Uint32("width", data.Width),
		zap.Uint32("height", data.Height),
		zap.Uint32("mip_levels", data.MipLevels),
		zap.Int("staged_levels", len(data.Levels)),
	)
	return t, nil
}

func (t *Texture) Width() uint32     { return t.width }
func (t *Texture) Height() uint32    { return t.height }
func (t *Texture) MipLevels() uint32 { return t.mipLevels }

// Descriptor returns the texture's TextureBinding.
func (t *Texture) Descriptor() any { return t.binding }

func (t *Texture) Destroy() {
	if t.binding.Sampler != nil {
		t.binding.Sampler.Release()
		t.binding.Sampler = nil
	}
	if t.binding.View != nil {
		t.binding.View.Release()
		t.binding.View = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// completeMipChain returns every level of the image, generating the levels below the last
// staged one with a box filter.
func completeMipChain(data common.TextureStagingData) [][]byte {
	if !data.GeneratesMips() {
		return data.Levels
	}
	last := uint32(len(data.Levels) - 1)
	w, h := data.LevelExtent(last)
	generated := common.GenerateMipChain(data.Levels[last], w, h, data.MipLevels-last)

	chain := make([][]byte, 0, data.MipLevels)
	chain = append(chain, data.Levels...)
	return append(chain, generated[1:]...)
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) / align * align
}
