package vulkan_backend

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

// buffer is a VkBuffer with its dedicated allocation.
type buffer struct {
	handle vk.Buffer
	memory vk.DeviceMemory
	size   vk.DeviceSize
}

func (d *Device) createBuffer(size vk.DeviceSize, usage vk.BufferUsageFlagBits, properties vk.MemoryPropertyFlagBits) (buffer, error) {
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if res := vk.CreateBuffer(d.device, &bufferInfo, nil, &handle); res != vk.Success {
		return buffer{}, fmt.Errorf("create buffer: %w", vk.Error(res))
	}

	var memReq vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.device, handle, &memReq)
	memReq.Deref()

	typeIndex, err := d.findMemoryType(memReq.MemoryTypeBits, properties)
	if err != nil {
		vk.DestroyBuffer(d.device, handle, nil)
		return buffer{}, fmt.Errorf("buffer memory: %w", err)
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReq.Size,
		MemoryTypeIndex: typeIndex,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(d.device, &allocInfo, nil, &memory); res != vk.Success {
		vk.DestroyBuffer(d.device, handle, nil)
		return buffer{}, fmt.Errorf("allocate buffer memory: %w", vk.Error(res))
	}
	if res := vk.BindBufferMemory(d.device, handle, memory, 0); res != vk.Success {
		vk.DestroyBuffer(d.device, handle, nil)
		vk.FreeMemory(d.device, memory, nil)
		return buffer{}, fmt.Errorf("bind buffer memory: %w", vk.Error(res))
	}
	return buffer{handle: handle, memory: memory, size: size}, nil
}

func (d *Device) destroyBuffer(b *buffer) {
	if b.handle == vk.Buffer(vk.NullHandle) {
		return
	}
	vk.DestroyBuffer(d.device, b.handle, nil)
	vk.FreeMemory(d.device, b.memory, nil)
	*b = buffer{}
}

// createStaging creates a host-visible transfer source holding a copy of data.
func (d *Device) createStaging(data []byte) (buffer, error) {
	staging, err := d.createBuffer(vk.DeviceSize(len(data)), vk.BufferUsageTransferSrcBit,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		return buffer{}, fmt.Errorf("staging buffer: %w", err)
	}

	var mapped unsafe.Pointer
	if res := vk.MapMemory(d.device, staging.memory, 0, staging.size, 0, &mapped); res != vk.Success {
		d.destroyBuffer(&staging)
		return buffer{}, fmt.Errorf("map staging buffer: %w", vk.Error(res))
	}
	copy(unsafe.Slice((*byte)(mapped), len(data)), data)
	vk.UnmapMemory(d.device, staging.memory)
	return staging, nil
}

// Geometry is the scene-wide vertex and index buffer pair in device-local memory.
type Geometry struct {
	dev      *Device
	vertices buffer
	indices  buffer
}

var _ renderer.Geometry = &Geometry{}

func (d *Device) CreateGeometry(label string, vertexData, indexData []byte) (renderer.Geometry, error) {
	if len(vertexData) == 0 {
		return nil, fmt.Errorf("%s: %w", label, renderer.ErrEmptyGeometry)
	}

	g := &Geometry{dev: d}
	vertexStaging, err := d.createStaging(vertexData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	defer d.destroyBuffer(&vertexStaging)

	g.vertices, err = d.createBuffer(vertexStaging.size, vk.BufferUsageVertexBufferBit|vk.BufferUsageTransferDstBit, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		return nil, fmt.Errorf("%s: vertex buffer: %w", label, err)
	}

	var indexStaging buffer
	if len(indexData) > 0 {
		indexStaging, err = d.createStaging(indexData)
		if err != nil {
			g.Destroy()
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		defer d.destroyBuffer(&indexStaging)

		g.indices, err = d.createBuffer(indexStaging.size, vk.BufferUsageIndexBufferBit|vk.BufferUsageTransferDstBit, vk.MemoryPropertyDeviceLocalBit)
		if err != nil {
			g.Destroy()
			return nil, fmt.Errorf("%s: index buffer: %w", label, err)
		}
	}

	cb, err := d.beginOneTime()
	if err != nil {
		g.Destroy()
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	vk.CmdCopyBuffer(cb, vertexStaging.handle, g.vertices.handle, 1, []vk.BufferCopy{{Size: vertexStaging.size}})
	if g.indices.size > 0 {
		vk.CmdCopyBuffer(cb, indexStaging.handle, g.indices.handle, 1, []vk.BufferCopy{{Size: indexStaging.size}})
	}
	if err := d.submitAndWait(cb); err != nil {
		g.Destroy()
		return nil, fmt.Errorf("%s: upload geometry: %w", label, err)
	}

	d.log.Debug("geometry uploaded",
		zap.String("label", label),
		zap.Int("vertex_bytes", len(vertexData)),
		zap.Int("index_bytes", len(indexData)),
	)
	return g, nil
}

func (g *Geometry) VertexBytes() uint64 { return uint64(g.vertices.size) }
func (g *Geometry) IndexBytes() uint64  { return uint64(g.indices.size) }

func (g *Geometry) Destroy() {
	g.dev.destroyBuffer(&g.vertices)
	g.dev.destroyBuffer(&g.indices)
}

// UniformBuffer is a host-visible, host-coherent uniform buffer mapped for its whole lifetime.
type UniformBuffer struct {
	dev    *Device
	buf    buffer
	mapped []byte
}

var _ renderer.UniformBuffer = &UniformBuffer{}

func (d *Device) CreateUniformBuffer(label string, size uint64) (renderer.UniformBuffer, error) {
	buf, err := d.createBuffer(vk.DeviceSize(size), vk.BufferUsageUniformBufferBit,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	var mapped unsafe.Pointer
	if res := vk.MapMemory(d.device, buf.memory, 0, buf.size, 0, &mapped); res != vk.Success {
		d.destroyBuffer(&buf)
		return nil, fmt.Errorf("%s: map uniform buffer: %w", label, vk.Error(res))
	}
	return &UniformBuffer{dev: d, buf: buf, mapped: unsafe.Slice((*byte)(mapped), size)}, nil
}

func (b *UniformBuffer) Size() uint64 { return uint64(b.buf.size) }

func (b *UniformBuffer) Write(offset uint64, data []byte) error {
	if offset+uint64(len(data)) > uint64(len(b.mapped)) {
		return fmt.Errorf("%d bytes at %d in %d: %w", len(data), offset, len(b.mapped), renderer.ErrWriteOutOfRange)
	}
	copy(b.mapped[offset:], data)
	return nil
}

// DescriptorInfo returns the whole-buffer descriptor for a uniform binding.
func (b *UniformBuffer) DescriptorInfo() vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{Buffer: b.buf.handle, Offset: 0, Range: b.buf.size}
}

func (b *UniformBuffer) Destroy() {
	if b.mapped == nil {
		return
	}
	vk.UnmapMemory(b.dev.device, b.buf.memory)
	b.mapped = nil
	b.dev.destroyBuffer(&b.buf)
}
