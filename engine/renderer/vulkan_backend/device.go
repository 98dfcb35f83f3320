// Package vulkan_backend implements renderer.Device on vulkan-go.
//
// The caller owns the instance, physical device, logical device and queue. The Device only
// creates a transient command pool on the given queue family and allocates buffers, images and
// samplers through it.
package vulkan_backend

import (
	"errors"
	"fmt"
	"math"

	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/engine/logger"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

var (
	// ErrFormatNotBlittable is returned when the texture format lacks the blit features needed
	// to generate its mip chain on the GPU.
	ErrFormatNotBlittable = errors.New("texture format does not support blit src and dst")
	// ErrNoMemoryType is returned when no device memory type satisfies an allocation.
	ErrNoMemoryType = errors.New("no suitable memory type")
)

// textureFormat is the format every staged texture is created with.
const textureFormat = vk.FormatR8g8b8a8Unorm

// defaultMaxAnisotropy is used when neither the sampler nor the device options set one.
const defaultMaxAnisotropy = 8

// Device allocates loader resources on caller-owned Vulkan handles.
type Device struct {
	physical vk.PhysicalDevice
	device   vk.Device
	queue    vk.Queue
	family   uint32

	pool vk.CommandPool

	memory        vk.PhysicalDeviceMemoryProperties
	anisotropy    bool
	maxAnisotropy float32
	deviceMax     float32

	log *zap.Logger
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
// The value is clamped to the device limit.
//
// Parameters:
//   - max: the anisotropy, ignored when not positive
//
// Returns:
//   - DeviceBuilderOption: the option
func WithMaxAnisotropy(max float32) DeviceBuilderOption {
	return func(d *Device) {
		if max > 0 {
			d.maxAnisotropy = max
		}
	}
}

var _ renderer.Device = &Device{}

// NewDevice wraps caller-owned Vulkan handles in a renderer.Device.
//
// Parameters:
//   - physical: the physical device, queried for memory types, format features and limits
//   - device: the logical device
//   - queue: a queue supporting transfer and graphics operations
//   - family: the family index of queue
//   - options: functional options
//
// Returns:
//   - *Device: the device
//   - error: an error if the command pool cannot be created
func NewDevice(physical vk.PhysicalDevice, device vk.Device, queue vk.Queue, family uint32, options ...DeviceBuilderOption) (*Device, error) {
	d := &Device{
		physical:      physical,
		device:        device,
		queue:         queue,
		family:        family,
		maxAnisotropy: defaultMaxAnisotropy,
		log:           logger.Named("vulkan"),
	}
	for _, opt := range options {
		opt(d)
	}

	vk.GetPhysicalDeviceMemoryProperties(physical, &d.memory)
	d.memory.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(physical, &features)
	features.Deref()
	d.anisotropy = features.SamplerAnisotropy == vk.True

	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(physical, &props)
	props.Deref()
	props.Limits.Deref()
	d.deviceMax = props.Limits.MaxSamplerAnisotropy

	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
	}
	if res := vk.CreateCommandPool(device, &poolInfo, nil, &d.pool); res != vk.Success {
		return nil, fmt.Errorf("create command pool: %w", vk.Error(res))
	}

	d.log.Debug("vulkan device ready",
		zap.Uint32("queue_family", family),
		zap.Bool("anisotropy", d.anisotropy),
		zap.Float32("max_anisotropy", d.deviceMax),
	)
	return d, nil
}

func (d *Device) Backend() renderer.BackendType {
	return renderer.BackendTypeVulkan
}

func (d *Device) WaitIdle() {
	vk.DeviceWaitIdle(d.device)
}

// Handle returns the logical device.
func (d *Device) Handle() vk.Device {
	return d.device
}

// Destroy releases the command pool. Resources created through the device must be destroyed
// before it.
func (d *Device) Destroy() {
	vk.DestroyCommandPool(d.device, d.pool, nil)
}

// findMemoryType returns the first memory type allowed by typeFilter that has every property.
func (d *Device) findMemoryType(typeFilter uint32, properties vk.MemoryPropertyFlagBits) (uint32, error) {
	return memoryTypeIndex(d.memory, typeFilter, vk.MemoryPropertyFlags(properties))
}

func memoryTypeIndex(memory vk.PhysicalDeviceMemoryProperties, typeFilter uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < memory.MemoryTypeCount; i++ {
		memoryType := memory.MemoryTypes[i]
		memoryType.Deref()
		if typeFilter&(1<<i) != 0 && memoryType.PropertyFlags&properties == properties {
			return i, nil
		}
	}
	return 0, fmt.Errorf("filter 0x%x properties 0x%x: %w", typeFilter, properties, ErrNoMemoryType)
}

// samplerAnisotropy returns the anisotropy for a sampler request, zero when anisotropic
// filtering is unavailable.
func (d *Device) samplerAnisotropy(requested float32) float32 {
	if !d.anisotropy {
		return 0
	}
	return clampAnisotropy(requested, d.maxAnisotropy, d.deviceMax)
}

// clampAnisotropy picks requested, or fallback when requested is zero, and clamps it to
// [1, deviceMax].
func clampAnisotropy(requested, fallback, deviceMax float32) float32 {
	v := requested
	if v <= 0 {
		v = fallback
	}
	if deviceMax > 0 {
		v = float32(math.Min(float64(v), float64(deviceMax)))
	}
	return max(v, 1)
}
