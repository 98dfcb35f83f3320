package wgpu_backend

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

func wgpuFilter(f common.FilterMode) wgpu.FilterMode {
	if f == common.FilterModeNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func wgpuMipmapFilter(m common.MipmapMode) wgpu.MipmapFilterMode {
	if m == common.MipmapModeNearest {
		return wgpu.MipmapFilterModeNearest
	}
	return wgpu.MipmapFilterModeLinear
}

// wgpuAddressMode maps an address mode. WebGPU has no border color, so clamp-to-border
// clamps to the edge.
func wgpuAddressMode(m common.AddressMode) wgpu.AddressMode {
	switch m {
	case common.AddressModeMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	case common.AddressModeClampToEdge, common.AddressModeClampToBorder:
		return wgpu.AddressModeClampToEdge
	default:
		return wgpu.AddressModeRepeat
	}
}

// samplerAnisotropy returns the sampler's anisotropy. WebGPU only allows values above one when
// every filter is linear.
func samplerAnisotropy(s common.SamplerStagingData, fallback uint16) uint16 {
	if s.MagFilter != common.FilterModeLinear || s.MinFilter != common.FilterModeLinear || s.MipmapMode != common.MipmapModeLinear {
		return 1
	}
	if s.MaxAnisotropy > 0 {
		return max(uint16(s.MaxAnisotropy), 1)
	}
	return max(fallback, 1)
}

func (d *Device) samplerDescriptor(label string, s common.SamplerStagingData, mipLevels uint32) *wgpu.SamplerDescriptor {
	return &wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  wgpuAddressMode(s.AddressModeU),
		AddressModeV:  wgpuAddressMode(s.AddressModeV),
		AddressModeW:  wgpuAddressMode(s.AddressModeW),
		MagFilter:     wgpuFilter(s.MagFilter),
		MinFilter:     wgpuFilter(s.MinFilter),
		MipmapFilter:  wgpuMipmapFilter(s.MipmapMode),
		LodMinClamp:   0,
		LodMaxClamp:   float32(mipLevels),
		MaxAnisotropy: samplerAnisotropy(s, d.maxAnisotropy),
	}
}
