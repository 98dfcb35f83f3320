package vulkan_backend

import (
	"errors"
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

func TestSamplerConversions(t *testing.T) {
	if vkFilter(common.FilterModeNearest) != vk.FilterNearest || vkFilter(common.FilterModeLinear) != vk.FilterLinear {
		t.Error("unexpected filter conversion")
	}
	if vkMipmapMode(common.MipmapModeNearest) != vk.SamplerMipmapModeNearest || vkMipmapMode(common.MipmapModeLinear) != vk.SamplerMipmapModeLinear {
		t.Error("unexpected mipmap mode conversion")
	}

	modes := map[common.AddressMode]vk.SamplerAddressMode{
		common.AddressModeRepeat:         vk.SamplerAddressModeRepeat,
		common.AddressModeMirroredRepeat: vk.SamplerAddressModeMirroredRepeat,
		common.AddressModeClampToEdge:    vk.SamplerAddressModeClampToEdge,
		common.AddressModeClampToBorder:  vk.SamplerAddressModeClampToBorder,
	}
	for in, want := range modes {
		if got := vkAddressMode(in); got != want {
			t.Errorf("address mode %d: expected %v, got %v", in, want, got)
		}
	}
}

func TestFormatBlittable(t *testing.T) {
	both := vk.FormatProperties{OptimalTilingFeatures: vk.FormatFeatureFlags(vk.FormatFeatureBlitSrcBit | vk.FormatFeatureBlitDstBit | vk.FormatFeatureSampledImageBit)}
	if !formatBlittable(both) {
		t.Error("expected a format with blit src and dst to be blittable")
	}
	srcOnly := vk.FormatProperties{OptimalTilingFeatures: vk.FormatFeatureFlags(vk.FormatFeatureBlitSrcBit)}
	if formatBlittable(srcOnly) {
		t.Error("expected a format without blit dst to be rejected")
	}
	linearOnly := vk.FormatProperties{LinearTilingFeatures: both.OptimalTilingFeatures}
	if formatBlittable(linearOnly) {
		t.Error("expected linear tiling features to be ignored")
	}
}

func TestClampAnisotropy(t *testing.T) {
	tests := []struct {
		name                        string
		requested, fallback, devMax float32
		want                        float32
	}{
		{"requested", 4, 8, 16, 4},
		{"fallback when zero", 0, 8, 16, 8},
		{"clamped to device", 32, 8, 16, 16},
		{"at least one", 0.5, 8, 16, 1},
		{"no device limit", 12, 8, 0, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampAnisotropy(tt.requested, tt.fallback, tt.devMax); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMemoryTypeIndex(t *testing.T) {
	var props vk.PhysicalDeviceMemoryProperties
	props.MemoryTypeCount = 3
	props.MemoryTypes[0].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	props.MemoryTypes[1].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	props.MemoryTypes[2].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

	coherent := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	if i, err := memoryTypeIndex(props, 0b111, coherent); err != nil || i != 2 {
		t.Errorf("expected type 2, got %d (%v)", i, err)
	}
	if i, err := memoryTypeIndex(props, 0b111, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)); err != nil || i != 0 {
		t.Errorf("expected type 0, got %d (%v)", i, err)
	}
	if _, err := memoryTypeIndex(props, 0b011, coherent); !errors.Is(err, ErrNoMemoryType) {
		t.Errorf("expected ErrNoMemoryType, got %v", err)
	}
}

func TestStagingExtent(t *testing.T) {
	if w, h := stagingExtent(8, 2, 2); w != 2 || h != 1 {
		t.Errorf("expected 2x1, got %dx%d", w, h)
	}
}
