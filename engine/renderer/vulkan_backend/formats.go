package vulkan_backend

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

func vkFilter(f common.FilterMode) vk.Filter {
	if f == common.FilterModeNearest {
		return vk.FilterNearest
	}
	return vk.FilterLinear
}

func vkMipmapMode(m common.MipmapMode) vk.SamplerMipmapMode {
	if m == common.MipmapModeNearest {
		return vk.SamplerMipmapModeNearest
	}
	return vk.SamplerMipmapModeLinear
}

func vkAddressMode(m common.AddressMode) vk.SamplerAddressMode {
	switch m {
	case common.AddressModeMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	case common.AddressModeClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	case common.AddressModeClampToBorder:
		return vk.SamplerAddressModeClampToBorder
	default:
		return vk.SamplerAddressModeRepeat
	}
}

// formatBlittable reports whether optimal-tiling images of a format can be both source and
// destination of vkCmdBlitImage.
func formatBlittable(props vk.FormatProperties) bool {
	need := vk.FormatFeatureFlags(vk.FormatFeatureBlitSrcBit | vk.FormatFeatureBlitDstBit)
	return props.OptimalTilingFeatures&need == need
}
