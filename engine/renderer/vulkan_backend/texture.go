package vulkan_backend

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

// Texture is a sampled R8G8B8A8 image with its memory, view and sampler.
type Texture struct {
	dev *Device

	image   vk.Image
	memory  vk.DeviceMemory
	view    vk.ImageView
	sampler vk.Sampler

	width, height, mipLevels uint32
}

var _ renderer.Texture = &Texture{}

func (d *Device) CreateTexture(label string, data common.TextureStagingData, sampler common.SamplerStagingData) (renderer.Texture, error) {
	if err := renderer.ValidateStagingData(data); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	generate := data.GeneratesMips()
	if generate {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(d.physical, textureFormat, &props)
		props.Deref()
		if !formatBlittable(props) {
			return nil, fmt.Errorf("%s: %w", label, ErrFormatNotBlittable)
		}
	}

	// All staged levels go into one buffer, back to back.
	var packed []byte
	offsets := make([]vk.DeviceSize, len(data.Levels))
	for i, level := range data.Levels {
		offsets[i] = vk.DeviceSize(len(packed))
		packed = append(packed, level...)
	}
	staging, err := d.createStaging(packed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	defer d.destroyBuffer(&staging)

	t := &Texture{dev: d, width: data.Width, height: data.Height, mipLevels: data.MipLevels}
	if err := t.createImage(); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	if err := t.upload(staging, offsets, generate); err != nil {
		t.Destroy()
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	if err := t.createView(); err != nil {
		t.Destroy()
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	if err := t.createSampler(sampler); err != nil {
		t.Destroy()
		return nil, fmt.Errorf("%s: %w", label, err)
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

func (t *Texture) createImage() error {
	d := t.dev
	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    textureFormat,
		Extent: vk.Extent3D{
			Width:  t.width,
			Height: t.height,
			Depth:  1,
		},
		MipLevels:     t.mipLevels,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	if res := vk.CreateImage(d.device, &imageInfo, nil, &t.image); res != vk.Success {
		return fmt.Errorf("create image: %w", vk.Error(res))
	}

	var memReq vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, t.image, &memReq)
	memReq.Deref()

	typeIndex, err := d.findMemoryType(memReq.MemoryTypeBits, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		vk.DestroyImage(d.device, t.image, nil)
		t.image = vk.Image(vk.NullHandle)
		return fmt.Errorf("image memory: %w", err)
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReq.Size,
		MemoryTypeIndex: typeIndex,
	}
	if res := vk.AllocateMemory(d.device, &allocInfo, nil, &t.memory); res != vk.Success {
		vk.DestroyImage(d.device, t.image, nil)
		t.image = vk.Image(vk.NullHandle)
		return fmt.Errorf("allocate image memory: %w", vk.Error(res))
	}
	if res := vk.BindImageMemory(d.device, t.image, t.memory, 0); res != vk.Success {
		t.Destroy()
		return fmt.Errorf("bind image memory: %w", vk.Error(res))
	}
	return nil
}

// upload copies the staged levels and, when levels are missing, blits each level from the one
// above it. Every level ends in SHADER_READ_ONLY_OPTIMAL.
func (t *Texture) upload(staging buffer, offsets []vk.DeviceSize, generate bool) error {
	d := t.dev
	staged := uint32(len(offsets))

	cb, err := d.beginOneTime()
	if err != nil {
		return err
	}
	imageBarrier(cb, t.image, 0, t.mipLevels,
		vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal,
		0, vk.AccessTransferWriteBit,
		vk.PipelineStageTopOfPipeBit, vk.PipelineStageTransferBit)

	regions := make([]vk.BufferImageCopy, staged)
	for i := range regions {
		w, h := stagingExtent(t.width, t.height, uint32(i))
		regions[i] = vk.BufferImageCopy{
			BufferOffset: offsets[i],
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:   uint32(i),
				LayerCount: 1,
			},
			ImageExtent: vk.Extent3D{Width: w, Height: h, Depth: 1},
		}
	}
	vk.CmdCopyBufferToImage(cb, staging.handle, t.image, vk.ImageLayoutTransferDstOptimal, staged, regions)

	if !generate {
		imageBarrier(cb, t.image, 0, t.mipLevels,
			vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal,
			vk.AccessTransferWriteBit, vk.AccessShaderReadBit,
			vk.PipelineStageTransferBit, vk.PipelineStageFragmentShaderBit)
		return d.submitAndWait(cb)
	}
	if err := d.submitAndWait(cb); err != nil {
		return fmt.Errorf("copy levels: %w", err)
	}

	cb, err = d.beginOneTime()
	if err != nil {
		return err
	}
	imageBarrier(cb, t.image, 0, staged,
		vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutTransferSrcOptimal,
		vk.AccessTransferWriteBit, vk.AccessTransferReadBit,
		vk.PipelineStageTransferBit, vk.PipelineStageTransferBit)

	for level := staged; level < t.mipLevels; level++ {
		srcW, srcH := stagingExtent(t.width, t.height, level-1)
		dstW, dstH := stagingExtent(t.width, t.height, level)
		blit := vk.ImageBlit{
			SrcSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:   level - 1,
				LayerCount: 1,
			},
			SrcOffsets: [2]vk.Offset3D{{}, {X: int32(srcW), Y: int32(srcH), Z: 1}},
			DstSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:   level,
				LayerCount: 1,
			},
			DstOffsets: [2]vk.Offset3D{{}, {X: int32(dstW), Y: int32(dstH), Z: 1}},
		}
		vk.CmdBlitImage(cb, t.image, vk.ImageLayoutTransferSrcOptimal, t.image, vk.ImageLayoutTransferDstOptimal,
			1, []vk.ImageBlit{blit}, vk.FilterLinear)

		imageBarrier(cb, t.image, level, 1,
			vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutTransferSrcOptimal,
			vk.AccessTransferWriteBit, vk.AccessTransferReadBit,
			vk.PipelineStageTransferBit, vk.PipelineStageTransferBit)
	}

	imageBarrier(cb, t.image, 0, t.mipLevels,
		vk.ImageLayoutTransferSrcOptimal, vk.ImageLayoutShaderReadOnlyOptimal,
		vk.AccessTransferReadBit, vk.AccessShaderReadBit,
		vk.PipelineStageTransferBit, vk.PipelineStageFragmentShaderBit)
	if err := d.submitAndWait(cb); err != nil {
		return fmt.Errorf("generate mips: %w", err)
	}
	return nil
}

func (t *Texture) createView() error {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    t.image,
		ViewType: vk.ImageViewType2d,
		Format:   textureFormat,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: t.mipLevels,
			LayerCount: 1,
		},
	}
	if res := vk.CreateImageView(t.dev.device, &viewInfo, nil, &t.view); res != vk.Success {
		return fmt.Errorf("create image view: %w", vk.Error(res))
	}
	return nil
}

func (t *Texture) createSampler(s common.SamplerStagingData) error {
	anisotropy := t.dev.samplerAnisotropy(s.MaxAnisotropy)
	samplerInfo := vk.SamplerCreateInfo{
		SType:            vk.StructureTypeSamplerCreateInfo,
		MagFilter:        vkFilter(s.MagFilter),
		MinFilter:        vkFilter(s.MinFilter),
		MipmapMode:       vkMipmapMode(s.MipmapMode),
		AddressModeU:     vkAddressMode(s.AddressModeU),
		AddressModeV:     vkAddressMode(s.AddressModeV),
		AddressModeW:     vkAddressMode(s.AddressModeW),
		CompareOp:        vk.CompareOpNever,
		BorderColor:      vk.BorderColorFloatOpaqueWhite,
		MinLod:           0,
		MaxLod:           float32(t.mipLevels),
		AnisotropyEnable: vk.False,
		MaxAnisotropy:    1,
	}
	if anisotropy > 0 {
		samplerInfo.AnisotropyEnable = vk.True
		samplerInfo.MaxAnisotropy = anisotropy
	}
	if res := vk.CreateSampler(t.dev.device, &samplerInfo, nil, &t.sampler); res != vk.Success {
		return fmt.Errorf("create sampler: %w", vk.Error(res))
	}
	return nil
}

func (t *Texture) Width() uint32     { return t.width }
func (t *Texture) Height() uint32    { return t.height }
func (t *Texture) MipLevels() uint32 { return t.mipLevels }

// Descriptor returns a vk.DescriptorImageInfo in SHADER_READ_ONLY_OPTIMAL.
func (t *Texture) Descriptor() any {
	return t.ImageInfo()
}

// ImageInfo returns the combined image sampler descriptor for the texture.
func (t *Texture) ImageInfo() vk.DescriptorImageInfo {
	return vk.DescriptorImageInfo{
		Sampler:     t.sampler,
		ImageView:   t.view,
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}
}

func (t *Texture) Destroy() {
	d := t.dev.device
	if t.sampler != vk.Sampler(vk.NullHandle) {
		vk.DestroySampler(d, t.sampler, nil)
		t.sampler = vk.Sampler(vk.NullHandle)
	}
	if t.view != vk.ImageView(vk.NullHandle) {
		vk.DestroyImageView(d, t.view, nil)
		t.view = vk.ImageView(vk.NullHandle)
	}
	if t.image != vk.Image(vk.NullHandle) {
		vk.DestroyImage(d, t.image, nil)
		t.image = vk.Image(vk.NullHandle)
	}
	if t.memory != vk.DeviceMemory(vk.NullHandle) {
		vk.FreeMemory(d, t.memory, nil)
		t.memory = vk.DeviceMemory(vk.NullHandle)
	}
}

func stagingExtent(width, height, level uint32) (uint32, uint32) {
	return common.TextureStagingData{Width: width, Height: height}.LevelExtent(level)
}
