package vulkan_backend

import (
	"fmt"
	"math"

	vk "github.com/vulkan-go/vulkan"
)

// beginOneTime allocates a primary command buffer from the transient pool and begins it for a
// single submission.
func (d *Device) beginOneTime() (vk.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(d.device, &allocInfo, buffers); res != vk.Success {
		return nil, fmt.Errorf("allocate command buffer: %w", vk.Error(res))
	}

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(buffers[0], &beginInfo); res != vk.Success {
		vk.FreeCommandBuffers(d.device, d.pool, 1, buffers)
		return nil, fmt.Errorf("begin command buffer: %w", vk.Error(res))
	}
	return buffers[0], nil
}

// submitAndWait ends cb, submits it with a fresh fence, waits without a timeout and frees it.
func (d *Device) submitAndWait(cb vk.CommandBuffer) error {
	buffers := []vk.CommandBuffer{cb}
	defer vk.FreeCommandBuffers(d.device, d.pool, 1, buffers)

	if res := vk.EndCommandBuffer(cb); res != vk.Success {
		return fmt.Errorf("end command buffer: %w", vk.Error(res))
	}

	var fence vk.Fence
	fenceInfo := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if res := vk.CreateFence(d.device, &fenceInfo, nil, &fence); res != vk.Success {
		return fmt.Errorf("create fence: %w", vk.Error(res))
	}
	defer vk.DestroyFence(d.device, fence, nil)

	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    buffers,
	}}
	if res := vk.QueueSubmit(d.queue, 1, submit, fence); res != vk.Success {
		return fmt.Errorf("queue submit: %w", vk.Error(res))
	}
	if res := vk.WaitForFences(d.device, 1, []vk.Fence{fence}, vk.True, math.MaxUint64); res != vk.Success {
		return fmt.Errorf("wait for fence: %w", vk.Error(res))
	}
	return nil
}

// imageBarrier records a layout transition on a range of color mip levels.
func imageBarrier(cb vk.CommandBuffer, image vk.Image, baseLevel, levels uint32,
	oldLayout, newLayout vk.ImageLayout, srcAccess, dstAccess vk.AccessFlagBits,
	srcStage, dstStage vk.PipelineStageFlagBits) {
	barrier := []vk.ImageMemoryBarrier{{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcAccessMask:       vk.AccessFlags(srcAccess),
		DstAccessMask:       vk.AccessFlags(dstAccess),
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   baseLevel,
			LevelCount:     levels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}}
	vk.CmdPipelineBarrier(cb, vk.PipelineStageFlags(srcStage), vk.PipelineStageFlags(dstStage), 0, 0, nil, 0, nil, 1, barrier)
}
