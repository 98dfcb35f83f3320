package vulkan_backend

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

// CommandRecorder records scene draws into a caller-owned command buffer inside a render pass.
type CommandRecorder struct {
	cb        vk.CommandBuffer
	bindPoint vk.PipelineBindPoint
}

var _ renderer.CommandRecorder = &CommandRecorder{}

// NewCommandRecorder wraps a command buffer that is recording with a graphics pipeline bound.
//
// Parameters:
//   - cb: the command buffer
//
// Returns:
//   - *CommandRecorder: the recorder
func NewCommandRecorder(cb vk.CommandBuffer) *CommandRecorder {
	return &CommandRecorder{cb: cb, bindPoint: vk.PipelineBindPointGraphics}
}

func (r *CommandRecorder) BindGeometry(g renderer.Geometry) {
	geometry, ok := g.(*Geometry)
	if !ok || geometry == nil {
		return
	}
	vk.CmdBindVertexBuffers(r.cb, 0, 1, []vk.Buffer{geometry.vertices.handle}, []vk.DeviceSize{0})
	if geometry.indices.handle != vk.Buffer(vk.NullHandle) {
		vk.CmdBindIndexBuffer(r.cb, geometry.indices.handle, 0, vk.IndexTypeUint32)
	}
}

func (r *CommandRecorder) BindSet(layout renderer.PipelineLayout, set uint32, binding renderer.BindingSet) {
	pipelineLayout, ok := layout.(vk.PipelineLayout)
	if !ok {
		return
	}
	descriptorSet, ok := binding.(vk.DescriptorSet)
	if !ok || descriptorSet == vk.DescriptorSet(vk.NullHandle) {
		return
	}
	vk.CmdBindDescriptorSets(r.cb, r.bindPoint, pipelineLayout, set, 1, []vk.DescriptorSet{descriptorSet}, 0, nil)
}

func (r *CommandRecorder) DrawIndexed(indexCount, firstIndex uint32) {
	vk.CmdDrawIndexed(r.cb, indexCount, 1, firstIndex, 0, 0)
}
