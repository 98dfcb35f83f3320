package wgpu_backend

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

// CommandRecorder records scene draws into an open render pass.
type CommandRecorder struct {
	pass  *wgpu.RenderPassEncoder
	draws int
}

var _ renderer.CommandRecorder = &CommandRecorder{}

// NewCommandRecorder wraps a render pass that has its pipeline set.
//
// Parameters:
//   - pass: the render pass encoder
//
// Returns:
//   - *CommandRecorder: the recorder
func NewCommandRecorder(pass *wgpu.RenderPassEncoder) *CommandRecorder {
	return &CommandRecorder{pass: pass}
}

func (r *CommandRecorder) BindGeometry(g renderer.Geometry) {
	geometry, ok := g.(*Geometry)
	if !ok || geometry == nil || geometry.Vertices == nil {
		return
	}
	r.pass.SetVertexBuffer(0, geometry.Vertices, 0, wgpu.WholeSize)
	if geometry.Indices != nil {
		r.pass.SetIndexBuffer(geometry.Indices, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	}
}

// BindSet binds a *wgpu.BindGroup. The layout is implied by the pipeline and ignored.
func (r *CommandRecorder) BindSet(_ renderer.PipelineLayout, set uint32, binding renderer.BindingSet) {
	bg, ok := binding.(*wgpu.BindGroup)
	if !ok || bg == nil {
		return
	}
	r.pass.SetBindGroup(set, bg, nil)
}

func (r *CommandRecorder) DrawIndexed(indexCount, firstIndex uint32) {
	r.pass.DrawIndexed(indexCount, 1, firstIndex, 0, 0)
	r.draws++
}

// Draws returns the number of DrawIndexed calls recorded so far.
func (r *CommandRecorder) Draws() int {
	return r.draws
}
