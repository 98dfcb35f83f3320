package wgpu_backend

import (
	_ "embed"
	"errors"
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

//go:embed assets/scene.wgsl
var sceneShaderSource string

// Bind group indices used by the scene pipelines.
const (
	CameraSet   = 0
	MaterialSet = 1
	MeshSet     = 2
)

// ErrCameraSize is returned when a camera buffer is smaller than the camera block.
var ErrCameraSize = errors.New("camera buffer is smaller than the camera block")

// cameraBlockSize is the size of the WGSL Camera struct: mat4x4 plus a vec3 padded to 16.
const cameraBlockSize = uint64(unsafe.Sizeof([20]float32{}))

// ScenePipelines holds one render pipeline per alpha mode, all sharing one layout of
// camera, material and mesh bind groups.
type ScenePipelines struct {
	Opaque *wgpu.RenderPipeline
	Mask   *wgpu.RenderPipeline
	Blend  *wgpu.RenderPipeline

	cameraLayout *wgpu.BindGroupLayout
	layout       *wgpu.PipelineLayout
	module       *wgpu.ShaderModule
	dev          *Device
}

// NewScenePipelines compiles the scene shader and builds the opaque, mask and blend pipelines
// for the given color target format. Scenes drawn with them must be loaded with mesh set index
// MeshSet.
//
// Parameters:
//   - d: the device
//   - bindings: the binding context whose layouts the pipelines consume
//   - format: the color target format, usually Surface.Format
//
// Returns:
//   - *ScenePipelines: the pipelines
//   - error: error if shader compilation or pipeline creation fails
func NewScenePipelines(d *Device, bindings *BindingContext, format wgpu.TextureFormat) (*ScenePipelines, error) {
	p := &ScenePipelines{dev: d}

	cameraLayout, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Camera",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: cameraBlockSize,
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("camera layout: %w", err)
	}
	p.cameraLayout = cameraLayout

	p.layout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Scene",
		BindGroupLayouts: []*wgpu.BindGroupLayout{cameraLayout, bindings.MaterialLayout(), bindings.MeshLayout()},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("pipeline layout: %w", err)
	}

	p.module, err = d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "scene.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: sceneShaderSource},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("scene shader: %w", err)
	}

	for _, v := range pipelineVariants() {
		created, err := p.create(v, format)
		if err != nil {
			p.Release()
			return nil, fmt.Errorf("%s pipeline: %w", v.label, err)
		}
		switch v.mode {
		case scene.AlphaModeOpaque:
			p.Opaque = created
		case scene.AlphaModeMask:
			p.Mask = created
		case scene.AlphaModeBlend:
			p.Blend = created
		}
	}
	return p, nil
}

type pipelineVariant struct {
	label      string
	mode       scene.AlphaMode
	entryPoint string
	blend      *wgpu.BlendState
	depthWrite bool
}

func pipelineVariants() []pipelineVariant {
	return []pipelineVariant{
		{label: "opaque", mode: scene.AlphaModeOpaque, entryPoint: "fs_opaque", depthWrite: true},
		{label: "mask", mode: scene.AlphaModeMask, entryPoint: "fs_mask", depthWrite: true},
		{
			label:      "blend",
			mode:       scene.AlphaModeBlend,
			entryPoint: "fs_blend",
			blend: &wgpu.BlendState{
				Color: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorSrcAlpha,
					DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
					Operation: wgpu.BlendOperationAdd,
				},
				Alpha: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorOne,
					DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
					Operation: wgpu.BlendOperationAdd,
				},
			},
		},
	}
}

func (p *ScenePipelines) create(v pipelineVariant, format wgpu.TextureFormat) (*wgpu.RenderPipeline, error) {
	return p.dev.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  v.label,
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     p.module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{VertexLayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.module,
			EntryPoint: v.entryPoint,
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				Blend:     v.blend,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: v.depthWrite,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
}

// VertexLayout returns the vertex buffer layout of scene.Vertex.
func VertexLayout() wgpu.VertexBufferLayout {
	attrs := scene.VertexAttributes()
	out := make([]wgpu.VertexAttribute, len(attrs))
	for i, a := range attrs {
		out[i] = wgpu.VertexAttribute{
			Format:         vertexFormat(a.Components),
			Offset:         uint64(a.Offset),
			ShaderLocation: a.Location,
		}
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(scene.VertexSize),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  out,
	}
}

func vertexFormat(components uint32) wgpu.VertexFormat {
	switch components {
	case 1:
		return wgpu.VertexFormatFloat32
	case 2:
		return wgpu.VertexFormatFloat32x2
	case 3:
		return wgpu.VertexFormatFloat32x3
	default:
		return wgpu.VertexFormatFloat32x4
	}
}

// Pipeline returns the pipeline drawing primitives of the given alpha mode.
func (p *ScenePipelines) Pipeline(mode scene.AlphaMode) *wgpu.RenderPipeline {
	switch mode {
	case scene.AlphaModeMask:
		return p.Mask
	case scene.AlphaModeBlend:
		return p.Blend
	default:
		return p.Opaque
	}
}

// BindCamera creates the camera bind group over a uniform buffer.
//
// Parameters:
//   - buf: a uniform buffer created on the same device, at least the camera block in size
//
// Returns:
//   - *wgpu.BindGroup: the bind group for CameraSet
//   - error: ErrNotBound, ErrCameraSize or a creation error
func (p *ScenePipelines) BindCamera(buf *UniformBuffer) (*wgpu.BindGroup, error) {
	if buf == nil || buf.Buffer == nil {
		return nil, ErrNotBound
	}
	if buf.Size() < cameraBlockSize {
		return nil, ErrCameraSize
	}
	return p.dev.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Camera",
		Layout: p.cameraLayout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  buf.Buffer,
			Size:    cameraBlockSize,
		}},
	})
}

// Draw records the scene into pass once per alpha mode: opaque, then mask, then blend.
// The camera group must already be bound at CameraSet.
//
// Parameters:
//   - pass: the open render pass
//   - s: a scene bound with the pipelines' binding context
//
// Returns:
//   - int: the number of indexed draws recorded
func (p *ScenePipelines) Draw(pass *wgpu.RenderPassEncoder, s *scene.Scene) int {
	rec := NewCommandRecorder(pass)
	for _, mode := range []scene.AlphaMode{scene.AlphaModeOpaque, scene.AlphaModeMask, scene.AlphaModeBlend} {
		pass.SetPipeline(p.Pipeline(mode))
		s.Draw(rec, p.layout, MaterialSet, mode.Filter())
	}
	return rec.Draws()
}

// Release frees the pipelines, the shader and the layouts.
func (p *ScenePipelines) Release() {
	for _, rp := range []*wgpu.RenderPipeline{p.Opaque, p.Mask, p.Blend} {
		if rp != nil {
			rp.Release()
		}
	}
	p.Opaque, p.Mask, p.Blend = nil, nil, nil
	if p.module != nil {
		p.module.Release()
		p.module = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	if p.cameraLayout != nil {
		p.cameraLayout.Release()
		p.cameraLayout = nil
	}
}
