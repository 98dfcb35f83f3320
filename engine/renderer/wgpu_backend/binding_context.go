package wgpu_backend

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

// MaterialParamsBinding is the binding of the material parameter block inside the material
// bind group. Texture slot i uses binding 2*i for its view and 2*i+1 for its sampler.
const MaterialParamsBinding = 2 * scene.MaterialTextureSlots

// ErrNotBound is returned when a scene resource was not created by this backend.
var ErrNotBound = errors.New("resource was not created by the wgpu device")

// BindingContext owns the bind group layouts used by scene draws and creates bind groups for
// loaded scenes. Empty texture slots are bound to a 1x1 white fallback texture.
type BindingContext struct {
	dev *Device

	meshLayout     *wgpu.BindGroupLayout
	materialLayout *wgpu.BindGroupLayout
	fallback       *Texture

	groups []*wgpu.BindGroup
	params []*UniformBuffer
}

// NewBindingContext creates the mesh and material bind group layouts and the fallback texture.
//
// Parameters:
//   - d: the device the scenes were loaded on
//
// Returns:
//   - *BindingContext: the binding context
//   - error: an error if a layout or the fallback texture cannot be created
func NewBindingContext(d *Device) (*BindingContext, error) {
	c := &BindingContext{dev: d}

	var err error
	c.meshLayout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Mesh Bind Group Layout",
		Entries: meshLayoutEntries(),
	})
	if err != nil {
		return nil, fmt.Errorf("mesh layout: %w", err)
	}
	c.materialLayout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Material Bind Group Layout",
		Entries: materialLayoutEntries(),
	})
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("material layout: %w", err)
	}

	tex, err := d.CreateTexture("Fallback", common.TextureStagingData{
		Levels: [][]byte{{255, 255, 255, 255}}, Width: 1, Height: 1, MipLevels: 1,
	}, common.DefaultSampler())
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("fallback texture: %w", err)
	}
	c.fallback = tex.(*Texture)
	return c, nil
}

func meshLayoutEntries() []wgpu.BindGroupLayoutEntry {
	return []wgpu.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: wgpu.ShaderStageVertex,
		Buffer: wgpu.BufferBindingLayout{
			Type:           wgpu.BufferBindingTypeUniform,
			MinBindingSize: uint64(scene.MeshUniformSize),
		},
	}}
}

func materialLayoutEntries() []wgpu.BindGroupLayoutEntry {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, MaterialParamsBinding+1)
	for slot := 0; slot < scene.MaterialTextureSlots; slot++ {
		entries = append(entries,
			wgpu.BindGroupLayoutEntry{
				Binding:    uint32(2 * slot),
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			wgpu.BindGroupLayoutEntry{
				Binding:    uint32(2*slot + 1),
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		)
	}
	return append(entries, wgpu.BindGroupLayoutEntry{
		Binding:    MaterialParamsBinding,
		Visibility: wgpu.ShaderStageFragment,
		Buffer: wgpu.BufferBindingLayout{
			Type: wgpu.BufferBindingTypeUniform,
		},
	})
}

// MeshLayout returns the layout of the per-mesh bind group.
func (c *BindingContext) MeshLayout() *wgpu.BindGroupLayout { return c.meshLayout }

// MaterialLayout returns the layout of the per-material bind group.
func (c *BindingContext) MaterialLayout() *wgpu.BindGroupLayout { return c.materialLayout }

// Bind creates one bind group per mesh and per material of s and assigns them to
// Mesh.BindingSet and Material.BindingSet. Each material gets its own parameter buffer.
//
// Parameters:
//   - s: a scene loaded on the context's device
//
// Returns:
//   - error: an error if a bind group or parameter buffer cannot be created
func (c *BindingContext) Bind(s *scene.Scene) error {
	meshes := s.Meshes()
	for _, m := range meshes {
		ub, ok := m.Uniform.(*UniformBuffer)
		if !ok {
			return fmt.Errorf("mesh %q uniform: %w", m.Name, ErrNotBound)
		}
		bg, err := c.dev.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  m.Name + " Mesh Bind Group",
			Layout: c.meshLayout,
			Entries: []wgpu.BindGroupEntry{{
				Binding: 0,
				Buffer:  ub.Buffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}},
		})
		if err != nil {
			return fmt.Errorf("mesh %q: %w", m.Name, err)
		}
		c.groups = append(c.groups, bg)
		m.BindingSet = bg
	}

	for i := range s.Materials {
		mat := &s.Materials[i]
		if err := c.bindMaterial(s, mat); err != nil {
			return fmt.Errorf("material %q: %w", mat.Name, err)
		}
	}

	c.dev.log.Debug("scene bound",
		zap.String("scene", s.Name),
		zap.Int("meshes", len(meshes)),
		zap.Int("materials", len(s.Materials)),
	)
	return nil
}

func (c *BindingContext) bindMaterial(s *scene.Scene, mat *scene.Material) error {
	block := mat.ShaderParams()
	data := common.StructToBytes(&block)
	buf, err := c.dev.CreateUniformBuffer(mat.Name+" Params", uint64(len(data)))
	if err != nil {
		return err
	}
	params := buf.(*UniformBuffer)
	c.params = append(c.params, params)
	if err := params.Write(0, data); err != nil {
		return err
	}

	entries := make([]wgpu.BindGroupEntry, 0, MaterialParamsBinding+1)
	for slot, tex := range s.MaterialTextures(mat) {
		binding := c.fallback.binding
		if t, ok := tex.(*Texture); ok {
			binding = t.binding
		}
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: uint32(2 * slot), TextureView: binding.View},
			wgpu.BindGroupEntry{Binding: uint32(2*slot + 1), Sampler: binding.Sampler},
		)
	}
	entries = append(entries, wgpu.BindGroupEntry{
		Binding: MaterialParamsBinding,
		Buffer:  params.Buffer,
		Offset:  0,
		Size:    wgpu.WholeSize,
	})

	bg, err := c.dev.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   mat.Name + " Material Bind Group",
		Layout:  c.materialLayout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	c.groups = append(c.groups, bg)
	mat.BindingSet = bg
	return nil
}

// Destroy releases every bind group, parameter buffer, layout and the fallback texture.
func (c *BindingContext) Destroy() {
	for _, bg := range c.groups {
		bg.Release()
	}
	c.groups = nil
	for _, p := range c.params {
		p.Destroy()
	}
	c.params = nil
	if c.fallback != nil {
		c.fallback.Destroy()
		c.fallback = nil
	}
	if c.materialLayout != nil {
		c.materialLayout.Release()
		c.materialLayout = nil
	}
	if c.meshLayout != nil {
		c.meshLayout.Release()
		c.meshLayout = nil
	}
}
