package vulkan_backend

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

// MaterialParamsBinding is the binding of the material parameter block inside the material set.
// Bindings 0 through scene.MaterialTextureSlots-1 hold the material's combined image samplers.
const MaterialParamsBinding = scene.MaterialTextureSlots

// ErrNotBound is returned when a scene resource was not created by this backend.
var ErrNotBound = errors.New("resource was not created by the vulkan device")

// BindingContext owns the descriptor set layouts used by scene draws and allocates descriptor
// sets for loaded scenes. Empty texture slots are bound to a 1x1 white fallback texture.
type BindingContext struct {
	dev *Device

	meshLayout     vk.DescriptorSetLayout
	materialLayout vk.DescriptorSetLayout
	fallback       *Texture

	pools  []vk.DescriptorPool
	params []*UniformBuffer
}

// NewBindingContext creates the mesh and material set layouts and the fallback texture.
//
// The mesh set has one uniform buffer at binding 0, visible to the vertex stage. The material
// set has scene.MaterialTextureSlots combined image samplers followed by the material parameter
// block at MaterialParamsBinding, visible to the fragment stage.
//
// Parameters:
//   - d: the device the scenes were loaded on
//
// Returns:
//   - *BindingContext: the binding context
//   - error: an error if a layout or the fallback texture cannot be created
func NewBindingContext(d *Device) (*BindingContext, error) {
	c := &BindingContext{dev: d}

	meshBindings := []vk.DescriptorSetLayoutBinding{{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
	}}
	var err error
	if c.meshLayout, err = c.createLayout(meshBindings); err != nil {
		return nil, fmt.Errorf("mesh set layout: %w", err)
	}

	materialBindings := make([]vk.DescriptorSetLayoutBinding, 0, scene.MaterialTextureSlots+1)
	for i := 0; i < scene.MaterialTextureSlots; i++ {
		materialBindings = append(materialBindings, vk.DescriptorSetLayoutBinding{
			Binding:         uint32(i),
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		})
	}
	materialBindings = append(materialBindings, vk.DescriptorSetLayoutBinding{
		Binding:         MaterialParamsBinding,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
	})
	if c.materialLayout, err = c.createLayout(materialBindings); err != nil {
		c.Destroy()
		return nil, fmt.Errorf("material set layout: %w", err)
	}

	white := []byte{255, 255, 255, 255}
	tex, err := d.CreateTexture("fallback", common.TextureStagingData{
		Levels: [][]byte{white}, Width: 1, Height: 1, MipLevels: 1,
	}, common.DefaultSampler())
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("fallback texture: %w", err)
	}
	c.fallback = tex.(*Texture)
	return c, nil
}

func (c *BindingContext) createLayout(bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(c.dev.device, &layoutInfo, nil, &layout); res != vk.Success {
		return layout, vk.Error(res)
	}
	return layout, nil
}

// MeshLayout returns the layout of the per-mesh set.
func (c *BindingContext) MeshLayout() vk.DescriptorSetLayout { return c.meshLayout }

// MaterialLayout returns the layout of the per-material set.
func (c *BindingContext) MaterialLayout() vk.DescriptorSetLayout { return c.materialLayout }

// Bind allocates and writes one descriptor set per mesh and per material of s, and assigns
// them to Mesh.BindingSet and Material.BindingSet. Each material gets its own parameter buffer.
//
// Parameters:
//   - s: a scene loaded on the context's device
//
// Returns:
//   - error: an error if the pool, a set or a parameter buffer cannot be created
func (c *BindingContext) Bind(s *scene.Scene) error {
	meshes := s.Meshes()
	setCount := uint32(len(meshes) + len(s.Materials))
	if setCount == 0 {
		return nil
	}

	poolSizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: setCount},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: uint32(len(s.Materials)*scene.MaterialTextureSlots) + 1},
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       setCount,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(c.dev.device, &poolInfo, nil, &pool); res != vk.Success {
		return fmt.Errorf("create descriptor pool: %w", vk.Error(res))
	}
	c.pools = append(c.pools, pool)

	for _, m := range meshes {
		ub, ok := m.Uniform.(*UniformBuffer)
		if !ok {
			return fmt.Errorf("mesh %q uniform: %w", m.Name, ErrNotBound)
		}
		set, err := c.allocate(pool, c.meshLayout)
		if err != nil {
			return fmt.Errorf("mesh %q: %w", m.Name, err)
		}
		writes := []vk.WriteDescriptorSet{{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo:     []vk.DescriptorBufferInfo{ub.DescriptorInfo()},
		}}
		vk.UpdateDescriptorSets(c.dev.device, uint32(len(writes)), writes, 0, nil)
		m.BindingSet = set
	}

	for i := range s.Materials {
		mat := &s.Materials[i]
		if err := c.bindMaterial(pool, s, mat); err != nil {
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

func (c *BindingContext) bindMaterial(pool vk.DescriptorPool, s *scene.Scene, mat *scene.Material) error {
	block := mat.ShaderParams()
	data := common.StructToBytes(&block)
	buf, err := c.dev.CreateUniformBuffer(mat.Name+" params", uint64(len(data)))
	if err != nil {
		return err
	}
	params := buf.(*UniformBuffer)
	c.params = append(c.params, params)
	if err := params.Write(0, data); err != nil {
		return err
	}

	set, err := c.allocate(pool, c.materialLayout)
	if err != nil {
		return err
	}

	writes := make([]vk.WriteDescriptorSet, 0, scene.MaterialTextureSlots+1)
	for slot, tex := range s.MaterialTextures(mat) {
		info := c.fallback.ImageInfo()
		if t, ok := tex.(*Texture); ok {
			info = t.ImageInfo()
		}
		writes = append(writes, vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      uint32(slot),
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo:      []vk.DescriptorImageInfo{info},
		})
	}
	writes = append(writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      MaterialParamsBinding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo:     []vk.DescriptorBufferInfo{params.DescriptorInfo()},
	})
	vk.UpdateDescriptorSets(c.dev.device, uint32(len(writes)), writes, 0, nil)
	mat.BindingSet = set
	return nil
}

func (c *BindingContext) allocate(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}
	var set vk.DescriptorSet
	if res := vk.AllocateDescriptorSets(c.dev.device, &allocInfo, &set); res != vk.Success {
		return set, fmt.Errorf("allocate descriptor set: %w", vk.Error(res))
	}
	return set, nil
}

// Destroy releases every pool, parameter buffer, layout and the fallback texture. Sets handed
// out by Bind become invalid.
func (c *BindingContext) Destroy() {
	d := c.dev.device
	for _, pool := range c.pools {
		vk.DestroyDescriptorPool(d, pool, nil)
	}
	c.pools = nil
	for _, p := range c.params {
		p.Destroy()
	}
	c.params = nil
	if c.fallback != nil {
		c.fallback.Destroy()
		c.fallback = nil
	}
	if c.materialLayout != vk.DescriptorSetLayout(vk.NullHandle) {
		vk.DestroyDescriptorSetLayout(d, c.materialLayout, nil)
		c.materialLayout = vk.DescriptorSetLayout(vk.NullHandle)
	}
	if c.meshLayout != vk.DescriptorSetLayout(vk.NullHandle) {
		vk.DestroyDescriptorSetLayout(d, c.meshLayout, nil)
		c.meshLayout = vk.DescriptorSetLayout(vk.NullHandle)
	}
}
