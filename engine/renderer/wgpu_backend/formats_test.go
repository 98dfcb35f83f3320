package wgpu_backend

import (
	"bytes"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

func TestAddressModes(t *testing.T) {
	modes := map[common.AddressMode]wgpu.AddressMode{
		common.AddressModeRepeat:         wgpu.AddressModeRepeat,
		common.AddressModeMirroredRepeat: wgpu.AddressModeMirrorRepeat,
		common.AddressModeClampToEdge:    wgpu.AddressModeClampToEdge,
		common.AddressModeClampToBorder:  wgpu.AddressModeClampToEdge,
	}
	for in, want := range modes {
		if got := wgpuAddressMode(in); got != want {
			t.Errorf("address mode %d: expected %v, got %v", in, want, got)
		}
	}
	if wgpuFilter(common.FilterModeNearest) != wgpu.FilterModeNearest {
		t.Error("expected nearest filtering")
	}
	if wgpuMipmapFilter(common.MipmapModeLinear) != wgpu.MipmapFilterModeLinear {
		t.Error("expected linear mip filtering")
	}
}

func TestSamplerAnisotropy(t *testing.T) {
	if got := samplerAnisotropy(common.DefaultSampler(), 8); got != 8 {
		t.Errorf("expected the fallback 8, got %d", got)
	}
	s := common.DefaultSampler()
	s.MaxAnisotropy = 4
	if got := samplerAnisotropy(s, 8); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
	s.MagFilter = common.FilterModeNearest
	if got := samplerAnisotropy(s, 8); got != 1 {
		t.Errorf("expected 1 with a nearest filter, got %d", got)
	}
}

func TestCompleteMipChain(t *testing.T) {
	base := bytes.Repeat([]byte{200, 100, 50, 255}, 4*2)
	data := common.TextureStagingData{Levels: [][]byte{base}, Width: 4, Height: 2, MipLevels: 3}

	chain := completeMipChain(data)
	if len(chain) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(chain))
	}
	for level, texels := range chain {
		w, h := data.LevelExtent(uint32(level))
		if len(texels) != int(w*h)*common.TextureFormatRGBA8 {
			t.Errorf("level %d: expected %d bytes, got %d", level, w*h*4, len(texels))
		}
	}
	if !bytes.Equal(chain[2][:4], []byte{200, 100, 50, 255}) {
		t.Errorf("expected a uniform image to stay uniform, got %v", chain[2][:4])
	}

	full := common.TextureStagingData{Levels: chain, Width: 4, Height: 2, MipLevels: 3}
	if got := completeMipChain(full); len(got) != 3 || &got[0][0] != &base[0] {
		t.Error("expected a complete chain to be returned untouched")
	}
}

func TestCompleteMipChainFromStagedLevels(t *testing.T) {
	level0 := bytes.Repeat([]byte{0, 0, 0, 255}, 8*8)
	level1 := bytes.Repeat([]byte{255, 255, 255, 255}, 4*4)
	data := common.TextureStagingData{Levels: [][]byte{level0, level1}, Width: 8, Height: 8, MipLevels: 4}

	chain := completeMipChain(data)
	if len(chain) != 4 {
		t.Fatalf("expected 4 levels, got %d", len(chain))
	}
	if chain[3][0] != 255 {
		t.Errorf("expected levels generated from the last staged level, got %v", chain[3][:4])
	}
}

func TestLayoutEntries(t *testing.T) {
	entries := materialLayoutEntries()
	if len(entries) != 2*scene.MaterialTextureSlots+1 {
		t.Fatalf("expected %d entries, got %d", 2*scene.MaterialTextureSlots+1, len(entries))
	}
	if entries[3].Sampler.Type != wgpu.SamplerBindingTypeFiltering {
		t.Error("expected odd bindings to be samplers")
	}
	if last := entries[len(entries)-1]; last.Binding != MaterialParamsBinding || last.Buffer.Type != wgpu.BufferBindingTypeUniform {
		t.Errorf("expected the params block at binding %d, got %+v", MaterialParamsBinding, last)
	}
	if mesh := meshLayoutEntries(); mesh[0].Buffer.MinBindingSize != uint64(scene.MeshUniformSize) {
		t.Errorf("expected a %d byte mesh block, got %d", scene.MeshUniformSize, mesh[0].Buffer.MinBindingSize)
	}
}

func TestAlignUp(t *testing.T) {
	if alignUp(4176, 16) != 4176 || alignUp(100, 16) != 112 || alignUp(1, 16) != 16 {
		t.Error("unexpected alignment")
	}
}
