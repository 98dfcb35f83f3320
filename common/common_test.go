package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestMipLevelCount(t *testing.T) {
	tests := []struct {
		w, h, want uint32
	}{
		{0, 0, 1},
		{1, 1, 1},
		{2, 1, 2},
		{256, 256, 9},
		{300, 17, 9},
		{1, 1024, 11},
	}
	for _, tt := range tests {
		if got := MipLevelCount(tt.w, tt.h); got != tt.want {
			t.Errorf("MipLevelCount(%d, %d): expected %d, got %d", tt.w, tt.h, tt.want, got)
		}
	}
}

func TestGenerateMipChain(t *testing.T) {
	// 2x2: red, green / blue, white
	base := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}
	chain := GenerateMipChain(base, 2, 2, 2)
	if len(chain) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(chain))
	}
	if &chain[0][0] != &base[0] {
		t.Error("expected level 0 to alias the base image")
	}
	want := []byte{128, 128, 128, 255}
	for i, c := range chain[1] {
		if c != want[i] {
			t.Errorf("expected averaged texel %v, got %v", want, chain[1])
			break
		}
	}
	if GenerateMipChain(base, 2, 2, 0) != nil {
		t.Error("expected no levels for a zero count")
	}
}

func TestGenerateMipChainOddExtent(t *testing.T) {
	base := make([]byte, 3*1*TextureFormatRGBA8)
	for i := range base {
		base[i] = 100
	}
	chain := GenerateMipChain(base, 3, 1, 2)
	if len(chain[1]) != TextureFormatRGBA8 {
		t.Fatalf("expected one 1x1 texel, got %d bytes", len(chain[1]))
	}
	if chain[1][0] != 100 {
		t.Errorf("expected 100, got %d", chain[1][0])
	}
}

func TestStagingData(t *testing.T) {
	data := TextureStagingData{Levels: [][]byte{make([]byte, 16)}, Width: 2, Height: 2, MipLevels: 2}
	if !data.GeneratesMips() {
		t.Error("expected missing levels to be generated")
	}
	if w, h := data.LevelExtent(5); w != 1 || h != 1 {
		t.Errorf("expected deep levels to clamp to 1x1, got %dx%d", w, h)
	}
	if (TextureStagingData{}).Pixels() != nil {
		t.Error("expected nil pixels when nothing is staged")
	}
}

func TestUtils(t *testing.T) {
	if got := Coalesce("", "a", "b"); got != "a" {
		t.Errorf("expected a, got %q", got)
	}
	if got := Coalesce(0, 0); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	i := 3
	if IndexOr(&i, -1) != 3 || IndexOr(nil, -1) != -1 {
		t.Error("expected IndexOr to dereference or fall back")
	}
	if InRange(-1, 2) || InRange(2, 2) || !InRange(1, 2) {
		t.Error("expected InRange to accept only [0, n)")
	}
}

func TestMath(t *testing.T) {
	q := QuatFromVec4(mgl32.Vec4{0, 0, 0, 1})
	if q.W != 1 || q.V.Len() != 0 {
		t.Errorf("expected identity quaternion, got %v", q)
	}
	if got := MixVec4(mgl32.Vec4{}, mgl32.Vec4{2, 4, 6, 8}, 0.5); got != (mgl32.Vec4{1, 2, 3, 4}) {
		t.Errorf("expected midpoint, got %v", got)
	}
	if got := MinVec3(mgl32.Vec3{1, 5, 3}, mgl32.Vec3{2, 4, 6}); got != (mgl32.Vec3{1, 4, 3}) {
		t.Errorf("expected component minimum, got %v", got)
	}
	if got := MaxVec3(mgl32.Vec3{1, 5, 3}, mgl32.Vec3{2, 4, 6}); got != (mgl32.Vec3{2, 5, 6}) {
		t.Errorf("expected component maximum, got %v", got)
	}

	m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2))
	if got := TransformPoint(m, mgl32.Vec3{1, 1, 1}); !got.ApproxEqual(mgl32.Vec3{3, 4, 5}) {
		t.Errorf("expected (3,4,5), got %v", got)
	}
	if got := TransformDirection(m, mgl32.Vec3{0, 3, 0}); !got.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("expected a unit direction ignoring translation, got %v", got)
	}
	if got := TransformDirection(m, mgl32.Vec3{}); got != (mgl32.Vec3{}) {
		t.Errorf("expected zero direction unchanged, got %v", got)
	}
}

func TestBytesViews(t *testing.T) {
	if SliceToBytes([]float32{}) != nil {
		t.Error("expected nil for an empty slice")
	}
	if got := len(SliceToBytes([]float32{1, 2, 3})); got != 12 {
		t.Errorf("expected 12 bytes, got %d", got)
	}
	v := mgl32.Vec4{1, 2, 3, 4}
	if got := len(StructToBytes(&v)); got != 16 {
		t.Errorf("expected 16 bytes, got %d", got)
	}
}
