package texture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

func TestToRGBAFromRGB(t *testing.T) {
	img := Image{Pixels: []byte{10, 20, 30, 40, 50, 60}, Width: 2, Height: 1, Components: 3}

	out, err := ToRGBA(img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(out))
	}
	want := []byte{10, 20, 30, 0, 40, 50, 60, 0}
	if !bytes.Equal(out, want) {
		t.Errorf("expected %v, got %v", want, out)
	}
}

func TestToRGBAPassesRGBAThrough(t *testing.T) {
	pixels := []byte{1, 2, 3, 4}
	out, err := ToRGBA(Image{Pixels: pixels, Width: 1, Height: 1, Components: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if &out[0] != &pixels[0] {
		t.Error("expected RGBA input to be returned without a copy")
	}
}

func TestToRGBAExpandsLuminance(t *testing.T) {
	out, err := ToRGBA(Image{Pixels: []byte{7}, Width: 1, Height: 1, Components: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []byte{7, 7, 7, 255}; !bytes.Equal(out, want) {
		t.Errorf("expected %v, got %v", want, out)
	}

	out, err = ToRGBA(Image{Pixels: []byte{9, 100}, Width: 1, Height: 1, Components: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []byte{9, 9, 9, 100}; !bytes.Equal(out, want) {
		t.Errorf("expected %v, got %v", want, out)
	}
}

func TestToRGBARejectsBadInput(t *testing.T) {
	if _, err := ToRGBA(Image{Pixels: make([]byte, 5), Width: 1, Height: 1, Components: 5}); !errors.Is(err, ErrComponents) {
		t.Errorf("expected ErrComponents, got %v", err)
	}
	if _, err := ToRGBA(Image{Pixels: make([]byte, 5), Width: 2, Height: 1, Components: 3}); !errors.Is(err, ErrPixelCount) {
		t.Errorf("expected ErrPixelCount, got %v", err)
	}
	if _, err := ToRGBA(Image{Width: 0, Height: 1, Components: 4}); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	img, err := Decode(encodePNG(t, 3, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Width != 3 || img.Height != 2 {
		t.Errorf("expected 3x2, got %dx%d", img.Width, img.Height)
	}
	if img.Components != 4 {
		t.Errorf("expected 4 components, got %d", img.Components)
	}
	if len(img.Pixels) != 3*2*4 {
		t.Errorf("expected %d bytes, got %d", 3*2*4, len(img.Pixels))
	}
	// pixel (2, 1)
	px := img.Pixels[(1*3+2)*4:]
	if px[0] != 20 || px[1] != 10 || px[2] != 200 || px[3] != 255 {
		t.Errorf("expected (20,10,200,255), got %v", px[:4])
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not an image")); err == nil {
		t.Error("expected an error for unknown data")
	}
}

func TestLoadFromImageBuildsFullMipChain(t *testing.T) {
	dev := renderer.NewHeadlessDevice()
	img := Image{Pixels: make([]byte, 8*4*3), Width: 8, Height: 4, Components: 3}

	tex, err := LoadFromImage(dev, img, common.DefaultSampler(), "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tex.MipLevels() != 4 {
		t.Errorf("expected 4 mip levels, got %d", tex.MipLevels())
	}
	ht := tex.(*renderer.HeadlessTexture)
	if last := ht.Levels[len(ht.Levels)-1]; len(last) != 4 {
		t.Errorf("expected a 1x1 last level, got %d bytes", len(last))
	}
	if dev.Stats().Textures != 1 {
		t.Errorf("expected 1 texture, got %d", dev.Stats().Textures)
	}
}

// buildKTX writes a KTX 1.1 container with the given GL format and stored levels.
func buildKTX(format uint32, w, h uint32, levels [][]byte) []byte {
	var buf bytes.Buffer
	buf.Write(ktxIdentifier)
	header := ktxHeader{
		Endianness:           ktxEndianness,
		GLType:               glUnsignedByte,
		GLTypeSize:           1,
		GLFormat:             format,
		GLInternalFormat:     format,
		GLBaseInternalFormat: format,
		PixelWidth:           w,
		PixelHeight:          h,
		NumberOfFaces:        1,
		NumberOfMipmapLevels: uint32(len(levels)),
	}
	_ = binary.Write(&buf, binary.LittleEndian, header)
	for _, l := range levels {
		_ = binary.Write(&buf, binary.LittleEndian, uint32(len(l)))
		buf.Write(l)
		for buf.Len()%4 != 0 {
			buf.WriteByte(0)
		}
	}
	return buf.Bytes()
}

func TestParseKTXStripsRowPadding(t *testing.T) {
	// 1x2 RGB: each 3 byte row is padded to 4.
	level := []byte{1, 2, 3, 0, 4, 5, 6, 0}
	ktx, err := ParseKTX(buildKTX(glRGB, 1, 2, [][]byte{level}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ktx.Levels) != 1 {
		t.Fatalf("expected 1 level, got %d", len(ktx.Levels))
	}
	want := []byte{1, 2, 3, 0, 4, 5, 6, 0}
	if !bytes.Equal(ktx.Levels[0], want) {
		t.Errorf("expected %v, got %v", want, ktx.Levels[0])
	}
	if ktx.MipLevels != 1 {
		t.Errorf("expected 1 mip level, got %d", ktx.MipLevels)
	}
}

func TestParseKTXErrors(t *testing.T) {
	if _, err := ParseKTX([]byte("short")); !errors.Is(err, ErrNotKTX) {
		t.Errorf("expected ErrNotKTX, got %v", err)
	}

	data := buildKTX(0x1903, 1, 1, [][]byte{{1, 0, 0, 0}})
	if _, err := ParseKTX(data); !errors.Is(err, ErrKTXFormat) {
		t.Errorf("expected ErrKTXFormat, got %v", err)
	}

	data = buildKTX(glRGBA, 2, 2, [][]byte{make([]byte, 16)})
	if _, err := ParseKTX(data[:len(data)-8]); !errors.Is(err, ErrKTXTruncated) {
		t.Errorf("expected ErrKTXTruncated, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	dev := renderer.NewHeadlessDevice()

	ktxPath := filepath.Join(dir, "tex.ktx")
	levels := [][]byte{make([]byte, 2*2*4), make([]byte, 4)}
	if err := os.WriteFile(ktxPath, buildKTX(glRGBA, 2, 2, levels), 0o644); err != nil {
		t.Fatal(err)
	}
	tex, err := LoadFromFile(dev, ktxPath, common.DefaultSampler())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tex.MipLevels() != 2 || tex.Width() != 2 {
		t.Errorf("expected a 2 level 2x2 texture, got %d levels %dx%d", tex.MipLevels(), tex.Width(), tex.Height())
	}

	pngPath := filepath.Join(dir, "tex.png")
	if err := os.WriteFile(pngPath, encodePNG(t, 4, 4), 0o644); err != nil {
		t.Fatal(err)
	}
	tex, err = LoadFromFile(dev, pngPath, common.DefaultSampler())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tex.MipLevels() != 3 {
		t.Errorf("expected 3 mip levels, got %d", tex.MipLevels())
	}

	if _, err := LoadFromFile(dev, filepath.Join(dir, "missing.png"), common.DefaultSampler()); err == nil {
		t.Error("expected an error for a missing file")
	}
}
