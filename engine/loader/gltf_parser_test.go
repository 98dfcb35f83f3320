package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func parse(t *testing.T, data []byte, baseDir string) gltfParser {
	t.Helper()
	p := newGLTFParser()
	if err := p.ParseReader(bytes.NewReader(data), baseDir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestReadFloatsWithStride(t *testing.T) {
	d := newDocBuilder()
	// Two VEC2 elements interleaved with 8 bytes of padding each.
	v := d.view(floatBytes(1, 2, 99, 99, 3, 4, 99, 99), 16)
	d.doc.Accessors = append(d.doc.Accessors, gltfAccessor{
		BufferView: ptr(v), ComponentType: gltfComponentTypeFloat, Type: gltfAccessorTypeVec2, Count: 2,
	})
	p := parse(t, d.json(t), "")

	values, comps, err := p.ReadFloats(0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comps != 2 || len(values) != 4 {
		t.Fatalf("expected 2 components and 4 values, got %d and %d", comps, len(values))
	}
	for i, want := range []float32{1, 2, 3, 4} {
		if values[i] != want {
			t.Errorf("value %d: expected %v, got %v", i, want, values[i])
		}
	}
}

func TestReadFloatsNormalized(t *testing.T) {
	d := newDocBuilder()
	d.accessor([]byte{0, 51, 255, 0}, gltfComponentTypeUnsignedByte, gltfAccessorTypeScalar, 3)
	b := d.accessor([]byte{0x81, 0x7f, 0, 0}, gltfComponentTypeByte, gltfAccessorTypeScalar, 2)
	p := parse(t, d.json(t), "")

	raw, _, err := p.ReadFloats(0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw[1] != 51 {
		t.Errorf("expected the raw value 51, got %v", raw[1])
	}

	norm, _, err := p.ReadFloats(0, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if norm[1] != 0.2 || norm[2] != 1 {
		t.Errorf("expected [0 0.2 1], got %v", norm)
	}

	signed, _, err := p.ReadFloats(b, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signed[0] != -1 || signed[1] != 1 {
		t.Errorf("expected [-1 1], got %v", signed)
	}
}

func TestReadAccessorWithoutBufferView(t *testing.T) {
	d := newDocBuilder()
	d.doc.Accessors = []gltfAccessor{{ComponentType: gltfComponentTypeFloat, Type: gltfAccessorTypeVec3, Count: 2}}
	p := parse(t, d.json(t), "")

	values, _, err := p.ReadFloats(0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 6 {
		t.Fatalf("expected 6 values, got %d", len(values))
	}
	for _, v := range values {
		if v != 0 {
			t.Errorf("expected zeros, got %v", values)
			break
		}
	}
}

func TestReadAccessorErrors(t *testing.T) {
	d := newDocBuilder()
	v := d.view(floatBytes(1, 2, 3), 0)
	d.doc.Accessors = []gltfAccessor{
		{BufferView: ptr(v), ComponentType: gltfComponentTypeFloat, Type: gltfAccessorTypeVec3, Count: 2},
		{BufferView: ptr(v), ComponentType: gltfComponentTypeFloat, Type: gltfAccessorTypeScalar, Count: 1, Sparse: &struct {
			Count int `json:"count"`
		}{Count: 1}},
		{BufferView: ptr(v), ComponentType: 1234, Type: gltfAccessorTypeScalar, Count: 1},
		{BufferView: ptr(7), ComponentType: gltfComponentTypeFloat, Type: gltfAccessorTypeScalar, Count: 1},
		{BufferView: ptr(v), ByteOffset: -8, ComponentType: gltfComponentTypeFloat, Type: gltfAccessorTypeScalar, Count: 1},
		{BufferView: ptr(v), ComponentType: gltfComponentTypeFloat, Type: gltfAccessorTypeVec3, Count: 1 << 40},
		{ComponentType: gltfComponentTypeFloat, Type: gltfAccessorTypeVec3, Count: 1 << 40},
		{BufferView: ptr(v + 1), ComponentType: gltfComponentTypeFloat, Type: gltfAccessorTypeScalar, Count: 1},
	}
	d.doc.BufferViews = append(d.doc.BufferViews, gltfBufferView{Buffer: 0, ByteOffset: -4, ByteLength: 8})
	p := parse(t, d.json(t), "")

	tests := []struct {
		name     string
		accessor int
		want     error
	}{
		{"reads past the view", 0, ErrAccessorRange},
		{"sparse", 1, ErrSparseAccessor},
		{"unknown component type", 2, ErrUnsupportedComponentType},
		{"missing buffer view", 3, ErrAccessorRange},
		{"missing accessor", 42, ErrAccessorRange},
		{"negative accessor offset", 4, ErrAccessorRange},
		{"huge count", 5, ErrAccessorRange},
		{"huge count without a view", 6, ErrAccessorRange},
		{"negative view offset", 7, ErrAccessorRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.ReadAccessorData(tt.accessor); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestReadableCount(t *testing.T) {
	d := newDocBuilder()
	pos := d.positions(0, 0, 0, 1, 0, 0)
	d.doc.Accessors[pos].Count = 1 << 40
	d.doc.Accessors = append(d.doc.Accessors, gltfAccessor{ComponentType: gltfComponentTypeFloat, Type: gltfAccessorTypeVec3, Count: 5})

	if n := readableCount(&d.doc, pos); n > 3 {
		t.Errorf("expected the count bounded by a 24 byte view, got %d", n)
	}
	if n := readableCount(&d.doc, pos+1); n != 5 {
		t.Errorf("expected 5 zero elements, got %d", n)
	}
	if n := readableCount(&d.doc, 42); n != 0 {
		t.Errorf("expected 0 for a missing accessor, got %d", n)
	}
}

func TestReadIndices(t *testing.T) {
	d := newDocBuilder()
	u8 := d.accessor([]byte{3, 2, 1}, gltfComponentTypeUnsignedByte, gltfAccessorTypeScalar, 3)
	u16 := d.indices16(500, 1)
	u32 := d.accessor([]byte{0, 0, 1, 0}, gltfComponentTypeUnsignedInt, gltfAccessorTypeScalar, 1)
	short := d.accessor(u16Bytes(1), gltfComponentTypeShort, gltfAccessorTypeScalar, 1)
	p := parse(t, d.json(t), "")

	if got, err := p.ReadIndices(u8); err != nil || len(got) != 3 || got[0] != 3 {
		t.Errorf("expected [3 2 1], got %v (%v)", got, err)
	}
	if got, err := p.ReadIndices(u16); err != nil || got[0] != 500 {
		t.Errorf("expected [500 1], got %v (%v)", got, err)
	}
	if got, err := p.ReadIndices(u32); err != nil || got[0] != 65536 {
		t.Errorf("expected [65536], got %v (%v)", got, err)
	}
	if _, err := p.ReadIndices(short); !errors.Is(err, ErrUnsupportedIndexType) {
		t.Errorf("expected ErrUnsupportedIndexType, got %v", err)
	}
}

func TestReadJointsAndMatrices(t *testing.T) {
	d := newDocBuilder()
	joints := d.accessor([]byte{1, 2, 3, 4}, gltfComponentTypeUnsignedByte, gltfAccessorTypeVec4, 1)
	m := floatBytes(1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 7, 8, 9, 1)
	mats := d.accessor(m, gltfComponentTypeFloat, gltfAccessorTypeMat4, 1)
	p := parse(t, d.json(t), "")

	j, err := p.ReadJoints(joints)
	if err != nil || len(j) != 1 || j[0] != [4]uint32{1, 2, 3, 4} {
		t.Errorf("expected [[1 2 3 4]], got %v (%v)", j, err)
	}
	got, err := p.ReadMat4s(mats)
	if err != nil || len(got) != 1 || got[0][12] != 7 || got[0][14] != 9 {
		t.Errorf("expected a translation of (7,8,9), got %v (%v)", got, err)
	}
	if _, err := p.ReadMat4s(joints); err == nil {
		t.Error("expected an error reading a VEC4 as MAT4")
	}
}

func TestParseErrors(t *testing.T) {
	glbHeader := func(magic, version uint32) []byte {
		var buf bytes.Buffer
		binary.Write(&buf, binary.LittleEndian, gltfGLBHeader{Magic: magic, Version: version, Length: 12})
		return buf.Bytes()
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"version 1", []byte(`{"asset":{"version":"1.0"}}`), ErrInvalidGLTFVersion},
		{"bad data URI", []byte(`{"asset":{"version":"2.0"},"buffers":[{"uri":"data:application/octet-stream,AAAA","byteLength":3}]}`), ErrInvalidDataURI},
		{"short buffer", []byte(`{"asset":{"version":"2.0"},"buffers":[{"uri":"data:application/octet-stream;base64,AAAA","byteLength":8}]}`), ErrBufferSize},
		{"GLB version", glbHeader(gltfGLBMagic, 1), ErrInvalidGLB},
		{"GLB without JSON", glbHeader(gltfGLBMagic, gltfGLBVersion), ErrInvalidGLB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newGLTFParser().ParseReader(bytes.NewReader(tt.data), "")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if err := newGLTFParser().ParseReader(bytes.NewReader([]byte("not json")), ""); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestGLBTruncatedChunk(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: 40})
	binary.Write(&buf, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: 100, ChunkType: gltfGLBChunkJSON})
	buf.WriteString("{}")

	err := newGLTFParser().ParseReader(&buf, "")
	if !errors.Is(err, ErrInvalidGLB) {
		t.Errorf("expected ErrInvalidGLB, got %v", err)
	}
}

func TestExternalBufferAndImage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "data.bin"), floatBytes(1, 2, 3), 0o644); err != nil {
		t.Fatalf("write buffer: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "albedo.png"), []byte("png bytes"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	doc := []byte(`{
		"asset": {"version": "2.0"},
		"buffers": [{"uri": "data.bin", "byteLength": 12}],
		"bufferViews": [{"buffer": 0, "byteLength": 12}],
		"accessors": [{"bufferView": 0, "componentType": 5126, "type": "VEC3", "count": 1}],
		"images": [{"uri": "albedo.png"}, {"bufferView": 0, "mimeType": "image/png"}, {}]
	}`)
	p := parse(t, doc, dir)

	values, _, err := p.ReadFloats(0, false)
	if err != nil || values[2] != 3 {
		t.Errorf("expected [1 2 3], got %v (%v)", values, err)
	}
	img, err := p.ImageData(0)
	if err != nil || string(img) != "png bytes" {
		t.Errorf("expected the file contents, got %q (%v)", img, err)
	}
	if img, err := p.ImageData(1); err != nil || len(img) != 12 {
		t.Errorf("expected 12 bytes from the buffer view, got %d (%v)", len(img), err)
	}
	if _, err := p.ImageData(2); err == nil {
		t.Error("expected an error for an image without a source")
	}
	if _, err := p.ImageData(9); err == nil {
		t.Error("expected an error for an image out of range")
	}
}
