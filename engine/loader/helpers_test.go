package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

// docBuilder assembles a glTF document and its single binary buffer in memory.
type docBuilder struct {
	doc gltfDocument
	bin []byte
}

func newDocBuilder() *docBuilder {
	return &docBuilder{doc: gltfDocument{Asset: gltfAsset{Version: "2.0"}}}
}

func ptr[T any](v T) *T {
	return &v
}

func floatBytes(values ...float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func u16Bytes(values ...uint16) []byte {
	out := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

// view appends data as a new 4 byte aligned buffer view and returns its index.
func (d *docBuilder) view(data []byte, stride int) int {
	for len(d.bin)%4 != 0 {
		d.bin = append(d.bin, 0)
	}
	bv := gltfBufferView{Buffer: 0, ByteOffset: len(d.bin), ByteLength: len(data)}
	if stride > 0 {
		bv.ByteStride = ptr(stride)
	}
	d.bin = append(d.bin, data...)
	d.doc.BufferViews = append(d.doc.BufferViews, bv)
	return len(d.doc.BufferViews) - 1
}

// accessor appends data as a buffer view plus a tightly packed accessor.
func (d *docBuilder) accessor(data []byte, componentType int, typ string, count int) int {
	v := d.view(data, 0)
	d.doc.Accessors = append(d.doc.Accessors, gltfAccessor{
		BufferView:    ptr(v),
		ComponentType: componentType,
		Count:         count,
		Type:          typ,
	})
	return len(d.doc.Accessors) - 1
}

// positions appends a VEC3 float accessor with min/max.
func (d *docBuilder) positions(values ...float32) int {
	idx := d.accessor(floatBytes(values...), gltfComponentTypeFloat, gltfAccessorTypeVec3, len(values)/3)
	lo := []float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi := []float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for i, v := range values {
		lo[i%3], hi[i%3] = min(lo[i%3], v), max(hi[i%3], v)
	}
	d.doc.Accessors[idx].Min, d.doc.Accessors[idx].Max = lo, hi
	return idx
}

func (d *docBuilder) indices16(values ...uint16) int {
	return d.accessor(u16Bytes(values...), gltfComponentTypeUnsignedShort, gltfAccessorTypeScalar, len(values))
}

func (d *docBuilder) mesh(prims ...gltfPrimitive) int {
	d.doc.Meshes = append(d.doc.Meshes, gltfMesh{Primitives: prims})
	return len(d.doc.Meshes) - 1
}

func (d *docBuilder) node(n gltfNode) int {
	d.doc.Nodes = append(d.doc.Nodes, n)
	return len(d.doc.Nodes) - 1
}

// quad adds a unit quad in the XY plane spanning [-1, 1] with 6 indices.
func (d *docBuilder) quad(material *int) gltfPrimitive {
	pos := d.positions(-1, -1, 0, 1, -1, 0, 1, 1, 0, -1, 1, 0)
	idx := d.indices16(0, 1, 2, 0, 2, 3)
	return gltfPrimitive{Attributes: map[string]int{attrPosition: pos}, Indices: ptr(idx), Material: material}
}

func (d *docBuilder) finishBuffer() {
	for len(d.bin)%4 != 0 {
		d.bin = append(d.bin, 0)
	}
	if len(d.bin) > 0 {
		d.doc.Buffers = []gltfBuffer{{ByteLength: len(d.bin)}}
	}
}

// json returns the document with its buffer embedded as a base64 data URI.
func (d *docBuilder) json(t *testing.T) []byte {
	t.Helper()
	d.finishBuffer()
	if len(d.doc.Buffers) > 0 {
		d.doc.Buffers[0].URI = "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(d.bin)
	}
	out, err := json.Marshal(&d.doc)
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	return out
}

// glb returns the document as a GLB container with the buffer in the BIN chunk.
func (d *docBuilder) glb(t *testing.T) []byte {
	t.Helper()
	d.finishBuffer()
	js, err := json.Marshal(&d.doc)
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}

	var buf bytes.Buffer
	total := 12 + 8 + len(js) + 8 + len(d.bin)
	binary.Write(&buf, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(total)})
	binary.Write(&buf, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(js)), ChunkType: gltfGLBChunkJSON})
	buf.Write(js)
	binary.Write(&buf, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(d.bin)), ChunkType: gltfGLBChunkBIN})
	buf.Write(d.bin)
	return buf.Bytes()
}

// pngDataURI encodes a w x h opaque image as a PNG data URI.
func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// vertexAt decodes a vertex from the packed scene-wide vertex bytes.
func vertexAt(t *testing.T, data []byte, i int) scene.Vertex {
	t.Helper()
	if (i+1)*scene.VertexSize > len(data) {
		t.Fatalf("vertex %d outside %d bytes", i, len(data))
	}
	var v scene.Vertex
	copy(common.StructToBytes(&v), data[i*scene.VertexSize:(i+1)*scene.VertexSize])
	return v
}

func diagnosticsContaining(s *scene.Scene, sev scene.Severity, substr string) int {
	n := 0
	for _, d := range s.Diagnostics {
		if d.Severity == sev && strings.Contains(d.Message, substr) {
			n++
		}
	}
	return n
}
