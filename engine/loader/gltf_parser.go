package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

var (
	// ErrInvalidGLTFVersion is returned for assets whose asset.version is not 2.x.
	ErrInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.0")
	// ErrInvalidGLB is returned for a malformed GLB container.
	ErrInvalidGLB = errors.New("invalid GLB container")
	// ErrInvalidDataURI is returned for data URIs that are not base64 encoded.
	ErrInvalidDataURI = errors.New("invalid data URI")
	// ErrBufferSize is returned when a buffer holds fewer bytes than its declared byteLength.
	ErrBufferSize = errors.New("buffer size mismatch")
	// ErrAccessorRange is returned when an accessor, buffer view or buffer index or range is out of bounds.
	ErrAccessorRange = errors.New("accessor out of range")
	// ErrSparseAccessor is returned for sparse accessors, which are not supported.
	ErrSparseAccessor = errors.New("sparse accessors are not supported")
	// ErrUnsupportedComponentType is returned when an accessor's component type is invalid for its use.
	ErrUnsupportedComponentType = errors.New("unsupported accessor component type")
	// ErrUnsupportedIndexType is returned for index accessors that are not unsigned byte, short or int.
	ErrUnsupportedIndexType = errors.New("unsupported index component type")
)

// maxZeroAccessorBytes caps the size of accessors materialized without a buffer view.
const maxZeroAccessorBytes = 64 << 20

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	baseDir        string
	document       *gltfDocument
	glbBinaryChunk []byte
}

// gltfParser loads glTF JSON and GLB containers and reads typed accessor data out of them.
type gltfParser interface {
	// Parse loads a .gltf or .glb file. GLB is detected by extension or magic number.
	//
	// Parameters:
	//   - path: path to the glTF or GLB file
	//
	// Returns:
	//   - error: error if reading or parsing fails
	Parse(path string) error

	// ParseReader parses a document from a reader. External URIs resolve against baseDir.
	//
	// Parameters:
	//   - r: reader containing glTF JSON or GLB data
	//   - baseDir: directory for relative URIs
	//
	// Returns:
	//   - error: error if parsing fails
	ParseReader(r io.Reader, baseDir string) error

	// Document returns the parsed document, nil before a successful parse.
	Document() *gltfDocument

	// BaseDir returns the directory relative URIs resolve against.
	BaseDir() string

	// ReadAccessorData returns an accessor's elements tightly packed, with any byte stride removed.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - []byte: count * elementSize bytes
	//   - error: ErrAccessorRange or ErrSparseAccessor
	ReadAccessorData(accessorIndex int) ([]byte, error)

	// ReadFloats converts an accessor to float32 components. Integer components are normalized
	// when the accessor is flagged normalized or normalize is set.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//   - normalize: whether integer components map to [0, 1] / [-1, 1]
	//
	// Returns:
	//   - []float32: count * components values
	//   - int: the number of components per element
	//   - error: error if reading fails
	ReadFloats(accessorIndex int, normalize bool) ([]float32, int, error)

	// ReadIndices reads an index accessor of unsigned byte, short or int components.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - []uint32: the indices
	//   - error: ErrUnsupportedIndexType for other component types
	ReadIndices(accessorIndex int) ([]uint32, error)

	// ReadJoints reads a VEC4 joint accessor of unsigned byte or short components.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - [][4]uint32: the joint indices
	//   - error: ErrUnsupportedComponentType for other component types
	ReadJoints(accessorIndex int) ([][4]uint32, error)

	// ReadMat4s reads a MAT4 float accessor.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - [][16]float32: column-major matrices
	//   - error: error if reading fails
	ReadMat4s(accessorIndex int) ([][16]float32, error)

	// ImageData returns the encoded bytes of an image from its buffer view, data URI or file.
	//
	// Parameters:
	//   - imageIndex: the index of the image
	//
	// Returns:
	//   - []byte: the encoded image
	//   - error: error if the image cannot be read
	ImageData(imageIndex int) ([]byte, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new glTF parser instance.
//
// Returns:
//   - gltfParser: a new parser instance
func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) BaseDir() string {
	return p.baseDir
}

func (p *gltfParserImpl) Parse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	p.baseDir = filepath.Dir(path)

	if strings.EqualFold(filepath.Ext(path), ".glb") || isGLB(data) {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

func (p *gltfParserImpl) ParseReader(r io.Reader, baseDir string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read data: %w", err)
	}
	p.baseDir = baseDir

	if isGLB(data) {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

func isGLB(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == gltfGLBMagic
}

func (p *gltfParserImpl) parseGLTF(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return fmt.Errorf("%q: %w", doc.Asset.Version, ErrInvalidGLTFVersion)
	}
	if err := p.loadBuffers(&doc); err != nil {
		return fmt.Errorf("load buffers: %w", err)
	}
	p.document = &doc
	return nil
}

// parseGLB splits a GLB container into its JSON and BIN chunks.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (p *gltfParserImpl) parseGLB(data []byte) error {
	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("read GLB header: %w", ErrInvalidGLB)
	}
	if header.Magic != gltfGLBMagic {
		return fmt.Errorf("magic 0x%08x: %w", header.Magic, ErrInvalidGLB)
	}
	if header.Version != gltfGLBVersion {
		return fmt.Errorf("version %d: %w", header.Version, ErrInvalidGLB)
	}

	var jsonData, binData []byte
	for {
		var chunk gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read chunk header: %w", ErrInvalidGLB)
		}
		if int64(chunk.ChunkLength) > int64(r.Len()) {
			return fmt.Errorf("chunk of %d bytes with %d remaining: %w", chunk.ChunkLength, r.Len(), ErrInvalidGLB)
		}

		body := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return fmt.Errorf("read chunk: %w", err)
		}
		switch chunk.ChunkType {
		case gltfGLBChunkJSON:
			jsonData = body
		case gltfGLBChunkBIN:
			if binData == nil {
				binData = body
			}
		}
	}
	if jsonData == nil {
		return fmt.Errorf("missing JSON chunk: %w", ErrInvalidGLB)
	}

	p.glbBinaryChunk = binData
	return p.parseGLTF(jsonData)
}

func (p *gltfParserImpl) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && p.glbBinaryChunk != nil:
			buf.Data = p.glbBinaryChunk
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		case strings.HasPrefix(buf.URI, "data:"):
			data, _, err := decodeDataURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		default:
			data, err := os.ReadFile(filepath.Join(p.baseDir, buf.URI))
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d holds %d of %d bytes: %w", i, len(buf.Data), buf.ByteLength, ErrBufferSize)
		}
	}
	return nil
}

// decodeDataURI decodes data:[<mediatype>];base64,<data> and returns the media type.
func decodeDataURI(uri string) ([]byte, string, error) {
	comma := strings.IndexByte(uri, ',')
	if !strings.HasPrefix(uri, "data:") || comma < 0 {
		return nil, "", ErrInvalidDataURI
	}
	header := uri[len("data:"):comma]
	if !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("encoding %q: %w", header, ErrInvalidDataURI)
	}

	data, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}
	return data, strings.TrimSuffix(header, ";base64"), nil
}

func (p *gltfParserImpl) accessor(accessorIndex int) (*gltfAccessor, error) {
	if p.document == nil {
		return nil, errors.New("no document loaded")
	}
	if accessorIndex < 0 || accessorIndex >= len(p.document.Accessors) {
		return nil, fmt.Errorf("accessor %d of %d: %w", accessorIndex, len(p.document.Accessors), ErrAccessorRange)
	}
	return &p.document.Accessors[accessorIndex], nil
}

func (p *gltfParserImpl) ReadAccessorData(accessorIndex int) ([]byte, error) {
	acc, err := p.accessor(accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.Sparse != nil {
		return nil, fmt.Errorf("accessor %d: %w", accessorIndex, ErrSparseAccessor)
	}

	elementSize := gltfComponentTypeSize(acc.ComponentType) * gltfAccessorTypeComponentCount(acc.Type)
	if elementSize == 0 || acc.Count < 0 {
		return nil, fmt.Errorf("accessor %d: %s of %d: %w", accessorIndex, acc.Type, acc.ComponentType, ErrUnsupportedComponentType)
	}
	// Accessors without a buffer view are all zeros.
	if acc.BufferView == nil || acc.Count == 0 {
		if acc.Count > maxZeroAccessorBytes/elementSize {
			return nil, fmt.Errorf("accessor %d: %d zero elements: %w", accessorIndex, acc.Count, ErrAccessorRange)
		}
		return make([]byte, acc.Count*elementSize), nil
	}

	doc := p.document
	if *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor %d: buffer view %d: %w", accessorIndex, *acc.BufferView, ErrAccessorRange)
	}
	bv := &doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("accessor %d: buffer %d: %w", accessorIndex, bv.Buffer, ErrAccessorRange)
	}
	buf := &doc.Buffers[bv.Buffer]
	if acc.ByteOffset < 0 || bv.ByteOffset < 0 || bv.ByteLength < 0 {
		return nil, fmt.Errorf("accessor %d: negative offset or length: %w", accessorIndex, ErrAccessorRange)
	}

	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	// Checked by division; a huge declared count must not overflow.
	start := bv.ByteOffset + acc.ByteOffset
	viewEnd := min(bv.ByteOffset+bv.ByteLength, len(buf.Data))
	room := viewEnd - start - elementSize
	if room < 0 || acc.Count-1 > room/stride {
		return nil, fmt.Errorf("accessor %d: %d elements from %d overrun view [%d, %d): %w",
			accessorIndex, acc.Count, start, bv.ByteOffset, viewEnd, ErrAccessorRange)
	}

	result := make([]byte, acc.Count*elementSize)
	for i := 0; i < acc.Count; i++ {
		src := start + i*stride
		copy(result[i*elementSize:(i+1)*elementSize], buf.Data[src:src+elementSize])
	}
	return result, nil
}

func (p *gltfParserImpl) ReadFloats(accessorIndex int, normalize bool) ([]float32, int, error) {
	acc, err := p.accessor(accessorIndex)
	if err != nil {
		return nil, 0, err
	}
	data, err := p.ReadAccessorData(accessorIndex)
	if err != nil {
		return nil, 0, err
	}

	components := gltfAccessorTypeComponentCount(acc.Type)
	size := gltfComponentTypeSize(acc.ComponentType)
	normalize = normalize || acc.Normalized

	out := make([]float32, acc.Count*components)
	for i := range out {
		out[i] = readComponent(data[i*size:], acc.ComponentType, normalize)
	}
	return out, components, nil
}

// readComponent decodes one little-endian component as float32. Signed normalized values clamp at -1.
func readComponent(b []byte, componentType int, normalize bool) float32 {
	switch componentType {
	case gltfComponentTypeFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case gltfComponentTypeUnsignedByte:
		if normalize {
			return float32(b[0]) / math.MaxUint8
		}
		return float32(b[0])
	case gltfComponentTypeByte:
		if normalize {
			return max(float32(int8(b[0]))/math.MaxInt8, -1)
		}
		return float32(int8(b[0]))
	case gltfComponentTypeUnsignedShort:
		v := binary.LittleEndian.Uint16(b)
		if normalize {
			return float32(v) / math.MaxUint16
		}
		return float32(v)
	case gltfComponentTypeShort:
		v := int16(binary.LittleEndian.Uint16(b))
		if normalize {
			return max(float32(v)/math.MaxInt16, -1)
		}
		return float32(v)
	case gltfComponentTypeUnsignedInt:
		return float32(binary.LittleEndian.Uint32(b))
	default:
		return 0
	}
}

func (p *gltfParserImpl) ReadIndices(accessorIndex int) ([]uint32, error) {
	acc, err := p.accessor(accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltfAccessorTypeScalar {
		return nil, fmt.Errorf("index accessor %d is %s: %w", accessorIndex, acc.Type, ErrUnsupportedIndexType)
	}
	switch acc.ComponentType {
	case gltfComponentTypeUnsignedByte, gltfComponentTypeUnsignedShort, gltfComponentTypeUnsignedInt:
	default:
		return nil, fmt.Errorf("index accessor %d component type %d: %w", accessorIndex, acc.ComponentType, ErrUnsupportedIndexType)
	}

	data, err := p.ReadAccessorData(accessorIndex)
	if err != nil {
		return nil, err
	}

	result := make([]uint32, acc.Count)
	for i := range result {
		switch acc.ComponentType {
		case gltfComponentTypeUnsignedByte:
			result[i] = uint32(data[i])
		case gltfComponentTypeUnsignedShort:
			result[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		case gltfComponentTypeUnsignedInt:
			result[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	}
	return result, nil
}

func (p *gltfParserImpl) ReadJoints(accessorIndex int) ([][4]uint32, error) {
	acc, err := p.accessor(accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltfAccessorTypeVec4 {
		return nil, fmt.Errorf("joints accessor %d is %s: %w", accessorIndex, acc.Type, ErrUnsupportedComponentType)
	}
	if acc.ComponentType != gltfComponentTypeUnsignedByte && acc.ComponentType != gltfComponentTypeUnsignedShort {
		return nil, fmt.Errorf("joints accessor %d component type %d: %w", accessorIndex, acc.ComponentType, ErrUnsupportedComponentType)
	}

	data, err := p.ReadAccessorData(accessorIndex)
	if err != nil {
		return nil, err
	}

	result := make([][4]uint32, acc.Count)
	for i := range result {
		for c := 0; c < 4; c++ {
			if acc.ComponentType == gltfComponentTypeUnsignedByte {
				result[i][c] = uint32(data[i*4+c])
			} else {
				result[i][c] = uint32(binary.LittleEndian.Uint16(data[(i*4+c)*2:]))
			}
		}
	}
	return result, nil
}

func (p *gltfParserImpl) ReadMat4s(accessorIndex int) ([][16]float32, error) {
	acc, err := p.accessor(accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltfAccessorTypeMat4 || acc.ComponentType != gltfComponentTypeFloat {
		return nil, fmt.Errorf("accessor %d is %s of %d, want MAT4 FLOAT: %w", accessorIndex, acc.Type, acc.ComponentType, ErrUnsupportedComponentType)
	}

	values, _, err := p.ReadFloats(accessorIndex, false)
	if err != nil {
		return nil, err
	}
	result := make([][16]float32, acc.Count)
	for i := range result {
		copy(result[i][:], values[i*16:])
	}
	return result, nil
}

func (p *gltfParserImpl) ImageData(imageIndex int) ([]byte, error) {
	doc := p.document
	if doc == nil || imageIndex < 0 || imageIndex >= len(doc.Images) {
		return nil, fmt.Errorf("image %d: %w", imageIndex, ErrAccessorRange)
	}
	img := &doc.Images[imageIndex]

	switch {
	case img.BufferView != nil:
		return p.bufferView(*img.BufferView)
	case strings.HasPrefix(img.URI, "data:"):
		data, _, err := decodeDataURI(img.URI)
		return data, err
	case img.URI != "":
		return os.ReadFile(filepath.Join(p.baseDir, img.URI))
	default:
		return nil, fmt.Errorf("image %d has neither a URI nor a buffer view", imageIndex)
	}
}

// bufferView returns the raw bytes of a buffer view without accessor interpretation.
func (p *gltfParserImpl) bufferView(index int) ([]byte, error) {
	doc := p.document
	if index < 0 || index >= len(doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d: %w", index, ErrAccessorRange)
	}
	bv := &doc.BufferViews[index]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer %d: %w", bv.Buffer, ErrAccessorRange)
	}
	buf := &doc.Buffers[bv.Buffer]
	end := bv.ByteOffset + bv.ByteLength
	if bv.ByteOffset < 0 || end > len(buf.Data) {
		return nil, fmt.Errorf("buffer view %d [%d, %d) of %d bytes: %w", index, bv.ByteOffset, end, len(buf.Data), ErrAccessorRange)
	}
	return buf.Data[bv.ByteOffset:end], nil
}

// readableCount bounds an accessor's declared count by the bytes that could back it.
// It is a sizing hint; ReadAccessorData does the exact range check.
func readableCount(doc *gltfDocument, index int) int {
	if !common.InRange(index, len(doc.Accessors)) {
		return 0
	}
	acc := &doc.Accessors[index]
	size := gltfComponentTypeSize(acc.ComponentType) * gltfAccessorTypeComponentCount(acc.Type)
	if size == 0 || acc.Count < 0 {
		return 0
	}
	limit := maxZeroAccessorBytes / size
	if acc.BufferView != nil {
		limit = 0
		if common.InRange(*acc.BufferView, len(doc.BufferViews)) {
			limit = max(doc.BufferViews[*acc.BufferView].ByteLength/size+1, 0)
		}
	}
	return min(acc.Count, limit)
}

func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4, gltfAccessorTypeMat2:
		return 4
	case gltfAccessorTypeMat3:
		return 9
	case gltfAccessorTypeMat4:
		return 16
	default:
		return 0
	}
}
