package texture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

var ktxIdentifier = []byte{0xAB, 'K', 'T', 'X', ' ', '1', '1', 0xBB, '\r', '\n', 0x1A, '\n'}

const (
	ktxHeaderSize      = 64
	ktxEndianness      = 0x04030201
	glUnsignedByte     = 0x1401
	glRGB              = 0x1907
	glRGBA             = 0x1908
	ktxUnpackAlignment = 4
)

var (
	// ErrNotKTX is returned when the data does not start with the KTX 1.1 identifier.
	ErrNotKTX = errors.New("not a KTX 1.1 container")
	// ErrKTXFormat is returned for containers that are not uncompressed 8-bit RGB or RGBA 2D images.
	ErrKTXFormat = errors.New("unsupported KTX format")
	// ErrKTXTruncated is returned when a container ends before its declared image data.
	ErrKTXTruncated = errors.New("truncated KTX container")
)

// ktxHeader mirrors the thirteen uint32 fields following the KTX identifier.
type ktxHeader struct {
	Endianness            uint32
	GLType                uint32
	GLTypeSize            uint32
	GLFormat              uint32
	GLInternalFormat      uint32
	GLBaseInternalFormat  uint32
	PixelWidth            uint32
	PixelHeight           uint32
	PixelDepth            uint32
	NumberOfArrayElements uint32
	NumberOfFaces         uint32
	NumberOfMipmapLevels  uint32
	BytesOfKeyValueData   uint32
}

// KTX is a parsed KTX 1.1 2D texture with every stored level converted to RGBA8.
type KTX struct {
	// Width is the width of level 0 in pixels.
	Width uint32
	// Height is the height of level 0 in pixels.
	Height uint32
	// Levels holds the stored mip levels, level 0 first.
	Levels [][]byte
	// MipLevels is the level count the GPU image needs: the stored count, or a full chain
	// when the container asks for generated mips.
	MipLevels uint32
}

// ParseKTX parses a little-endian KTX 1.1 container holding an uncompressed GL_RGB or GL_RGBA
// GL_UNSIGNED_BYTE 2D texture. A container declaring zero mip levels yields only level 0
// and a full MipLevels count.
//
// Parameters:
//   - data: the container bytes
//
// Returns:
//   - *KTX: the parsed levels
//   - error: ErrNotKTX, ErrKTXFormat or ErrKTXTruncated
func ParseKTX(data []byte) (*KTX, error) {
	if len(data) < ktxHeaderSize || !bytes.Equal(data[:len(ktxIdentifier)], ktxIdentifier) {
		return nil, ErrNotKTX
	}

	var h ktxHeader
	if err := binary.Read(bytes.NewReader(data[len(ktxIdentifier):ktxHeaderSize]), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if h.Endianness != ktxEndianness {
		return nil, fmt.Errorf("big-endian container: %w", ErrKTXFormat)
	}
	if h.GLType != glUnsignedByte || (h.GLFormat != glRGB && h.GLFormat != glRGBA) {
		return nil, fmt.Errorf("glType 0x%x glFormat 0x%x: %w", h.GLType, h.GLFormat, ErrKTXFormat)
	}
	if h.PixelWidth == 0 || h.PixelHeight == 0 || h.PixelDepth > 1 || h.NumberOfFaces > 1 || h.NumberOfArrayElements > 1 {
		return nil, fmt.Errorf("%dx%dx%d, %d faces, %d layers: %w",
			h.PixelWidth, h.PixelHeight, h.PixelDepth, h.NumberOfFaces, h.NumberOfArrayElements, ErrKTXFormat)
	}

	components := 4
	if h.GLFormat == glRGB {
		components = 3
	}
	levels := max(h.NumberOfMipmapLevels, 1)

	out := &KTX{Width: h.PixelWidth, Height: h.PixelHeight, Levels: make([][]byte, 0, levels), MipLevels: levels}
	if h.NumberOfMipmapLevels == 0 {
		out.MipLevels = common.MipLevelCount(h.PixelWidth, h.PixelHeight)
	}
	offset := uint64(ktxHeaderSize) + uint64(h.BytesOfKeyValueData)
	for level := uint32(0); level < levels; level++ {
		if offset+4 > uint64(len(data)) {
			return nil, fmt.Errorf("level %d size: %w", level, ErrKTXTruncated)
		}
		size := uint64(binary.LittleEndian.Uint32(data[offset:]))
		offset += 4
		if offset+size > uint64(len(data)) {
			return nil, fmt.Errorf("level %d: %d bytes declared: %w", level, size, ErrKTXTruncated)
		}

		w, hgt := max(h.PixelWidth>>level, 1), max(h.PixelHeight>>level, 1)
		rgba, err := unpackRows(data[offset:offset+size], w, hgt, components)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", level, err)
		}
		out.Levels = append(out.Levels, rgba)
		offset += (size + 3) &^ 3
	}
	return out, nil
}

// unpackRows strips the 4 byte row alignment of a KTX level and widens it to RGBA.
func unpackRows(src []byte, w, h uint32, components int) ([]byte, error) {
	row := int(w) * components
	stride := (row + ktxUnpackAlignment - 1) &^ (ktxUnpackAlignment - 1)
	if need := stride*(int(h)-1) + row; len(src) < need {
		return nil, fmt.Errorf("%d bytes for %dx%d: %w", len(src), w, h, ErrKTXTruncated)
	}

	packed := src
	if stride != row {
		packed = make([]byte, row*int(h))
		for y := 0; y < int(h); y++ {
			copy(packed[y*row:(y+1)*row], src[y*stride:])
		}
	}
	return ToRGBA(Image{Pixels: packed, Width: w, Height: h, Components: components})
}
