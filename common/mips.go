package common

import "math/bits"

// MipLevelCount returns the length of a full mip chain for an image: floor(log2(max(w, h))) + 1.
// A zero extent yields 1.
//
// Parameters:
//   - width: the level 0 width in pixels
//   - height: the level 0 height in pixels
//
// Returns:
//   - uint32: the number of mip levels down to 1x1
func MipLevelCount(width, height uint32) uint32 {
	m := max(width, height)
	if m == 0 {
		return 1
	}
	return uint32(bits.Len32(m))
}

// GenerateMipChain halves an RGBA8 image with a 2x2 box filter until the chain holds the
// requested number of levels. The first returned level is base itself. Odd extents clamp
// the sample footprint to the last row/column.
//
// Parameters:
//   - base: the level 0 texels, width*height*4 bytes
//   - width: the level 0 width
//   - height: the level 0 height
//   - levels: the total number of levels to return
//
// Returns:
//   - [][]byte: levels texel arrays, the first aliasing base
func GenerateMipChain(base []byte, width, height, levels uint32) [][]byte {
	if levels == 0 {
		return nil
	}
	chain := make([][]byte, 0, levels)
	chain = append(chain, base)

	src, sw, sh := base, width, height
	for l := uint32(1); l < levels; l++ {
		dw, dh := max(sw/2, 1), max(sh/2, 1)
		dst := make([]byte, int(dw)*int(dh)*TextureFormatRGBA8)
		for y := uint32(0); y < dh; y++ {
			y0 := min(y*2, sh-1)
			y1 := min(y*2+1, sh-1)
			for x := uint32(0); x < dw; x++ {
				x0 := min(x*2, sw-1)
				x1 := min(x*2+1, sw-1)
				for c := uint32(0); c < TextureFormatRGBA8; c++ {
					sum := uint32(src[(y0*sw+x0)*4+c]) +
						uint32(src[(y0*sw+x1)*4+c]) +
						uint32(src[(y1*sw+x0)*4+c]) +
						uint32(src[(y1*sw+x1)*4+c])
					dst[(y*dw+x)*4+c] = byte((sum + 2) / 4)
				}
			}
		}
		chain = append(chain, dst)
		src, sw, sh = dst, dw, dh
	}
	return chain
}
