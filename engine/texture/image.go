package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

var (
	// ErrComponents is returned for images with a component count other than 1 to 4.
	ErrComponents = errors.New("unsupported image component count")
	// ErrPixelCount is returned when an image buffer is smaller than its extent requires.
	ErrPixelCount = errors.New("pixel buffer smaller than image extent")
	// ErrEmptyImage is returned for images with a zero extent.
	ErrEmptyImage = errors.New("image has zero extent")
)

// Image is a decoded, tightly packed 8-bit image.
type Image struct {
	// Pixels holds Width*Height*Components bytes in row-major order.
	Pixels []byte
	// Width is the image width in pixels.
	Width uint32
	// Height is the image height in pixels.
	Height uint32
	// Components is the number of bytes per pixel (1 = L, 2 = LA, 3 = RGB, 4 = RGBA).
	Components int
}

// Decode decodes an encoded image (png, jpeg, gif, bmp, tiff or webp) into a 4 component Image.
//
// Parameters:
//   - data: the encoded file contents
//
// Returns:
//   - Image: the RGBA image
//   - error: error if the format is unknown or the data is corrupt
func Decode(data []byte) (Image, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return Image{}, fmt.Errorf("decode %s image: %w", format, ErrEmptyImage)
	}

	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)
	}

	return Image{
		Pixels:     rgba.Pix,
		Width:      uint32(bounds.Dx()),
		Height:     uint32(bounds.Dy()),
		Components: common.TextureFormatRGBA8,
	}, nil
}

// ToRGBA returns the image as tightly packed RGBA8 texels.
// Four component images are returned without copying. RGB input is repacked into a fresh
// buffer and the alpha byte of every pixel is left as allocated. L and LA input is expanded
// to grey RGB with opaque or stored alpha.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - []byte: Width*Height*4 bytes
//   - error: ErrEmptyImage, ErrComponents or ErrPixelCount
func ToRGBA(img Image) ([]byte, error) {
	if img.Width == 0 || img.Height == 0 {
		return nil, ErrEmptyImage
	}
	if img.Components < 1 || img.Components > 4 {
		return nil, fmt.Errorf("%d components: %w", img.Components, ErrComponents)
	}

	count := int(img.Width) * int(img.Height)
	if len(img.Pixels) < count*img.Components {
		return nil, fmt.Errorf("%dx%dx%d needs %d bytes, have %d: %w",
			img.Width, img.Height, img.Components, count*img.Components, len(img.Pixels), ErrPixelCount)
	}
	if img.Components == 4 {
		return img.Pixels[:count*4], nil
	}

	out := make([]byte, count*4)
	src := img.Pixels
	switch img.Components {
	case 3:
		for i := 0; i < count; i++ {
			out[i*4+0] = src[i*3+0]
			out[i*4+1] = src[i*3+1]
			out[i*4+2] = src[i*3+2]
		}
	case 2:
		for i := 0; i < count; i++ {
			l := src[i*2]
			out[i*4+0], out[i*4+1], out[i*4+2] = l, l, l
			out[i*4+3] = src[i*2+1]
		}
	case 1:
		for i := 0; i < count; i++ {
			l := src[i]
			out[i*4+0], out[i*4+1], out[i*4+2] = l, l, l
			out[i*4+3] = 0xff
		}
	}
	return out, nil
}
