package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrInvalidImage marks input that cannot be decoded as a supported image.
var ErrInvalidImage = errors.New("invalid image")

// Decoder turns uploaded bytes into an opaque RGB image. The container
// format is sniffed from the content; file names and MIME types are ignored.
type Decoder struct {
	maxPixels int64
}

// NewDecoder returns a decoder that rejects images with more than maxPixels
// pixels before decoding them.
func NewDecoder(maxPixels int64) *Decoder {
	return &Decoder{maxPixels: maxPixels}
}

// Decode parses data and returns it as RGB with alpha discarded, together
// with the detected format name.
func (d *Decoder) Decode(data []byte) (*image.RGBA, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty upload", ErrInvalidImage)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, format, fmt.Errorf("%w: %dx%d image", ErrInvalidImage, cfg.Width, cfg.Height)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); d.maxPixels > 0 && pixels > d.maxPixels {
		return nil, format, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, d.maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	return toRGB(img), format, nil
}

// toRGB copies src into an opaque RGBA image. Colour channels are taken
// un-premultiplied so translucent pixels keep their colour rather than being
// blended towards black.
func toRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			i := dst.PixOffset(x-b.Min.X, y-b.Min.Y)
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = 0xff
		}
	}
	return dst
}
