package preprocess

import (
	"image"

	"github.com/nfnt/resize"
)

const (
	// InputSize is the square edge length the classifier was trained on.
	InputSize = 224
	Channels  = 3

	// BatchLen is the number of values in a batch of one image.
	BatchLen = InputSize * InputSize * Channels
)

// Interpolation is the resampling kernel used for every request. Predictions
// are only reproducible when the same kernel is used across a deployment.
const Interpolation = resize.Bicubic

// Batch is one image laid out as NHWC float32 with a batch dimension of 1.
type Batch struct {
	Data []float32
}

// Shape returns the tensor shape of the batch.
func (b *Batch) Shape() []int64 {
	return []int64{1, InputSize, InputSize, Channels}
}

// At returns the normalized value of channel c at row y, column x.
func (b *Batch) At(y, x, c int) float32 {
	return b.Data[(y*InputSize+x)*Channels+c]
}

// Prepare resizes img to the model resolution and rescales each channel
// from [0,255] to [-1,1].
func Prepare(img image.Image) *Batch {
	resized := Resize(img)
	bounds := resized.Bounds()

	data := make([]float32, BatchLen)
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			i := (y*InputSize + x) * Channels
			data[i+0] = Normalize(uint8(r >> 8))
			data[i+1] = Normalize(uint8(g >> 8))
			data[i+2] = Normalize(uint8(b >> 8))
		}
	}

	return &Batch{Data: data}
}

// Resize scales img to InputSize x InputSize. An image that already has the
// target size is returned as is.
func Resize(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() == InputSize && b.Dy() == InputSize {
		return img
	}
	return resize.Resize(InputSize, InputSize, img, Interpolation)
}

// Normalize maps a channel intensity into the classifier's input range.
func Normalize(v uint8) float32 {
	return (float32(v)/255.0)*2.0 - 1.0
}
