package inference

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
)

// Preprocess decodes data, converts it to grayscale, scales it to size x size
// with nearest neighbour sampling and maps pixels to [0, 1] in row-major
// order, matching the pixels the trainers learn from.
func Preprocess(data []byte, size int) ([]float64, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}

	out := make([]float64, size*size)
	for y := range size {
		sy := b.Min.Y + y*h/size
		for x := range size {
			sx := b.Min.X + x*w/size
			g := color.GrayModel.Convert(img.At(sx, sy)).(color.Gray)
			out[y*size+x] = float64(g.Y) / 255
		}
	}

	return out, nil
}
