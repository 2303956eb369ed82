package inference_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/absmach/flock/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// halfWhite returns a w x h PNG whose left half is white.
func halfWhite(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c := color.RGBA{A: 255}
			if x < w/2 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func TestPreprocess(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range gray.Pix {
		gray.Pix[i] = 51
	}
	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, gray, &jpeg.Options{Quality: 100}))

	cases := []struct {
		desc  string
		data  []byte
		size  int
		check func(t *testing.T, px []float64)
		err   error
	}{
		{
			desc: "downscale png keeps the white half",
			data: halfWhite(t, 56, 56),
			size: 28,
			check: func(t *testing.T, px []float64) {
				require.Len(t, px, 28*28)
				for y := range 28 {
					assert.InDelta(t, 1.0, px[y*28], 1e-9)
					assert.InDelta(t, 1.0, px[y*28+13], 1e-9)
					assert.InDelta(t, 0.0, px[y*28+14], 1e-9)
					assert.InDelta(t, 0.0, px[y*28+27], 1e-9)
				}
			},
		},
		{
			desc: "upscale jpeg",
			data: jpg.Bytes(),
			size: 8,
			check: func(t *testing.T, px []float64) {
				require.Len(t, px, 64)
				for _, p := range px {
					assert.InDelta(t, 0.2, p, 0.02)
				}
			},
		},
		{
			desc: "not an image",
			data: []byte("definitely not a png"),
			size: 28,
			err:  inference.ErrInvalidImage,
		},
		{
			desc: "empty payload",
			size: 28,
			err:  inference.ErrInvalidImage,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			px, err := inference.Preprocess(tc.data, tc.size)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			tc.check(t, px)
		})
	}
}
