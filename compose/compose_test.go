package compose

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var subject = color.NRGBA{R: 10, G: 200, B: 30, A: 255}

// cutout 四周透明、中间不透明的前景
func cutout(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := h / 4; y < h*3/4; y++ {
		for x := w / 4; x < w*3/4; x++ {
			img.SetNRGBA(x, y, subject)
		}
	}
	return img
}

func isTransparentAt(img image.Image, x, y int) bool {
	_, _, _, a := img.At(x, y).RGBA()
	return a == 0
}

func TestRender_NilForeground(t *testing.T) {
	assert.Nil(t, Render(nil, Blue))
}

func TestRender_Size(t *testing.T) {
	sizes := []image.Point{{1, 1}, {3, 7}, {400, 300}, {64, 64}, {1, 500}}

	for _, size := range sizes {
		for _, bg := range Swatches {
			got := Render(cutout(size.X, size.Y), bg)
			require.NotNil(t, got)
			assert.Equal(t, image.Rect(0, 0, size.X, size.Y), got.Bounds(), "size %v bg %s", size, bg)
		}
	}
}

func TestRender_OffsetBounds(t *testing.T) {
	fg := image.NewNRGBA(image.Rect(10, 20, 30, 25))
	fg.SetNRGBA(10, 20, subject)

	got := Render(fg, Transparent)
	assert.Equal(t, image.Rect(0, 0, 20, 5), got.Bounds())
	assert.Equal(t, subject, got.NRGBAAt(0, 0))
}

func TestRender_Transparent(t *testing.T) {
	got := Render(cutout(40, 20), Transparent)

	assert.True(t, isTransparentAt(got, 0, 0))
	assert.True(t, isTransparentAt(got, 39, 19))
	assert.Equal(t, subject, got.NRGBAAt(20, 10))
}

func TestRender_SolidFill(t *testing.T) {
	tests := []struct {
		bg   Background
		want color.NRGBA
	}{
		{White, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{Red, color.NRGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}},
		{Blue, color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.bg.String(), func(t *testing.T) {
			got := Render(cutout(40, 20), tt.bg)

			for _, p := range []image.Point{{0, 0}, {39, 0}, {0, 19}, {39, 19}, {5, 10}} {
				assert.Equal(t, tt.want, got.NRGBAAt(p.X, p.Y), "pixel %v", p)
			}
			assert.Equal(t, subject, got.NRGBAAt(20, 10))
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	fg := cutout(33, 17)

	first := Render(fg, Red)
	second := Render(fg, Red)
	assert.Equal(t, first.Pix, second.Pix)
	assert.NotSame(t, first, second)
}

func TestRender_SemiTransparentBlend(t *testing.T) {
	fg := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	fg.SetNRGBA(0, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 128})

	got := Render(fg, White).NRGBAAt(0, 0)
	assert.Equal(t, uint8(0xff), got.A)
	assert.InDelta(t, 127, int(got.R), 1)
}
