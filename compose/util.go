package compose

import (
	"image"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// HasUsefulAlpha 只要存在非 255 的 alpha，就认为已经抠过图
func HasUsefulAlpha(img image.Image) bool {
	src := ToNRGBA(img)
	for i := 3; i < len(src.Pix); i += 4 {
		if src.Pix[i] != 255 {
			return true
		}
	}
	return false
}

// FitWithin 等比缩放到最长边 <= maxSize，maxSize <= 0 或已满足时原样返回
func FitWithin(img image.Image, maxSize int) image.Image {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	longest := max(w, h)

	if maxSize <= 0 || longest <= maxSize {
		return img
	}

	scale := float64(maxSize) / float64(longest)
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))

	return resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3)
}

// ToNRGBA 转为原点在 (0,0) 的 NRGBA
func ToNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Bounds().Min == (image.Point{}) {
		return nrgba
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
