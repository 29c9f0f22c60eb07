// Package compose 把去背景后的前景合成到纯色或透明底上
package compose

import (
	"image"

	"golang.org/x/image/draw"
)

// Render 生成与前景同尺寸的合成图
//
//	非透明背景先整幅填充底色
//	前景画在 (0,0)，按自身 alpha 做 over 混合
//
// fg 为 nil 时返回 nil
func Render(fg image.Image, bg Background) *image.NRGBA {
	if fg == nil {
		return nil
	}

	b := fg.Bounds()
	surface := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if !bg.IsTransparent() {
		draw.Draw(surface, surface.Bounds(), image.NewUniform(bg.Color()), image.Point{}, draw.Src)
	}
	draw.Draw(surface, surface.Bounds(), fg, b.Min, draw.Over)

	return surface
}
