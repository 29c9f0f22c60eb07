package rembg

import (
	"context"
	"image"
)

// Source 待去背景的原始文件
type Source struct {
	Name        string
	ContentType string
	Data        []byte
}

// Remover 去除背景，返回带 alpha 通道的前景图
type Remover interface {
	Remove(ctx context.Context, src Source) (image.Image, error)
}
