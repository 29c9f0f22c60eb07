package util

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// LocalFile 从磁盘读到的文件
type LocalFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadLocalFile 读取文件并按内容嗅探 MIME 类型
func ReadLocalFile(path string) (*LocalFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return &LocalFile{
		Name:        filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

// DecodeImage 解码 png / jpeg / gif / webp
func DecodeImage(data []byte) (image.Image, string, error) {
	return image.Decode(bytes.NewReader(data))
}
