// Package export 把合成图编码为 PNG 下载文件
package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

const (
	filePrefix = "background-removed-"
	fileSuffix = ".png"
)

// Artifact 一次导出的结果
type Artifact struct {
	Filename string
	PNG      []byte
}

// Filename 形如 background-removed-1700000000000.png
func Filename(now time.Time) string {
	return fmt.Sprintf("%s%d%s", filePrefix, now.UnixMilli(), fileSuffix)
}

// New 编码 surface，surface 为 nil 时 ok 为 false
func New(surface image.Image, now time.Time) (artifact *Artifact, ok bool, err error) {
	if surface == nil {
		return nil, false, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, surface); err != nil {
		return nil, false, fmt.Errorf("png encode: %w", err)
	}

	return &Artifact{
		Filename: Filename(now),
		PNG:      buf.Bytes(),
	}, true, nil
}

// DataURL data:image/png;base64,...
func (a *Artifact) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(a.PNG)
}

// WriteTo 写入 dir/Filename，返回完整路径
func (a *Artifact) WriteTo(dir string) (string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, a.Filename)
	if err := os.WriteFile(path, a.PNG, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
