package compose

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Background 合成时铺在前景下面的底色
type Background struct {
	name        string
	fill        color.NRGBA
	transparent bool
}

var (
	Transparent = Background{name: "transparent", transparent: true}
	White       = Background{name: "white", fill: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}}
	Red         = Background{name: "red", fill: color.NRGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}}
	Blue        = Background{name: "blue", fill: color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}}
)

// Swatches 色板顺序，下标即 active swatch index
var Swatches = []Background{Transparent, White, Red, Blue}

// Custom 任意纯色背景，alpha 固定为 255
func Custom(c color.NRGBA) Background {
	c.A = 0xff
	return Background{name: hex(c), fill: c}
}

// ParseBackground 支持色板名称和 #rrggbb
func ParseBackground(s string) (Background, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return Transparent, nil
	}
	for _, bg := range Swatches {
		if bg.name == v {
			return bg, nil
		}
	}

	if strings.HasPrefix(v, "#") && len(v) == 7 {
		n, err := strconv.ParseUint(v[1:], 16, 32)
		if err == nil {
			return Custom(color.NRGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}), nil
		}
	}
	return Background{}, fmt.Errorf("unknown background %q", s)
}

func (b Background) String() string {
	return b.name
}

func (b Background) IsTransparent() bool {
	return b.transparent
}

// Color 填充色，透明背景返回零值
func (b Background) Color() color.NRGBA {
	return b.fill
}

// Hex 形如 #3b82f6，透明背景返回空串
func (b Background) Hex() string {
	if b.transparent {
		return ""
	}
	return hex(b.fill)
}

// SwatchIndex 在色板中的位置，自定义颜色返回 -1
func (b Background) SwatchIndex() int {
	for i, bg := range Swatches {
		if bg == b {
			return i
		}
	}
	return -1
}

func hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
