// Package studio 串起 上传 → 去背景 → 合成 → 导出 的完整流程
//
// Controller 持有当前图片的全部状态，可并发调用。
// 同一时间只保留一个请求：新的 Acquire 或 Reset 会取消尚未返回的请求，
// 被取代的请求返回 ErrSuperseded，不修改任何状态。
package studio

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"mime"
	"strings"
	"sync"
	"time"

	"github.com/chaos-io/bgswap/compose"
	"github.com/chaos-io/bgswap/export"
	"github.com/chaos-io/bgswap/rembg"
	"github.com/chaos-io/bgswap/util"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

type Option func(*Controller)

// WithClock 导出文件名使用的时钟
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithMaxDimension 上传前把最长边缩到 n 像素以内，0 表示不缩放
func WithMaxDimension(n int) Option {
	return func(c *Controller) {
		c.maxDimension = n
	}
}

// WithTimeout 单次去背景请求的超时
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

type Controller struct {
	remover      rembg.Remover
	now          func() time.Time
	maxDimension int
	timeout      time.Duration

	mu         sync.Mutex
	source     *rembg.Source
	foreground image.Image
	surface    *image.NRGBA
	background compose.Background
	view       View
	generation uint64
	cancel     context.CancelFunc
}

func NewController(remover rembg.Remover, opts ...Option) *Controller {
	c := &Controller{
		remover:    remover,
		now:        time.Now,
		background: compose.Transparent,
		view:       idleView(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acquire 校验输入并同步完成去背景与合成
func (c *Controller) Acquire(ctx context.Context, src rembg.Source) error {
	if err := validate(src); err != nil {
		c.mu.Lock()
		c.showError(err)
		c.mu.Unlock()
		util.Logger.Info("rejected upload",
			zap.String("name", src.Name),
			zap.String("content_type", src.ContentType))
		return err
	}

	upload := c.prepare(src)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation

	reqCtx, cancel := context.WithCancel(ctx)
	if c.timeout > 0 {
		reqCtx, cancel = withTimeout(reqCtx, cancel, c.timeout)
	}
	c.cancel = cancel

	jobID := ksuid.New().String()
	c.source = &src
	c.foreground = nil
	c.surface = nil
	c.view.Phase = PhaseUploading
	c.view.JobID = jobID
	c.view.ErrorVisible = false
	c.view.ErrorText = ""
	c.view.Preview = dataURL(src)
	c.view.PreviewVisible = true
	c.view.ControlsVisible = true
	c.view.LoadingVisible = true
	c.mu.Unlock()

	log := util.Logger.With(zap.String("job_id", jobID), zap.String("name", src.Name))
	log.Info("removing background",
		zap.String("content_type", upload.ContentType),
		zap.Int("bytes", len(upload.Data)))

	img, err := c.remover.Remove(reqCtx, upload)

	c.mu.Lock()
	defer c.mu.Unlock()
	cancel()

	if gen != c.generation {
		log.Info("discarding superseded result")
		return ErrSuperseded
	}
	c.cancel = nil
	c.view.LoadingVisible = false

	if err != nil {
		c.view.Phase = PhaseFailed
		c.showError(err)
		log.Warn("remove background failed", zap.Error(err))
		return err
	}

	c.foreground = compose.ToNRGBA(img)
	if !compose.HasUsefulAlpha(c.foreground) {
		log.Warn("service returned an image without transparency")
	}
	c.surface = compose.Render(c.foreground, c.background)
	c.view.Phase = PhaseComposited
	log.Info("composited",
		zap.Int("width", c.surface.Bounds().Dx()),
		zap.Int("height", c.surface.Bounds().Dy()),
		zap.Stringer("background", c.background))
	return nil
}

// SelectBackground 切换底色，已有前景时立即重新合成
func (c *Controller) SelectBackground(bg compose.Background) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.background = bg
	c.view.Background = bg
	c.view.ActiveSwatch = bg.SwatchIndex()

	if c.foreground == nil {
		return
	}
	c.surface = compose.Render(c.foreground, bg)
}

// Export 编码当前合成图，没有合成图时 ok 为 false
func (c *Controller) Export() (*export.Artifact, bool, error) {
	c.mu.Lock()
	surface := c.surface
	now := c.now()
	c.mu.Unlock()

	if surface == nil {
		return nil, false, nil
	}
	return export.New(surface, now)
}

// Reset 回到上传前的状态，可重复调用
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++

	hover := c.view.Hover
	c.source = nil
	c.foreground = nil
	c.surface = nil
	c.background = compose.Transparent
	c.view = idleView()
	c.view.Hover = hover
}

// SetHover 拖拽悬停状态
func (c *Controller) SetHover(hover bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Hover = hover
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Surface 当前合成图，调用方不要修改
func (c *Controller) Surface() *image.NRGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface
}

func (c *Controller) Foreground() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.foreground
}

func (c *Controller) Source() *rembg.Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

func (c *Controller) Background() compose.Background {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.background
}

func (c *Controller) showError(err error) {
	c.view.ErrorVisible = true
	c.view.ErrorText = err.Error()
}

// prepare 按 maxDimension 缩小原图，解码失败时原样上传
func (c *Controller) prepare(src rembg.Source) rembg.Source {
	if c.maxDimension <= 0 {
		return src
	}

	img, _, err := util.DecodeImage(src.Data)
	if err != nil {
		return src
	}
	fitted := compose.FitWithin(img, c.maxDimension)
	if fitted == img {
		return src
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, fitted); err != nil {
		return src
	}
	util.Logger.Debug("downscaled upload",
		zap.Int("from", max(img.Bounds().Dx(), img.Bounds().Dy())),
		zap.Int("to", c.maxDimension))

	return rembg.Source{
		Name:        src.Name,
		ContentType: "image/png",
		Data:        buf.Bytes(),
	}
}

func validate(src rembg.Source) error {
	if !isImageType(src.ContentType) || len(src.Data) == 0 {
		return &ValidationError{ContentType: src.ContentType}
	}
	return nil
}

func isImageType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.HasPrefix(mediaType, "image/")
}

func dataURL(src rembg.Source) string {
	return "data:" + src.ContentType + ";base64," + base64.StdEncoding.EncodeToString(src.Data)
}

func withTimeout(ctx context.Context, cancel context.CancelFunc, d time.Duration) (context.Context, context.CancelFunc) {
	timed, timedCancel := context.WithTimeout(ctx, d)
	return timed, func() {
		timedCancel()
		cancel()
	}
}
