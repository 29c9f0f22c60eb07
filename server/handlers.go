package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/chaos-io/bgswap/compose"
	"github.com/chaos-io/bgswap/export"
	"github.com/chaos-io/bgswap/rembg"
	"github.com/chaos-io/bgswap/util"
	nhttp "github.com/chaos-io/bgswap/util/http"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	apiKeyMissingMessage = "API Key Not Configured!\n\n" +
		"1. Sign up at https://www.remove.bg/api\n" +
		"2. Get your free API key\n" +
		"3. Set removebg.api_key in config.yaml or BGSWAP_REMOVEBG_API_KEY\n" +
		"4. Restart the server"
	noImageMessage = "No image uploaded"
	timeoutMessage = "Request timed out. Please try again with a smaller image."
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": s.build.Version,
	})
}

func (s *Server) version(c *gin.Context) {
	c.JSON(http.StatusOK, s.build)
}

// removeBackground 把上传的 image 转发给 remove.bg，返回 PNG
func (s *Server) removeBackground(c *gin.Context) {
	if !s.cutter.Configured() {
		abortWithError(c, http.StatusBadRequest, apiKeyMissingMessage)
		return
	}

	src, ok := s.readUpload(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	key := util.BytesMD5(src.Data)
	log := util.Logger.With(zap.String("md5", key), zap.String("filename", src.Name))

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn("failed to get cache", zap.Error(err))
		}
		if cached != nil {
			log.Info("cache hit")
			c.Data(http.StatusOK, "image/png", cached)
			return
		}
	}

	result, err := s.cutter.Cutout(ctx, src)
	if err != nil {
		log.Error("remove.bg request failed", zap.Error(err))

		var statusErr *nhttp.StatusError
		switch {
		case errors.As(err, &statusErr):
			abortWithError(c, http.StatusInternalServerError,
				fmt.Sprintf("Remove.bg API error (Status %d): %s", statusErr.StatusCode, string(statusErr.Body)))
		case rembg.IsTimeout(err):
			abortWithError(c, http.StatusInternalServerError, timeoutMessage)
		default:
			abortWithError(c, http.StatusInternalServerError, fmt.Sprintf("Network error: %v", err))
		}
		return
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result); err != nil {
			log.Warn("failed to set cache", zap.Error(err))
		}
	}

	c.Data(http.StatusOK, "image/png", result)
}

// exportComposite 把 image 合成到 background 上并作为附件下载
func (s *Server) exportComposite(c *gin.Context) {
	bg, err := compose.ParseBackground(c.PostForm("background"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	src, ok := s.readUpload(c)
	if !ok {
		return
	}

	img, _, err := util.DecodeImage(src.Data)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, (&rembg.DecodeError{Err: err}).Error())
		return
	}

	artifact, _, err := export.New(compose.Render(img, bg), time.Now())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if s.cfg.Export.KeepFiles {
		if path, err := artifact.WriteTo(s.cfg.Export.OutputDir); err != nil {
			util.Logger.Warn("failed to keep export", zap.Error(err))
		} else {
			util.Logger.Debug("export kept", zap.String("file", path))
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, artifact.Filename))
	c.Data(http.StatusOK, "image/png", artifact.PNG)
}

func (s *Server) readUpload(c *gin.Context) (rembg.Source, bool) {
	file, err := c.FormFile("image")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, noImageMessage)
		return rembg.Source{}, false
	}

	if limit := s.cfg.Upload.MaxSize; limit > 0 && file.Size > limit {
		abortWithError(c, http.StatusBadRequest,
			fmt.Sprintf("Image exceeds the %d MB upload limit", limit/(1024*1024)))
		return rembg.Source{}, false
	}

	data, err := readFormFile(file)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, fmt.Sprintf("Unexpected error: %v", err))
		return rembg.Source{}, false
	}

	return rembg.Source{
		Name:        file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

func readFormFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return io.ReadAll(f)
}
