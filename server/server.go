package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/chaos-io/bgswap/config"
	"github.com/chaos-io/bgswap/rembg"
	"github.com/chaos-io/bgswap/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Cutter 上游去背景服务
type Cutter interface {
	Configured() bool
	Cutout(ctx context.Context, src rembg.Source) ([]byte, error)
}

type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

type Server struct {
	cfg    *config.Config
	cutter Cutter
	cache  Cache
	build  BuildInfo
	engine *gin.Engine
	http   *http.Server
}

// New cache 可以为 nil，表示不缓存
func New(cfg *config.Config, cutter Cutter, cache Cache, build BuildInfo) *Server {
	s := &Server{
		cfg:    cfg,
		cutter: cutter,
		cache:  cache,
		build:  build,
	}
	s.engine = s.routes()
	s.http = &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      s.engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(s.cfg.Server.Mode)

	r := gin.New()
	r.MaxMultipartMemory = s.cfg.Upload.MaxSize
	r.Use(gin.Recovery())
	r.Use(Logger())
	r.Use(CORS())

	if dir := s.cfg.Server.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			r.Static("/static", dir)
			r.StaticFile("/", filepath.Join(dir, "index.html"))
		}
	}

	r.GET("/health", s.health)
	r.GET("/version", s.version)
	r.POST("/remove-bg", s.removeBackground)

	api := r.Group("/api")
	{
		api.POST("/export", s.exportComposite)
	}

	return r
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 阻塞直到 Shutdown
func (s *Server) Run() error {
	util.Logger.Info("server starting", zap.String("port", s.cfg.Server.Port))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
