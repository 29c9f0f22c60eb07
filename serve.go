package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chaos-io/bgswap/config"
	"github.com/chaos-io/bgswap/export"
	"github.com/chaos-io/bgswap/rembg"
	"github.com/chaos-io/bgswap/server"
	"github.com/chaos-io/bgswap/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the /remove-bg proxy and the export API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	util.Logger.Info("starting bgswap server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	cutter := rembg.NewRemoveBGClient(cfg.RemoveBG.APIURL, cfg.RemoveBG.APIKey, cfg.RemoveBG.Timeout)
	if !cutter.Configured() {
		util.Logger.Warn("removebg.api_key is empty, /remove-bg will reject requests")
	}

	var cache server.Cache
	if cfg.Redis.Enabled {
		redisCache := server.NewRedisCache(&cfg.Redis)
		defer func() {
			_ = redisCache.Close()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisCache.Ping(ctx)
		cancel()
		if err != nil {
			util.Logger.Warn("redis connection failed, cache disabled", zap.Error(err))
		} else {
			util.Logger.Info("redis connected successfully")
			cache = redisCache
		}
	}

	if cfg.Export.KeepFiles {
		if err := os.MkdirAll(cfg.Export.OutputDir, 0o755); err != nil {
			return err
		}
		sweeper := export.NewSweeper(cfg.Export.OutputDir, cfg.Export.Retention)
		if err := sweeper.Start(cfg.Export.SweepSchedule); err != nil {
			return err
		}
		defer sweeper.Stop()
	}

	srv := server.New(cfg, cutter, cache, server.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	util.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
