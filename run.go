package main

import (
	"context"
	"fmt"

	"github.com/chaos-io/bgswap/compose"
	"github.com/chaos-io/bgswap/config"
	"github.com/chaos-io/bgswap/rembg"
	"github.com/chaos-io/bgswap/studio"
	"github.com/chaos-io/bgswap/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runOptions struct {
	background string
	outDir     string
	endpoint   string
	dataURL    bool
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <image>",
		Short: "Remove the background of one image and export the composite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), cmd, cfg, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.background, "background", "b", "transparent", "transparent, white, red, blue or #rrggbb")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "output directory (default export.output_dir)")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "background removal endpoint (default remover.endpoint)")
	cmd.Flags().BoolVar(&opts.dataURL, "data-url", false, "print the PNG data URL instead of writing a file")

	return cmd
}

func runPipeline(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts runOptions, path string) error {
	defer util.Trace("run " + path)()

	if ctx == nil {
		ctx = context.Background()
	}

	bg, err := compose.ParseBackground(opts.background)
	if err != nil {
		return err
	}

	endpoint := cfg.Remover.Endpoint
	if opts.endpoint != "" {
		endpoint = opts.endpoint
	}
	outDir := cfg.Export.OutputDir
	if opts.outDir != "" {
		outDir = opts.outDir
	}

	file, err := util.ReadLocalFile(path)
	if err != nil {
		return err
	}

	ctrl := studio.NewController(
		rembg.NewRemoteRemover(endpoint, cfg.Remover.Timeout),
		studio.WithTimeout(cfg.Remover.Timeout),
		studio.WithMaxDimension(cfg.Upload.MaxDimension),
	)
	ctrl.SelectBackground(bg)

	err = ctrl.Acquire(ctx, rembg.Source{
		Name:        file.Name,
		ContentType: file.ContentType,
		Data:        file.Data,
	})
	if err != nil {
		return err
	}

	artifact, ok, err := ctrl.Export()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("nothing to export for %s", path)
	}

	if opts.dataURL {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), artifact.DataURL())
		return err
	}

	out, err := artifact.WriteTo(outDir)
	if err != nil {
		return err
	}
	util.Logger.Info("exported",
		zap.String("file", out),
		zap.Stringer("background", bg),
		zap.Int("width", ctrl.Surface().Bounds().Dx()),
		zap.Int("height", ctrl.Surface().Bounds().Dy()))

	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
