package main

import (
	"github.com/chaos-io/bgswap/config"
	"github.com/chaos-io/bgswap/util"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:           "bgswap",
		Short:         "Remove image backgrounds and composite them over a solid color",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.New(configPath)
			if err != nil {
				return err
			}
			*cfg = *loaded
			return util.InitLogger(cfg.Server.Mode)
		},
	}

	cmd.Version = Version
	cmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")

	cmd.AddCommand(
		newRunCmd(cfg),
		newServeCmd(cfg),
	)

	return cmd
}
