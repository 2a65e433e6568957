package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/quant-edge/internal/api"
	"github.com/yourusername/quant-edge/internal/config"
	"github.com/yourusername/quant-edge/internal/service"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve reports over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if err := validate(cfg); err != nil {
				return err
			}

			log := newLogger(cfg, cmd.OutOrStdout())
			comps, err := service.Build(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer comps.Close()

			return newAPIServer(cfg, comps, log).ListenAndServe(ctx)
		},
	}
}

func newAPIServer(cfg *config.Config, comps *service.Components, log logrus.FieldLogger) *api.Server {
	apiCfg := api.Config{
		ServiceName:    cfg.App.Name,
		Version:        Version,
		Port:           cfg.API.Port,
		AllowedOrigins: cfg.API.AllowedOrigins,
		Logger:         log,
	}
	if cfg.Metrics.Enabled {
		apiCfg.MetricsPath = cfg.Metrics.Path
	}
	if comps.DB != nil {
		apiCfg.DB = comps.DB
	}
	if comps.Archive != nil {
		apiCfg.Archive = comps.Archive
	}
	return api.NewServer(apiCfg, comps.Service)
}
