package main

import (
	"github.com/plantcare/internal/app"
	"github.com/plantcare/internal/config"
	"github.com/plantcare/internal/handler"
	"github.com/plantcare/internal/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	backend string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "plantctl",
		Short:         "Administrative tasks for the plantcare backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.backend, "backend", handler.BackendPostgres, "storage backend: pg or sb")

	cmd.AddCommand(
		newInitUserCmd(opts),
		newSeedCmd(opts),
		newDashboardCmd(opts),
	)
	return cmd
}

// openBackend 按环境变量装配应用并选出目标后端，返回的 cleanup 负责关闭数据库
func openBackend(opts *rootOptions) (*app.Backend, func(), error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, nil, err
	}
	cfg := config.Load()

	a, err := app.New(cfg, logging.New(cfg.LogLevel, cfg.LogFormat))
	if err != nil {
		return nil, nil, err
	}
	backend, err := a.Backend(opts.backend)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return backend, func() { a.Close() }, nil
}
