package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/m3rciful/pager/core/bootstrap"
	"github.com/m3rciful/pager/core/buildinfo"
	corecmd "github.com/m3rciful/pager/core/cmd"
	"github.com/m3rciful/pager/core/database"
	"github.com/m3rciful/pager/core/logger"
	"github.com/m3rciful/pager/pager/app"
	"github.com/m3rciful/pager/pager/config"
)

const defaultConfigPath = "config.yaml"

func newRootCmd() *cobra.Command {
	var configPath string

	serve := newServeCmd(&configPath)
	root := &cobra.Command{
		Use:          "pager",
		Short:        "Telegram game bot",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (env: "+corecmd.DefaultConfigEnv+")")

	root.AddCommand(serve)
	root.AddCommand(newMigrateCmd(&configPath))
	root.AddCommand(newVersionCmd())
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return corecmd.Run(ctx, corecmd.Options{
				ConfigPath:        *configPath,
				DefaultConfigPath: defaultConfigPath,
				LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
					return config.Load(path)
				},
				Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
					return app.New(ctx, cfg.(*config.Config), bootstrap.Options{})
				},
			})
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			path, err := corecmd.ResolveConfigPath(*configPath, corecmd.DefaultConfigEnv, defaultConfigPath)
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate: storage.driver is %q, nothing to migrate", cfg.Storage.Driver)
			}
			if err := logger.InitLogger(cfg.CoreConfig()); err != nil {
				return err
			}
			defer func() { err = errors.Join(err, logger.Shutdown()) }()
			return database.RunMigrations(cmd.Context(), cfg.Database)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
