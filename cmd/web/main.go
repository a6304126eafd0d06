package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"volunteer_backend/database"
	"volunteer_backend/internal/app"
	"volunteer_backend/internal/config"
	"volunteer_backend/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "error", eris.ToString(err, true))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "volunteer",
		Short:         "Volunteer matching backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// до загрузки конфигурации пишем в development-формате
			logger.Init("development")
			loaded, err := config.LoadConfig()
			if err != nil {
				return err
			}
			cfg = loaded
			logger.Init(cfg.Server.Env)
			logger.Info("Logger initialized", "env", cfg.Server.Env)
			return nil
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), cfg)
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := database.Connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			return database.AutoMigrate(cmd.Context(), db)
		},
	}

	root.AddCommand(serve, migrate)
	// без подкоманды - serve
	root.RunE = serve.RunE

	return root
}
