package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chapterzero/bookstore/internal/app"
	"github.com/chapterzero/bookstore/pkg/logger"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the identity HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		log := logger.Get()

		a, err := app.New(ctx, cfg, log, app.Options{Migrate: serveMigrate})
		if err != nil {
			log.Error().Err(err).Msg("startup failed")
			return err
		}
		return a.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "apply schema changes before serving")
}
