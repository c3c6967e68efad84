package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chapterzero/bookstore/internal/pkg/config"
	"github.com/chapterzero/bookstore/pkg/logger"
)

const serviceName = "bookstore-identity"

var rootCmd = &cobra.Command{
	Use:           "bookstore",
	Short:         "ChapterZero bookstore identity service",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// bootstrap loads configuration and initialises the process logger;
// subcommands fetch it with logger.Get afterwards.
func bootstrap(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})
	return cfg, nil
}
