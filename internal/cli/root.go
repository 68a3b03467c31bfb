// Package cli is the provenance command line.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/supplytrace/provenance/internal/app"
	"github.com/supplytrace/provenance/internal/pkg/config"
	"github.com/supplytrace/provenance/pkg/logger"
)

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "provenance",
		Short:         "Product provenance and custody transfer service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewVerifyCommand())
	cmd.AddCommand(NewArtifactCommand())
	cmd.AddCommand(NewKeygenCommand())

	return cmd
}

// bootstrap loads configuration, initialises logging and wires the app.
func bootstrap(ctx context.Context) (*app.App, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "provenance",
	})
	if err := cfg.Validate(); err != nil {
		return nil, log, fmt.Errorf("config: %w", err)
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, log, err
	}
	return a, log, nil
}
