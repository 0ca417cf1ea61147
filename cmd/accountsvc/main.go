package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/you/accountsvc/internal/app"
	"github.com/you/accountsvc/internal/config"
	"github.com/you/accountsvc/internal/logging"
)

const serviceName = "accountsvc"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:          serviceName,
		Short:        "Account registration, login and password reset service",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "config file path")

	load := func(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
		cfg, err := config.Load(cmd.Context(), configFile)
		if err != nil {
			return nil, zerolog.Nop(), err
		}
		return cfg, logging.Setup(serviceName, cfg.LogLevel, cfg.LogFormat, os.Stderr), nil
	}

	serve := NewServeCmd(load)
	cmd.RunE = serve.RunE
	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCmd(load))
	cmd.AddCommand(NewCleanupCmd(load))
	return cmd
}

type loader func(cmd *cobra.Command) (*config.Config, zerolog.Logger, error)

// NewServeCmd creates the serve subcommand.
func NewServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the cleanup loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load(cmd)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context(), cfg, log)
		},
	}
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and seed the default policies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load(cmd)
			if err != nil {
				return err
			}
			if err := app.MigrateOnly(cmd.Context(), cfg, log); err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
			}
			cmd.Println("Migrations completed successfully")
			return nil
		},
	}
}

// NewCleanupCmd creates the cleanup subcommand.
func NewCleanupCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired codes, reset tokens and stale sessions once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load(cmd)
			if err != nil {
				return err
			}
			result, err := app.Cleanup(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d codes, %d reset tokens, %d sessions\n", result.Codes, result.Tokens, result.Sessions)
			return nil
		},
	}
}
