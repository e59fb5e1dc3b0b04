package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/config"
	"github.com/timetidy/timetidy-service/internal/db"
	"github.com/timetidy/timetidy-service/internal/db/memory"
	"github.com/timetidy/timetidy-service/internal/db/repository"
	"github.com/timetidy/timetidy-service/internal/logging"
)

// App holds what every subcommand needs
type App struct {
	cfg    *config.Config
	logger *zap.Logger
}

var (
	configPath string
	app        *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "timetidy",
		Short:         "TimeTidy workforce scheduling service",
		Long:          `Shift scheduling, time tracking, swap and time-off approvals for small teams.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.logger != nil {
				_ = app.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML config (default: $CONFIG_PATH or configs/development.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(hashPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// initApp loads the configuration and builds the logger
func initApp() error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	app = &App{cfg: cfg, logger: logger}
	return nil
}

// openStore returns the configured repositories and a function that releases them
func (a *App) openStore(ctx context.Context) (*repository.Repositories, func(), error) {
	switch a.cfg.Store.Driver {
	case "postgres":
		database, err := db.NewPostgres(ctx, a.cfg.Database, a.logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := database.Close(); err != nil {
				a.logger.Warn("Failed to close database", zap.Error(err))
			}
		}
		return repository.NewRepositories(database), closeFn, nil

	default:
		a.logger.Info("Using in-memory store; data is lost on restart")
		return memory.NewRepositories(), func() {}, nil
	}
}
