package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/timetidy/timetidy-service/internal/seed"
	"github.com/timetidy/timetidy-service/internal/service"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo accounts, locations and shifts into an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			repos, closeStore, err := app.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			auth := service.NewAuthService(service.Deps{Repos: repos, Logger: app.logger}, service.JWTConfig{}, nil, app.cfg.Auth.BcryptCost)
			result, err := seed.Run(ctx, repos, auth.HashPassword, time.Now(), app.logger)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d locations, %d shifts\n", result.Users, result.Locations, result.Shifts)
			return nil
		},
	}
}
