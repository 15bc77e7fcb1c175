package main

import (
	"context"
	"fmt"

	"github.com/Fahmy112/Al-Rayan-Service/internal/seed"
	"github.com/Fahmy112/Al-Rayan-Service/internal/workshop"

	"github.com/spf13/cobra"
)

func newSeedCmd(a *app) *cobra.Command {
	var cataloguePath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the spare-part catalogue into the database",
	}
	cmd.PersistentFlags().StringVar(&cataloguePath, "catalogue", "", "catalogue YAML file (defaults to the built-in one)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "categories",
			Short: "Create every catalogue category that does not exist yet",
			RunE: func(cmd *cobra.Command, args []string) error {
				catalogue, err := seed.Load(cataloguePath)
				if err != nil {
					return err
				}
				return a.withService(contextOf(cmd), func(ctx context.Context, service *workshop.Service) error {
					n, err := service.SeedCategories(ctx, catalogue.Categories)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories\n", n)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "backfill",
			Short: "Set the category of existing spares from the catalogue name map",
			RunE: func(cmd *cobra.Command, args []string) error {
				catalogue, err := seed.Load(cataloguePath)
				if err != nil {
					return err
				}
				return a.withService(contextOf(cmd), func(ctx context.Context, service *workshop.Service) error {
					n, err := service.BackfillCategories(ctx, catalogue.Backfill)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "updated %d spares\n", n)
					return nil
				})
			},
		},
	)
	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
