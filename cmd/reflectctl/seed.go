package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reflections/internal/db"
	"reflections/internal/services"
)

var seedTopics []string

func init() {
	seedCmd.Flags().StringSliceVar(&seedTopics, "topics", services.DefaultSeedTopics, "starter topics given to every demo user")
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo users and their starter topics",
	Long: `Create the demo users John (john@test.com) and Jane (jane@test.com) and give
each of them the starter topics. Existing rows are kept, so running it twice
changes nothing. The schema is migrated first.

Examples:
  reflectctl seed
  reflectctl seed --topics health,learning`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		conn, logger, err := connect(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := db.RunMigrations(ctx, conn); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if err := services.Seed(ctx, conn, services.DefaultSeedUsers, seedTopics, logger); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users with %d topics each\n", len(services.DefaultSeedUsers), len(seedTopics))
		return nil
	},
}
