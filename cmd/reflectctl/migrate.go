package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reflections/internal/db"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables and indexes",
	Long: `Create the users, topics, reflections and reflection_topics tables and
their indexes. Safe to run repeatedly.

Examples:
  reflectctl migrate
  reflectctl migrate --driver sqlite3 --database-url file:reflections.db`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		conn, logger, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := db.RunMigrations(cmd.Context(), conn); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied")
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}
