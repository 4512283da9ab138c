// Package main implements reflectctl, the operator CLI for the reflections
// database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reflections/internal/config"
	"reflections/internal/db"
	"reflections/internal/logging"
)

var (
	// overrides database.url from the environment when set
	databaseURL string
	driver      string

	version = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reflectctl",
	Short: "Operator commands for the reflections database",
	Long: `reflectctl prepares a reflections database: it creates the schema and
loads the demo users and their starter topics.

Configuration comes from the same environment variables and CONFIG_FILE as the
server; --database-url and --driver override them.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "database URL (default $DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "database driver: pgx or sqlite3 (default $DATABASE_DRIVER or pgx)")
}

// connect loads config, applies flag overrides and opens the database.
func connect(ctx context.Context) (*sqlx.DB, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if databaseURL != "" {
		cfg.Database.URL = databaseURL
	}
	if driver != "" {
		cfg.Database.Driver = driver
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}

	conn, err := db.Open(ctx, db.Config{
		Driver:          cfg.Database.Driver,
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	return conn, logger, nil
}
