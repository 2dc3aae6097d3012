// Package main is the entry point for the KasetInfo server and its
// maintenance commands.
package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"kasetinfo/internal/config"
	"kasetinfo/internal/database"
)

func main() {
	// Structured logger, text output at debug level.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "kasetinfo",
	Short:         "Agricultural content catalog server",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// openDB loads configuration, connects to PostgreSQL and applies pending
// migrations. The caller must close the returned database.
func openDB() (*config.Config, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return cfg, db, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		seed, _ := cmd.Flags().GetBool("seed")
		if seed {
			if err := database.Seed(db); err != nil {
				return fmt.Errorf("seeding database: %w", err)
			}
		}
		fmt.Println("Database is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("seed", false, "Insert the development admin and sample items when empty")

	rootCmd.AddCommand(sitemapCmd)
	sitemapCmd.Flags().StringP("out", "o", "sitemap.xml", "Output file (- for stdout)")
	sitemapCmd.Flags().String("base-url", "", "Site base URL (defaults to SITE_URL)")

	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)
	userCreateCmd.Flags().String("name", "", "Display name")
	userCreateCmd.Flags().String("role", "editor", "Role: admin or editor")
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userResetTwoFACmd)
}
