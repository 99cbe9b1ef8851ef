package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oggyb/connecta/internal/config"
	"github.com/oggyb/connecta/internal/db"
	"github.com/oggyb/connecta/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		users  int
		driver string
		dsn    string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Reset the database and fill it with demo profiles and likes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Load configuration
			cfg := config.New()
			if driver != "" {
				cfg.DB.Driver = driver
			}
			if dsn != "" {
				cfg.DB.DSN = dsn
			}

			logger.InitFromConfig(cfg)
			log := logger.With("cmd", "seed")

			database, err := db.NewDB(cfg)
			if err != nil {
				return fmt.Errorf("init db: %w", err)
			}

			if err := db.SeedTestData(database, users, log); err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			log.Info("seeding completed", "users", users, "driver", cfg.DB.Driver)
			return nil
		},
	}

	cmd.Flags().IntVarP(&users, "users", "n", 20, "number of profiles to create")
	cmd.Flags().StringVar(&driver, "driver", "", "override DB_DRIVER (mysql or sqlite)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "override the database DSN")
	return cmd
}
