package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fanvault/backend/internal/config"
	"github.com/fanvault/backend/internal/logger"
	"github.com/fanvault/backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fanvault",
	Short: "fanvault backend: creator subscriptions and content access",
	// Running without a subcommand serves HTTP.
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ./configs/config.yaml or ./config.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, expireCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap holds what every subcommand needs.
type bootstrap struct {
	cfg *config.Config
	log logger.Logger
	db  *pgxpool.Pool
}

func newBootstrap(ctx context.Context) (*bootstrap, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	db, err := repository.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	return &bootstrap{cfg: cfg, log: log, db: db}, nil
}

func (b *bootstrap) close() {
	b.db.Close()
	_ = b.log.Sync()
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer b.close()

		if err := repository.RunMigrations(cmd.Context(), b.db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		b.log.Info("database migrated", nil)
		return nil
	},
}

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Mark subscriptions whose period has ended as EXPIRED and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer b.close()

		subs := newSubscriptionService(b, nil)
		_, err = subs.ExpireLapsed(cmd.Context())
		return err
	},
}
