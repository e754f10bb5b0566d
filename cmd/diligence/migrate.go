package main

import (
	"fmt"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/store"
	"github.com/spf13/cobra"
)

func migrateCMD(a *app) *cobra.Command {
	var direction string
	var steps int
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply report archive migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.must(); err != nil {
				return err
			}
			if !a.cfg.Storage.Postgres.Enabled() {
				return fmt.Errorf("postgres not configured (storage.postgres.dsn)")
			}
			if err := store.Migrate(a.cfg.Storage.Postgres.DSN, direction, steps); err != nil {
				return err
			}
			a.logger.Sugar().Infow("migrations applied", "direction", direction, "steps", steps)
			return nil
		},
	}
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return migrate
}
