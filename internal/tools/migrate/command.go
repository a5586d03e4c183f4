package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/products-api/internal/database"
	"github.com/sandeepkv93/products-api/internal/domain"
	"github.com/sandeepkv93/products-api/internal/tools/common"
)

const exitCodeFailure = 3

func NewRootCommand() *cobra.Command {
	opts := &common.Options{}
	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Database schema tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.CI, "ci", false, "non-interactive machine-readable output")

	cmd.AddCommand(
		newUpCommand(opts),
		newStatusCommand(opts),
		newPlanCommand(opts),
	)
	return cmd
}

func newUpCommand(opts *common.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Create or widen the products table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Out = cmd.OutOrStdout()
			return common.Run(cmd.Context(), *opts, "migrate", "up", exitCodeFailure, func(ctx context.Context) ([]string, error) {
				cfg, db, err := common.OpenDB(opts.EnvFile)
				if err != nil {
					return nil, err
				}
				defer func() { _ = database.Close(db) }()

				steps, err := database.PlanMigration(db.WithContext(ctx))
				if err != nil {
					return nil, err
				}
				if err := database.Migrate(db.WithContext(ctx)); err != nil {
					return nil, err
				}
				details := []string{"driver: " + cfg.DatabaseDriver}
				if len(steps) == 0 {
					return append(details, "schema already up to date"), nil
				}
				for _, s := range steps {
					details = append(details, "applied: "+s)
				}
				return details, nil
			})
		},
	}
}

func newStatusCommand(opts *common.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report database reachability and schema state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Out = cmd.OutOrStdout()
			return common.Run(cmd.Context(), *opts, "migrate", "status", exitCodeFailure, func(ctx context.Context) ([]string, error) {
				cfg, db, err := common.OpenDB(opts.EnvFile)
				if err != nil {
					return nil, err
				}
				defer func() { _ = database.Close(db) }()

				sqlDB, err := db.DB()
				if err != nil {
					return nil, err
				}
				if err := sqlDB.PingContext(ctx); err != nil {
					return nil, fmt.Errorf("db ping: %w", err)
				}
				details := []string{"database reachable", "driver: " + cfg.DatabaseDriver}
				if !db.WithContext(ctx).Migrator().HasTable(&domain.Product{}) {
					return append(details, "products table: missing"), nil
				}
				var count int64
				if err := db.WithContext(ctx).Model(&domain.Product{}).Count(&count).Error; err != nil {
					return nil, err
				}
				return append(details, "products table: present", fmt.Sprintf("products: %d", count)), nil
			})
		},
	}
}

func newPlanCommand(opts *common.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show pending schema changes (dry-run)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Out = cmd.OutOrStdout()
			return common.Run(cmd.Context(), *opts, "migrate", "plan", exitCodeFailure, func(ctx context.Context) ([]string, error) {
				_, db, err := common.OpenDB(opts.EnvFile)
				if err != nil {
					return nil, err
				}
				defer func() { _ = database.Close(db) }()

				steps, err := database.PlanMigration(db.WithContext(ctx))
				if err != nil {
					return nil, err
				}
				if len(steps) == 0 {
					return []string{"no pending changes"}, nil
				}
				details := make([]string, 0, len(steps)+1)
				for _, s := range steps {
					details = append(details, "would apply: "+s)
				}
				return append(details, "no mutation executed in plan mode"), nil
			})
		},
	}
}
