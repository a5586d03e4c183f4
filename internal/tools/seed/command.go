package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/products-api/internal/database"
	"github.com/sandeepkv93/products-api/internal/tools/common"
)

const exitCodeFailure = 3

func NewRootCommand() *cobra.Command {
	opts := &common.Options{}
	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Sample catalog tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.CI, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts))
	return cmd
}

func newApplyCommand(opts *common.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Insert the sample products that are missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Out = cmd.OutOrStdout()
			return common.Run(cmd.Context(), *opts, "seed", "apply", exitCodeFailure, func(ctx context.Context) ([]string, error) {
				_, db, err := common.OpenDB(opts.EnvFile)
				if err != nil {
					return nil, err
				}
				defer func() { _ = database.Close(db) }()

				if err := database.Migrate(db.WithContext(ctx)); err != nil {
					return nil, err
				}
				report, err := database.SeedSync(db.WithContext(ctx))
				if err != nil {
					return nil, err
				}
				if report.Noop {
					return []string{"sample catalog already present"}, nil
				}
				return []string{fmt.Sprintf("inserted %d sample products", report.CreatedProducts)}, nil
			})
		},
	}
}

func newDryRunCommand(opts *common.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would insert",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Out = cmd.OutOrStdout()
			return common.Run(cmd.Context(), *opts, "seed", "dry-run", exitCodeFailure, func(ctx context.Context) ([]string, error) {
				_, db, err := common.OpenDB(opts.EnvFile)
				if err != nil {
					return nil, err
				}
				defer func() { _ = database.Close(db) }()

				plan, err := database.PlanSeed(ctx, db)
				if err != nil {
					return nil, fmt.Errorf("read products (run migrate up first?): %w", err)
				}
				details := make([]string, 0, len(plan))
				for _, item := range plan {
					verb := "would insert"
					if item.Exists {
						verb = "already present"
					}
					details = append(details, fmt.Sprintf("%s: %d %s %s", verb, item.Product.ProductCode, item.Product.Name, item.Product.Price.StringFixed(2)))
				}
				return details, nil
			})
		},
	}
}
