package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a company row for every source in the registry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSeed(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(ctx context.Context) error {
	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	count, err := app.companiesService.SeedFromSources(ctx, app.sources)
	if err != nil {
		return err
	}

	app.logger.Info("companies seeded", zap.Int("count", count))
	return nil
}
