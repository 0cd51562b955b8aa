package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scorePostingID int64

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Recompute relevance scores for stored postings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runScore(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().Int64Var(&scorePostingID, "id", 0, "rescore a single posting instead of the full catalogue")
}

func runScore(ctx context.Context) error {
	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if scorePostingID > 0 {
		score, err := app.postingsService.ScoreOne(ctx, scorePostingID)
		if err != nil {
			return err
		}
		app.logger.Info("posting rescored",
			zap.Int64("id", scorePostingID),
			zap.Int("relevance_score", score),
		)
		return nil
	}

	result, err := app.postingsService.ScoreAll(ctx)
	if err != nil {
		return err
	}

	app.logger.Info("scoring sweep finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("updated", result.Updated),
	)
	return nil
}
