package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobscoutbot/jobscout/internal/config"
)

var ingestCompany string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion cycle over the source registry and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runIngest(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVarP(&ingestCompany, "company", "c", "", "limit the run to one company's sources")
}

func runIngest(ctx context.Context) error {
	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	sources := app.sources
	if ingestCompany != "" {
		var matched []config.Source
		for _, src := range sources {
			if strings.EqualFold(src.Company, ingestCompany) {
				matched = append(matched, src)
			}
		}
		if len(matched) == 0 {
			return fmt.Errorf("no sources registered for company %q", ingestCompany)
		}
		sources = matched
	}

	run, err := app.orchestrator.Run(ctx, sources)
	if err != nil {
		return err
	}

	app.logger.Info("ingestion finished",
		zap.String("run_id", run.ID.String()),
		zap.Int("succeeded", run.SourcesSucceeded),
		zap.Int("failed", run.SourcesFailed),
		zap.Int("upserted", run.PostingsUpserted),
	)
	return nil
}
