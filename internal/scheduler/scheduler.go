// Package scheduler wires up the cron job that periodically runs a full
// ingestion cycle followed by a scoring sweep.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jobscoutbot/jobscout/internal/config"
	"github.com/jobscoutbot/jobscout/internal/dto"
	"github.com/jobscoutbot/jobscout/internal/entity"
)

type ingestRunner interface {
	Run(ctx context.Context, sources []config.Source) (*entity.IngestRun, error)
}

type scorer interface {
	ScoreAll(ctx context.Context) (dto.ScoreSweepResult, error)
}

// Scheduler wraps robfig/cron and manages the ingest loop.
type Scheduler struct {
	cron     *cron.Cron
	ingester ingestRunner
	scorer   scorer
	sources  []config.Source
	spec     string
	logger   *zap.Logger
}

// New creates a Scheduler firing on the given cron spec, e.g. "@every 6h".
func New(ingester ingestRunner, scorer scorer, sources []config.Source, spec string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		ingester: ingester,
		scorer:   scorer,
		sources:  sources,
		spec:     spec,
		logger:   logger,
	}
}

// Start registers the job and starts the scheduler. An empty spec disables
// periodic runs without error.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.spec == "" {
		s.logger.Info("scheduler disabled, no cron spec configured")
		return nil
	}

	_, err := s.cron.AddFunc(s.spec, func() {
		s.runCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))

	// First cycle fires right away so the catalogue is populated
	// without waiting for the first tick.
	go s.runCycle(ctx)
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}

// runCycle ingests every registered source, then rescoring runs over the
// whole catalogue so fresh rows get a relevance score in the same cycle.
func (s *Scheduler) runCycle(ctx context.Context) {
	s.logger.Info("ingest cycle started", zap.Int("sources", len(s.sources)))

	run, err := s.ingester.Run(ctx, s.sources)
	if err != nil {
		s.logger.Error("ingest cycle failed", zap.Error(err))
		return
	}
	s.logger.Info("ingest cycle complete",
		zap.String("run_id", run.ID.String()),
		zap.Int("succeeded", run.SourcesSucceeded),
		zap.Int("failed", run.SourcesFailed),
		zap.Int("upserted", run.PostingsUpserted),
	)

	sweep, err := s.scorer.ScoreAll(ctx)
	if err != nil {
		s.logger.Error("scoring sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("scoring sweep complete",
		zap.Int("scanned", sweep.Scanned),
		zap.Int("updated", sweep.Updated),
	)
}
