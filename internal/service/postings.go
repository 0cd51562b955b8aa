package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobscoutbot/jobscout/internal/dto"
	"github.com/jobscoutbot/jobscout/internal/entity"
	"github.com/jobscoutbot/jobscout/internal/repository"
	"github.com/jobscoutbot/jobscout/internal/service/scoring"
)

const scoreSweepPageSize = 200

// PostingsService exposes read operations and the relevance sweep over
// stored postings.
type PostingsService struct {
	repo   repository.PostingsRepository
	logger *zap.Logger
}

// NewPostingsService creates a new instance of PostingsService.
func NewPostingsService(repo repository.PostingsRepository, logger *zap.Logger) *PostingsService {
	return &PostingsService{repo: repo, logger: logger}
}

// ListJobs returns postings respecting pagination defaults.
func (s *PostingsService) ListJobs(ctx context.Context, filter dto.JobsFilter) ([]entity.JobPosting, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

// CountJobs returns the number of postings matching the filter.
func (s *PostingsService) CountJobs(ctx context.Context, filter dto.JobsFilter) (int, error) {
	return s.repo.Count(ctx, filter)
}

// Stats aggregates dashboard counters.
func (s *PostingsService) Stats(ctx context.Context) (*entity.Stats, error) {
	return s.repo.Stats(ctx)
}

// ScoreOne recomputes and persists the relevance verdict for a single
// posting, returning the new total.
func (s *PostingsService) ScoreOne(ctx context.Context, id int64) (int, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}

	verdict := scoring.ComputeScore(featuresOf(*p))
	if err := s.repo.UpdateScore(ctx, p.ID, verdict.Total, verdict.CTCPredictedPass); err != nil {
		return 0, err
	}
	return verdict.Total, nil
}

// ScoreAll sweeps every stored posting through the relevance scorer and
// persists the verdicts. Safe to re-run at any time.
func (s *PostingsService) ScoreAll(ctx context.Context) (dto.ScoreSweepResult, error) {
	var result dto.ScoreSweepResult

	for offset := 0; ; offset += scoreSweepPageSize {
		page, err := s.repo.ListForScoring(ctx, scoreSweepPageSize, offset)
		if err != nil {
			return result, err
		}
		if len(page) == 0 {
			break
		}

		for _, p := range page {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			result.Scanned++

			verdict := scoring.ComputeScore(featuresOf(p))
			if p.RelevanceScore != nil && *p.RelevanceScore == verdict.Total &&
				p.CTCPredictedPass != nil && *p.CTCPredictedPass == verdict.CTCPredictedPass {
				continue
			}
			if err := s.repo.UpdateScore(ctx, p.ID, verdict.Total, verdict.CTCPredictedPass); err != nil {
				return result, err
			}
			result.Updated++
		}

		if len(page) < scoreSweepPageSize {
			break
		}
	}

	s.logger.Info("relevance sweep finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("updated", result.Updated),
	)
	return result, nil
}

func featuresOf(p entity.JobPosting) scoring.PostingFeatures {
	f := scoring.PostingFeatures{
		Title:        p.Title,
		Remote:       p.Remote,
		MinExp:       p.MinExp,
		MaxExp:       p.MaxExp,
		PostedAt:     p.PostedAt,
		CompGatePass: p.CompGateStatus == entity.CompGatePass,
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.LocationCity != nil {
		f.LocationCity = *p.LocationCity
	}
	return f
}
