package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobscoutbot/jobscout/internal/config"
	"github.com/jobscoutbot/jobscout/internal/entity"
	"github.com/jobscoutbot/jobscout/internal/repository"
)

// CompaniesService exposes read/write operations for the company catalogue.
type CompaniesService struct {
	repo   repository.CompaniesRepository
	logger *zap.Logger
}

// NewCompaniesService creates a new instance of CompaniesService.
func NewCompaniesService(repo repository.CompaniesRepository, logger *zap.Logger) *CompaniesService {
	return &CompaniesService{repo: repo, logger: logger}
}

// ListCompanies returns the catalogue, optionally active companies only.
func (s *CompaniesService) ListCompanies(ctx context.Context, activeOnly bool) ([]entity.Company, error) {
	return s.repo.List(ctx, activeOnly)
}

// SetActive toggles ingestion for one company.
func (s *CompaniesService) SetActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

// SeedFromSources upserts one company row per registry source, so the
// catalogue exists before the first ingestion run. Returns the number
// of companies written.
func (s *CompaniesService) SeedFromSources(ctx context.Context, sources []config.Source) (int, error) {
	seen := map[string]struct{}{}
	count := 0
	for _, src := range sources {
		if _, dup := seen[src.Company]; dup {
			continue
		}
		seen[src.Company] = struct{}{}

		gate := src.CompGate
		if gate == "" {
			gate = entity.CompGatePass
		}
		endpoint := src.Endpoint
		kind := src.Kind
		id, err := s.repo.Upsert(ctx, &entity.Company{
			Name:           src.Company,
			CareersURL:     &endpoint,
			ATSType:        &kind,
			Active:         src.IsActive(),
			CompGateStatus: gate,
		})
		if err != nil {
			return count, err
		}
		s.logger.Debug("seeded company", zap.String("name", src.Company), zap.Int64("id", id))
		count++
	}
	return count, nil
}
