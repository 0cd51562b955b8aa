package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/jobscoutbot/jobscout/internal/config"
	"github.com/jobscoutbot/jobscout/internal/entity"
)

type stubCompaniesRepo struct {
	upserted []entity.Company
}

func (s *stubCompaniesRepo) Upsert(ctx context.Context, company *entity.Company) (int64, error) {
	s.upserted = append(s.upserted, *company)
	return int64(len(s.upserted)), nil
}

func (s *stubCompaniesRepo) FindByName(ctx context.Context, name string) (*entity.Company, error) {
	return nil, nil
}

func (s *stubCompaniesRepo) List(ctx context.Context, activeOnly bool) ([]entity.Company, error) {
	return nil, nil
}

func (s *stubCompaniesRepo) SetActive(ctx context.Context, id int64, active bool) error {
	return nil
}

func TestSeedFromSources(t *testing.T) {
	repo := &stubCompaniesRepo{}
	svc := NewCompaniesService(repo, zap.NewNop())

	probation := entity.CompGateProbation
	sources := []config.Source{
		{Company: "Acme Analytics", Kind: config.KindPagedAPI, Endpoint: "https://acme.com/api"},
		{Company: "Acme Analytics", Kind: config.KindStaticHTML, Endpoint: "https://acme.com/careers"},
		{Company: "Globex", Kind: config.KindPagedAPI, Endpoint: "https://globex.com/api", CompGate: probation},
	}

	count, err := svc.SeedFromSources(context.Background(), sources)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("duplicate company names must collapse, got %d", count)
	}
	if len(repo.upserted) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(repo.upserted))
	}
	if repo.upserted[0].CompGateStatus != entity.CompGatePass {
		t.Fatalf("missing gate should default to pass, got %q", repo.upserted[0].CompGateStatus)
	}
	if repo.upserted[1].CompGateStatus != entity.CompGateProbation {
		t.Fatalf("explicit gate must carry through, got %q", repo.upserted[1].CompGateStatus)
	}
}
