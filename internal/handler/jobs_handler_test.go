package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jobscoutbot/jobscout/internal/dto"
	"github.com/jobscoutbot/jobscout/internal/entity"
	"github.com/jobscoutbot/jobscout/internal/repository"
	"github.com/jobscoutbot/jobscout/internal/service"
)

type stubPostingsRepo struct {
	get            func(ctx context.Context, id int64) (*entity.JobPosting, error)
	list           func(ctx context.Context, filter dto.JobsFilter) ([]entity.JobPosting, error)
	count          func(ctx context.Context, filter dto.JobsFilter) (int, error)
	stats          func(ctx context.Context) (*entity.Stats, error)
	listForScoring func(ctx context.Context, limit, offset int) ([]entity.JobPosting, error)
	updateScore    func(ctx context.Context, id int64, score int, ctcPass bool) error
}

func (s *stubPostingsRepo) UpsertBatch(ctx context.Context, companyID int64, postings []entity.JobPosting) (repository.UpsertResult, error) {
	return repository.UpsertResult{}, errors.New("not implemented")
}

func (s *stubPostingsRepo) Get(ctx context.Context, id int64) (*entity.JobPosting, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (s *stubPostingsRepo) List(ctx context.Context, filter dto.JobsFilter) ([]entity.JobPosting, error) {
	if s.list != nil {
		return s.list(ctx, filter)
	}
	return nil, errors.New("not implemented")
}

func (s *stubPostingsRepo) Count(ctx context.Context, filter dto.JobsFilter) (int, error) {
	if s.count != nil {
		return s.count(ctx, filter)
	}
	return 0, errors.New("not implemented")
}

func (s *stubPostingsRepo) ListForScoring(ctx context.Context, limit, offset int) ([]entity.JobPosting, error) {
	if s.listForScoring != nil {
		return s.listForScoring(ctx, limit, offset)
	}
	return nil, errors.New("not implemented")
}

func (s *stubPostingsRepo) UpdateScore(ctx context.Context, id int64, score int, ctcPass bool) error {
	if s.updateScore != nil {
		return s.updateScore(ctx, id, score, ctcPass)
	}
	return errors.New("not implemented")
}

func (s *stubPostingsRepo) Stats(ctx context.Context) (*entity.Stats, error) {
	if s.stats != nil {
		return s.stats(ctx)
	}
	return nil, errors.New("not implemented")
}

func newJobsHandler(repo repository.PostingsRepository) *JobsHandler {
	return NewJobsHandler(service.NewPostingsService(repo, zap.NewNop()))
}

func TestJobsHandler_List(t *testing.T) {
	e := echo.New()

	t.Run("filters forwarded", func(t *testing.T) {
		var got dto.JobsFilter
		handler := newJobsHandler(&stubPostingsRepo{
			list: func(ctx context.Context, filter dto.JobsFilter) ([]entity.JobPosting, error) {
				got = filter
				return []entity.JobPosting{{ID: 1, Title: "Data Engineer"}}, nil
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/jobs?company_id=7&min_score=80&q=data&sort=relevance_score&order=desc&limit=10&offset=20", nil)
		rec := httptest.NewRecorder()
		_ = handler.List(e.NewContext(req, rec))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.CompanyID != 7 || got.Search != "data" || got.SortBy != "relevance_score" || got.SortOrder != "desc" {
			t.Fatalf("unexpected filter: %+v", got)
		}
		if got.MinScore == nil || *got.MinScore != 80 {
			t.Fatalf("expected min score 80, got %v", got.MinScore)
		}
		if got.Limit != 10 || got.Offset != 20 {
			t.Fatalf("unexpected pagination: limit=%d offset=%d", got.Limit, got.Offset)
		}
	})

	t.Run("invalid company_id", func(t *testing.T) {
		handler := newJobsHandler(&stubPostingsRepo{})
		req := httptest.NewRequest(http.MethodGet, "/jobs?company_id=abc", nil)
		rec := httptest.NewRecorder()
		_ = handler.List(e.NewContext(req, rec))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("invalid min_score", func(t *testing.T) {
		handler := newJobsHandler(&stubPostingsRepo{})
		req := httptest.NewRequest(http.MethodGet, "/jobs?min_score=high", nil)
		rec := httptest.NewRecorder()
		_ = handler.List(e.NewContext(req, rec))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("repository failure", func(t *testing.T) {
		handler := newJobsHandler(&stubPostingsRepo{
			list: func(ctx context.Context, filter dto.JobsFilter) ([]entity.JobPosting, error) {
				return nil, errors.New("db down")
			},
		})
		req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
		rec := httptest.NewRecorder()
		_ = handler.List(e.NewContext(req, rec))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestJobsHandler_Count(t *testing.T) {
	e := echo.New()
	handler := newJobsHandler(&stubPostingsRepo{
		count: func(ctx context.Context, filter dto.JobsFilter) (int, error) {
			if filter.Search != "quant" {
				t.Fatalf("expected search forwarded, got %q", filter.Search)
			}
			return 42, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/jobs/count?q=quant", nil)
	rec := httptest.NewRecorder()
	_ = handler.Count(e.NewContext(req, rec))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"count":42`) {
		t.Fatalf("expected count in body, got %s", body)
	}
}

func TestJobsHandler_Stats(t *testing.T) {
	e := echo.New()
	handler := newJobsHandler(&stubPostingsRepo{
		stats: func(ctx context.Context) (*entity.Stats, error) {
			return &entity.Stats{CompanyCount: 3, JobCount: 120, HighScoreCount: 15}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	_ = handler.Stats(e.NewContext(req, rec))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"job_count":120`) {
		t.Fatalf("expected stats in body, got %s", body)
	}
}
