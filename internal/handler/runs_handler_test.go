package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jobscoutbot/jobscout/internal/entity"
	"github.com/jobscoutbot/jobscout/internal/repository"
)

type stubRunsRepo struct {
	get        func(ctx context.Context, id uuid.UUID) (*entity.IngestRun, error)
	listRecent func(ctx context.Context, limit int) ([]entity.IngestRun, error)
}

func (s *stubRunsRepo) Create(ctx context.Context, sourcesTotal int) (*entity.IngestRun, error) {
	return nil, errors.New("not implemented")
}

func (s *stubRunsRepo) Finish(ctx context.Context, id uuid.UUID, succeeded, failed, upserted int) error {
	return errors.New("not implemented")
}

func (s *stubRunsRepo) Get(ctx context.Context, id uuid.UUID) (*entity.IngestRun, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (s *stubRunsRepo) ListRecent(ctx context.Context, limit int) ([]entity.IngestRun, error) {
	if s.listRecent != nil {
		return s.listRecent(ctx, limit)
	}
	return nil, errors.New("not implemented")
}

type stubFetchLogRepo struct {
	listRecent func(ctx context.Context, companyID int64, limit int) ([]entity.FetchLog, error)
}

func (s *stubFetchLogRepo) RecordSuccess(ctx context.Context, companyID int64, sourceURL string, itemCount int) error {
	return errors.New("not implemented")
}

func (s *stubFetchLogRepo) RecordError(ctx context.Context, companyID int64, sourceURL string, errText string) error {
	return errors.New("not implemented")
}

func (s *stubFetchLogRepo) ListRecent(ctx context.Context, companyID int64, limit int) ([]entity.FetchLog, error) {
	if s.listRecent != nil {
		return s.listRecent(ctx, companyID, limit)
	}
	return nil, errors.New("not implemented")
}

func TestRunsHandler_List(t *testing.T) {
	e := echo.New()
	var gotLimit int
	handler := NewRunsHandler(&stubRunsRepo{
		listRecent: func(ctx context.Context, limit int) ([]entity.IngestRun, error) {
			gotLimit = limit
			return []entity.IngestRun{{ID: uuid.New(), Status: entity.RunStatusCompleted, StartedAt: time.Now()}}, nil
		},
	}, &stubFetchLogRepo{})

	req := httptest.NewRequest(http.MethodGet, "/admin/runs", nil)
	rec := httptest.NewRecorder()
	_ = handler.List(e.NewContext(req, rec))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotLimit != 20 {
		t.Fatalf("expected default limit 20, got %d", gotLimit)
	}
}

func TestRunsHandler_Get(t *testing.T) {
	e := echo.New()

	get := func(handler *RunsHandler, id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/runs/"+id, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(id)
		_ = handler.Get(c)
		return rec
	}

	t.Run("invalid id", func(t *testing.T) {
		handler := NewRunsHandler(&stubRunsRepo{}, &stubFetchLogRepo{})
		rec := get(handler, "not-a-uuid")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		handler := NewRunsHandler(&stubRunsRepo{
			get: func(ctx context.Context, id uuid.UUID) (*entity.IngestRun, error) {
				return nil, repository.ErrRunNotFound
			},
		}, &stubFetchLogRepo{})
		rec := get(handler, uuid.NewString())
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		runID := uuid.New()
		handler := NewRunsHandler(&stubRunsRepo{
			get: func(ctx context.Context, id uuid.UUID) (*entity.IngestRun, error) {
				if id != runID {
					t.Fatalf("expected lookup for %s, got %s", runID, id)
				}
				return &entity.IngestRun{ID: runID, Status: entity.RunStatusRunning}, nil
			},
		}, &stubFetchLogRepo{})
		rec := get(handler, runID.String())
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

func TestRunsHandler_FetchLog(t *testing.T) {
	e := echo.New()
	var gotCompanyID int64
	var gotLimit int
	handler := NewRunsHandler(&stubRunsRepo{}, &stubFetchLogRepo{
		listRecent: func(ctx context.Context, companyID int64, limit int) ([]entity.FetchLog, error) {
			gotCompanyID = companyID
			gotLimit = limit
			errText := "timeout"
			return []entity.FetchLog{{ID: 1, CompanyID: 2, SourceURL: "https://acme.example/api/jobs", ErrorText: &errText}}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/fetch-log?limit=5&company_id=2", nil)
	rec := httptest.NewRecorder()
	_ = handler.FetchLog(e.NewContext(req, rec))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotLimit != 5 || gotCompanyID != 2 {
		t.Fatalf("expected limit 5 for company 2, got limit=%d company=%d", gotLimit, gotCompanyID)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/fetch-log?company_id=abc", nil)
	rec = httptest.NewRecorder()
	_ = handler.FetchLog(e.NewContext(req, rec))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad company_id, got %d", rec.Code)
	}
}
