package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jobscoutbot/jobscout/internal/config"
	"github.com/jobscoutbot/jobscout/internal/dto"
	"github.com/jobscoutbot/jobscout/internal/entity"
	"github.com/jobscoutbot/jobscout/internal/repository"
	"github.com/jobscoutbot/jobscout/internal/service"
)

// IngestStarter launches ingestion runs. Satisfied by ingest.Orchestrator.
type IngestStarter interface {
	Start(ctx context.Context, sources []config.Source) (*entity.IngestRun, error)
}

// AdminHandler exposes operator endpoints for ingestion, scoring and the
// company catalogue.
type AdminHandler struct {
	ingester  IngestStarter
	postings  *service.PostingsService
	companies *service.CompaniesService
	sources   []config.Source
}

// NewAdminHandler constructs an AdminHandler over the configured registry.
func NewAdminHandler(ingester IngestStarter, postings *service.PostingsService, companies *service.CompaniesService, sources []config.Source) *AdminHandler {
	return &AdminHandler{ingester: ingester, postings: postings, companies: companies, sources: sources}
}

// Ingest handles POST /admin/ingest requests. The run executes in the
// background; the response carries the run id to poll.
func (h *AdminHandler) Ingest(c echo.Context) error {
	var req dto.IngestRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	sources := h.sources
	if name := strings.TrimSpace(req.Company); name != "" {
		sources = filterSourcesByCompany(sources, name)
		if len(sources) == 0 {
			return Error(c, http.StatusNotFound, "no sources registered for company")
		}
	}

	run, err := h.ingester.Start(c.Request().Context(), sources)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to start ingestion")
	}

	return Success(c, http.StatusAccepted, "ingestion started", run)
}

// Score handles POST /admin/score requests.
func (h *AdminHandler) Score(c echo.Context) error {
	result, err := h.postings.ScoreAll(c.Request().Context())
	if err != nil {
		return Error(c, http.StatusInternalServerError, "scoring sweep failed")
	}

	return Success(c, http.StatusOK, "scoring sweep complete", result)
}

// ScoreOne handles POST /admin/score/:id requests.
func (h *AdminHandler) ScoreOne(c echo.Context) error {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid posting id")
	}

	score, err := h.postings.ScoreOne(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPostingNotFound) {
			return Error(c, http.StatusNotFound, "posting not found")
		}
		return Error(c, http.StatusInternalServerError, "failed to rescore posting")
	}

	return Success(c, http.StatusOK, "posting rescored", map[string]any{"id": id, "relevance_score": score})
}

// Seed handles POST /admin/seed requests.
func (h *AdminHandler) Seed(c echo.Context) error {
	count, err := h.companies.SeedFromSources(c.Request().Context(), h.sources)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to seed companies")
	}

	return Success(c, http.StatusOK, "companies seeded", map[string]int{"seeded": count})
}

// ListCompanies handles GET /admin/companies requests, including inactive rows.
func (h *AdminHandler) ListCompanies(c echo.Context) error {
	companies, err := h.companies.ListCompanies(c.Request().Context(), false)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list companies")
	}

	return Success(c, http.StatusOK, "companies retrieved", companies)
}

// SetCompanyActive handles PATCH /admin/companies/:id requests.
func (h *AdminHandler) SetCompanyActive(c echo.Context) error {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid company id")
	}

	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return Error(c, http.StatusBadRequest, "active flag is required")
	}

	if err := h.companies.SetActive(c.Request().Context(), id, *req.Active); err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return Error(c, http.StatusNotFound, "company not found")
		}
		return Error(c, http.StatusInternalServerError, "failed to update company")
	}

	return Success(c, http.StatusOK, "company updated", map[string]any{"id": id, "active": *req.Active})
}

func filterSourcesByCompany(sources []config.Source, name string) []config.Source {
	var matched []config.Source
	for _, src := range sources {
		if strings.EqualFold(src.Company, name) {
			matched = append(matched, src)
		}
	}
	return matched
}
