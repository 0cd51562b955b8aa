package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jobscoutbot/jobscout/internal/repository"
)

// RunsHandler exposes ingestion run history and the fetch audit log.
type RunsHandler struct {
	runs     repository.RunsRepository
	fetchLog repository.FetchLogRepository
}

// NewRunsHandler creates a new handler instance.
func NewRunsHandler(runs repository.RunsRepository, fetchLog repository.FetchLogRepository) *RunsHandler {
	return &RunsHandler{runs: runs, fetchLog: fetchLog}
}

// List handles GET /runs requests.
func (h *RunsHandler) List(c echo.Context) error {
	limit := parseIntDefault(c.QueryParam("limit"), 20)

	runs, err := h.runs.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list runs")
	}

	return Success(c, http.StatusOK, "runs retrieved", runs)
}

// Get handles GET /runs/:id requests.
func (h *RunsHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid run id")
	}

	run, err := h.runs.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return Error(c, http.StatusNotFound, "run not found")
		}
		return Error(c, http.StatusInternalServerError, "failed to load run")
	}

	return Success(c, http.StatusOK, "run retrieved", run)
}

// FetchLog handles GET /admin/fetch-log requests. An optional company_id
// query parameter narrows the audit trail to one company.
func (h *RunsHandler) FetchLog(c echo.Context) error {
	limit := parseIntDefault(c.QueryParam("limit"), 50)

	var companyID int64
	if raw := strings.TrimSpace(c.QueryParam("company_id")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Error(c, http.StatusBadRequest, "invalid company_id")
		}
		companyID = parsed
	}

	entries, err := h.fetchLog.ListRecent(c.Request().Context(), companyID, limit)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list fetch log")
	}

	return Success(c, http.StatusOK, "fetch log retrieved", entries)
}
