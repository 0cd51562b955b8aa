package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jobscoutbot/jobscout/internal/dto"
	"github.com/jobscoutbot/jobscout/internal/service"
)

var (
	errInvalidCompanyID = errors.New("invalid company_id")
	errInvalidMinScore  = errors.New("invalid min_score")
)

// JobsHandler exposes the read side of the posting catalogue.
type JobsHandler struct {
	postings *service.PostingsService
}

// NewJobsHandler creates a new handler instance.
func NewJobsHandler(postings *service.PostingsService) *JobsHandler {
	return &JobsHandler{postings: postings}
}

// List handles GET /jobs requests.
func (h *JobsHandler) List(c echo.Context) error {
	filter, err := jobsFilterFromQuery(c)
	if err != nil {
		return Error(c, http.StatusBadRequest, err.Error())
	}

	jobs, err := h.postings.ListJobs(c.Request().Context(), filter)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list jobs")
	}

	return Success(c, http.StatusOK, "jobs retrieved", jobs)
}

// Count handles GET /jobs/count requests.
func (h *JobsHandler) Count(c echo.Context) error {
	filter, err := jobsFilterFromQuery(c)
	if err != nil {
		return Error(c, http.StatusBadRequest, err.Error())
	}

	count, err := h.postings.CountJobs(c.Request().Context(), filter)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to count jobs")
	}

	return Success(c, http.StatusOK, "count retrieved", map[string]int{"count": count})
}

// Stats handles GET /stats requests.
func (h *JobsHandler) Stats(c echo.Context) error {
	stats, err := h.postings.Stats(c.Request().Context())
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to compute stats")
	}

	return Success(c, http.StatusOK, "stats retrieved", stats)
}

func jobsFilterFromQuery(c echo.Context) (dto.JobsFilter, error) {
	filter := dto.JobsFilter{
		Search:    strings.TrimSpace(c.QueryParam("q")),
		SortBy:    strings.TrimSpace(c.QueryParam("sort")),
		SortOrder: strings.TrimSpace(c.QueryParam("order")),
		Limit:     parseIntDefault(c.QueryParam("limit"), 0),
		Offset:    parseIntDefault(c.QueryParam("offset"), 0),
	}

	if raw := strings.TrimSpace(c.QueryParam("company_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, errInvalidCompanyID
		}
		filter.CompanyID = id
	}

	if raw := strings.TrimSpace(c.QueryParam("min_score")); raw != "" {
		minScore, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errInvalidMinScore
		}
		filter.MinScore = &minScore
	}

	return filter, nil
}

func parseIntDefault(input string, fallback int) int {
	if input == "" {
		return fallback
	}
	if value, err := strconv.Atoi(input); err == nil {
		return value
	}
	return fallback
}
