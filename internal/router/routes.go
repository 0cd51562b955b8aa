package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jobscoutbot/jobscout/internal/auth"
	"github.com/jobscoutbot/jobscout/internal/config"
	"github.com/jobscoutbot/jobscout/internal/handler"
	middlewarepkg "github.com/jobscoutbot/jobscout/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth  *handler.AuthHandler
	Jobs  *handler.JobsHandler
	Runs  *handler.RunsHandler
	Admin *handler.AdminHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.POST("/auth/login", handlers.Auth.Login)
	e.GET("/jobs", handlers.Jobs.List)
	e.GET("/jobs/count", handlers.Jobs.Count)
	e.GET("/stats", handlers.Jobs.Stats)
	e.GET("/runs", handlers.Runs.List)
	e.GET("/runs/:id", handlers.Runs.Get)

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))

	admin := secured.Group("/admin", middlewarepkg.RequireRole("admin"), middlewarepkg.AdminRateLimiter(cfg.RateLimitAdmin, "/admin"))
	admin.POST("/ingest", handlers.Admin.Ingest)
	admin.POST("/score", handlers.Admin.Score)
	admin.POST("/score/:id", handlers.Admin.ScoreOne)
	admin.POST("/seed", handlers.Admin.Seed)
	admin.GET("/companies", handlers.Admin.ListCompanies)
	admin.PATCH("/companies/:id", handlers.Admin.SetCompanyActive)
	admin.GET("/fetch-log", handlers.Runs.FetchLog)
}
