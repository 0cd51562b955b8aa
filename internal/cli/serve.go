package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobscoutbot/jobscout/internal/auth"
	"github.com/jobscoutbot/jobscout/internal/handler"
	middlewarepkg "github.com/jobscoutbot/jobscout/internal/middleware"
	"github.com/jobscoutbot/jobscout/internal/router"
	"github.com/jobscoutbot/jobscout/internal/scheduler"
	"github.com/jobscoutbot/jobscout/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the periodic ingestion scheduler",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	bootCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	app, err := newApplication(bootCtx)
	if err != nil {
		return err
	}
	defer app.Close()

	jwtManager := auth.NewJWTManager(app.cfg.JWTSecret, app.cfg.TokenTTL)
	authService := service.NewAuthService(app.cfg.AdminPasswordHash, jwtManager)

	handlers := router.Handlers{
		Auth:  handler.NewAuthHandler(authService),
		Jobs:  handler.NewJobsHandler(app.postingsService),
		Runs:  handler.NewRunsHandler(app.runsRepo, app.fetchLogRepo),
		Admin: handler.NewAdminHandler(app.orchestrator, app.postingsService, app.companiesService, app.sources),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(app.logger))
	e.Use(echoMiddleware.Recover())

	router.Register(e, app.cfg, jwtManager, handlers)

	sched := scheduler.New(app.orchestrator, app.postingsService, app.sources, app.cfg.ScrapeCron, app.logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + app.cfg.Port)
	}()
	app.logger.Info("server listening", zap.String("port", app.cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		app.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		app.logger.Warn("graceful shutdown failed", zap.Error(err))
	}
	return nil
}
