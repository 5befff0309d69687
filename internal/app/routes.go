package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/visionpoint/assessment-api/internal/auth"
	"github.com/visionpoint/assessment-api/internal/proxy"
	"github.com/visionpoint/assessment-api/internal/reports"
	"github.com/visionpoint/assessment-api/internal/storage"
)

// RegisterRoutes sets up all application routes. This is the single place
// where services and handlers are constructed and wired together.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Health check endpoint for container orchestration.
	e.GET("/healthz", a.healthz)

	api := e.Group("/api")

	// Admin authentication: login/logout are public, session is guarded
	// inside auth.RegisterRoutes.
	authService := auth.NewAuthService(a.Config.Auth)
	authHandler := auth.NewHandler(authService, a.Config.IsProduction())
	auth.RegisterRoutes(api.Group("/admin"), authHandler, authService)

	// Report management: admin routes behind the session guard, the
	// webhook behind its bearer secret.
	resolver := storage.NewResolver(a.Uploader, a.Config.Storage.MaxPDFBytes)
	locker := reports.NewRedisLocker(a.Redis)
	reportService := reports.NewService(reports.NewRepository(a.DB), resolver, locker)
	reportHandler := reports.NewHandler(reportService)

	admin := api.Group("/admin", auth.RequireSession(authService))
	reports.RegisterRoutes(admin, api.Group("/webhook"), reportHandler, a.Config.Webhook.Secret)

	// Public PDF preview proxy.
	proxy.RegisterRoutes(api, proxy.NewHandler())
}

// healthz reports liveness plus database connectivity.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := a.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
