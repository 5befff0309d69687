// Package app is the application bootstrap and dependency injection root.
// It creates and holds all shared infrastructure (DB pool, Redis client,
// S3 uploader, Echo instance) and wires together all feature packages.
package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/visionpoint/assessment-api/internal/apperror"
	"github.com/visionpoint/assessment-api/internal/config"
	"github.com/visionpoint/assessment-api/internal/middleware"
	"github.com/visionpoint/assessment-api/internal/storage"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB connection pool.
	DB *sql.DB

	// Redis is the Redis client backing the per-email ingestion lock.
	Redis *redis.Client

	// Uploader stores PDF artifacts in object storage.
	Uploader storage.Uploader

	// Echo is the HTTP server instance.
	Echo *echo.Echo
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client, uploader storage.Uploader) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	app := &App{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Uploader: uploader,
		Echo:     e,
	}

	// Panic recovery must be outermost so it catches panics from the
	// request logger too.
	e.Use(middleware.Recovery())
	e.Use(middleware.RequestLogger())

	e.HTTPErrorHandler = app.errorHandler

	return app
}

// Start runs the HTTP server on the configured port. Blocks until the
// server stops.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("listening",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to JSON responses and logs internal causes server-side.
// Clients only ever see the safe message.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "an unexpected error occurred"

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		message = appErr.Message

		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
		}
	case errors.As(err, &echoErr):
		// Echo's built-in errors (404 from the router, 405, proxy passthrough).
		code = echoErr.Code
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
		)
	}

	if err := c.JSON(code, map[string]string{"error": message}); err != nil {
		slog.Error("writing error response", slog.Any("error", err))
	}
}
