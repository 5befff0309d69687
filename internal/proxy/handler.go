// Package proxy streams remote PDFs through the API with an inline
// Content-Disposition so browsers preview them instead of downloading.
// Object storage providers often serve PDFs with an attachment disposition
// the admin UI cannot override.
package proxy

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/visionpoint/assessment-api/internal/apperror"
)

// Handler handles PDF proxy requests.
type Handler struct {
	client *http.Client
}

// NewHandler creates a new proxy handler.
func NewHandler() *Handler {
	return &Handler{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// PDF streams a remote PDF inline (GET /api/proxy/pdf?url=...). Only https
// URLs are allowed so the proxy cannot be pointed at internal plaintext
// services.
func (h *Handler) PDF(c echo.Context) error {
	target := c.QueryParam("url")
	if target == "" || !strings.HasPrefix(target, "https://") {
		return apperror.NewValidation("invalid or missing url")
	}

	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, target, nil)
	if err != nil {
		return apperror.NewValidation("invalid or missing url")
	}

	upstream, err := h.client.Do(req)
	if err != nil {
		return apperror.NewInternal(err)
	}
	defer upstream.Body.Close()

	if upstream.StatusCode < 200 || upstream.StatusCode > 299 {
		return echo.NewHTTPError(upstream.StatusCode, "failed to fetch file")
	}

	contentType := upstream.Header.Get("Content-Type")
	if strings.Contains(strings.ToLower(contentType), "pdf") {
		contentType = "application/pdf"
	} else if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Response().Header().Set("Content-Disposition", "inline")
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().WriteHeader(http.StatusOK)

	_, err = io.Copy(c.Response(), upstream.Body)
	return err
}

// RegisterRoutes wires the proxy endpoint onto the public API group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/proxy/pdf", h.PDF)
}
