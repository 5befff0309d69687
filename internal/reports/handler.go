package reports

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/visionpoint/assessment-api/internal/apperror"
)

// Handler handles HTTP requests for report ingestion and administration.
type Handler struct {
	service Service
}

// NewHandler creates a new report handler with the given service.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Webhook ingests one assessment submission (POST /api/webhook/report).
// Reached only through RequireWebhookSecret.
func (h *Handler) Webhook(c echo.Context) error {
	var req WebhookRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid JSON body")
	}

	updated, err := h.service.Ingest(c.Request().Context(), req)
	if err != nil {
		return err
	}

	resp := map[string]any{"ok": true}
	if updated {
		resp["updated"] = true
	}
	return c.JSON(http.StatusOK, resp)
}

// List returns assessment records for the admin UI (GET /api/admin/reports).
// Supports q (name search) and from/to (inclusive date bounds) query params.
func (h *Handler) List(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		// Older clients send ?search= instead.
		query = strings.TrimSpace(c.QueryParam("search"))
	}

	filter := ListFilter{
		Query: query,
		From:  strings.TrimSpace(c.QueryParam("from")),
		To:    strings.TrimSpace(c.QueryParam("to")),
	}

	assessments, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"data": assessments})
}

// Delete removes a record (POST /api/admin/reports/delete).
func (h *Handler) Delete(c echo.Context) error {
	var req DeleteRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid JSON body")
	}
	if strings.TrimSpace(req.ID) == "" {
		return apperror.NewValidation("id is required")
	}

	if err := h.service.Delete(c.Request().Context(), strings.TrimSpace(req.ID)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
