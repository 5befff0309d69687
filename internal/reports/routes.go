package reports

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires the report endpoints. The admin group carries the
// session middleware already; the webhook group is public and gets the
// bearer-secret check here.
func RegisterRoutes(admin, webhook *echo.Group, h *Handler, webhookSecret string) {
	admin.GET("/reports", h.List)
	admin.POST("/reports/delete", h.Delete)
	admin.DELETE("/reports/delete", h.Delete)

	webhook.POST("/report", h.Webhook, RequireWebhookSecret(webhookSecret))
}
