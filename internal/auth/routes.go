package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the admin auth routes on the given group
// (mounted at /api/admin). Login and logout are public; the session check
// requires a valid cookie. The middleware itself is exported separately so
// other packages can protect their own route groups.
func RegisterRoutes(g *echo.Group, h *Handler, service AuthService) {
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.GET("/session", h.Session, RequireSession(service))
}
