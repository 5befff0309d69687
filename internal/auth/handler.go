package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/visionpoint/assessment-api/internal/apperror"
)

// sessionCookieName is the HTTP cookie used to carry the session token.
const sessionCookieName = "vip_admin_session"

// Handler handles HTTP requests for authentication (login, logout, session
// check). Handlers are thin: they bind the request, call the service, and
// render the response. No business logic lives here.
type Handler struct {
	service AuthService

	// secureCookies adds the Secure attribute to the session cookie.
	// Driven by the production flag, not TLS sniffing, so the behavior is
	// deterministic behind reverse proxies.
	secureCookies bool
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService, secureCookies bool) *Handler {
	return &Handler{service: service, secureCookies: secureCookies}
}

// Login processes the login request (POST /api/admin/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid JSON body")
	}

	if req.Email == "" || req.Password == "" {
		return apperror.NewValidation("email and password are required")
	}

	token, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, token)

	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// Logout clears the session cookie (POST /api/admin/logout). Tokens are
// stateless and cannot be revoked; an already-issued token stays valid
// until its expiry even after logout. Logout only removes the client's copy.
func (h *Handler) Logout(c echo.Context) error {
	h.clearSessionCookie(c)
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// Session returns the authenticated identity (GET /api/admin/session).
// Reached only through RequireSession, so the identity is always present.
func (h *Handler) Session(c echo.Context) error {
	identity := GetIdentity(c)
	if identity == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	return c.JSON(http.StatusOK, identity)
}

// --- Cookie helpers ---

// setSessionCookie sets the session cookie on the response. HttpOnly and
// SameSite=Lax always; Secure in production. Max-Age matches the token TTL
// so the cookie and the token expire together.
func (h *Handler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.service.SessionTTL().Seconds()),
	})
}

// clearSessionCookie removes the session cookie by serializing Max-Age=0.
func (h *Handler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// getSessionToken reads the session token from the request cookie.
func getSessionToken(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}
