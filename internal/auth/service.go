package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/visionpoint/assessment-api/internal/apperror"
	"github.com/visionpoint/assessment-api/internal/config"
)

// AuthService defines the business logic contract for admin authentication.
// Handlers call these methods -- they never touch tokens or hashes directly.
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, err error)
	ValidateToken(token string) (*Identity, error)
	SessionTTL() time.Duration
}

// authService implements AuthService against the single admin credential
// loaded from the environment at startup. The credential and signing secret
// are immutable, so the service is safe for concurrent use without locking.
type authService struct {
	adminEmail string // Already lowercased by config.Load.
	adminHash  string
	secret     []byte
	ttl        time.Duration
}

// NewAuthService creates a new auth service from the loaded configuration.
func NewAuthService(cfg config.AuthConfig) AuthService {
	return &authService{
		adminEmail: cfg.AdminEmail,
		adminHash:  cfg.AdminPasswordHash,
		secret:     []byte(cfg.JWTSecret),
		ttl:        cfg.SessionTTL,
	}
}

// Login checks the submitted credentials against the admin credential and,
// on success, issues a signed session token. Wrong email and wrong password
// produce the same generic 401 -- the response never reveals which check
// failed.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	if normalized != s.adminEmail || !VerifyPassword(password, s.adminHash) {
		return "", apperror.NewUnauthorized("invalid email or password")
	}

	token, err := SignToken(s.adminEmail, s.ttl, s.secret)
	if err != nil {
		return "", apperror.NewInternal(err)
	}

	slog.Info("admin logged in", slog.String("email", s.adminEmail))

	return token, nil
}

// ValidateToken verifies a session token and maps its claims to an
// Identity. Any verification failure -- and a token without a subject --
// yields a uniform unauthorized error.
func (s *authService) ValidateToken(token string) (*Identity, error) {
	claims, err := VerifyToken(token, s.secret)
	if err != nil || claims.Subject == "" {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	return &Identity{Email: claims.Subject}, nil
}

// SessionTTL returns the configured token lifetime. The cookie Max-Age is
// kept equal to it so cookie and token expire together.
func (s *authService) SessionTTL() time.Duration {
	return s.ttl
}
