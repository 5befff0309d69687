// Package auth implements the admin login flow for the assessment API:
// stateless signed session tokens (no server-side session store), scrypt
// password verification against the environment-held admin credential, and
// the session cookie middleware protecting all admin routes.
package auth

// LoginRequest holds the credentials submitted to POST /api/admin/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identity is the authenticated principal extracted from a valid session
// token. The admin API has exactly one identity dimension: the email the
// token was issued for.
type Identity struct {
	Email string `json:"email"`
}
