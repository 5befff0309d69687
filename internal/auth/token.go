package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrInvalidToken is the only failure value VerifyToken returns. A bad
// signature, malformed encoding, and an expired token are deliberately
// indistinguishable to callers: distinguishing them would hand an attacker
// an oracle for partial signature matches.
var ErrInvalidToken = errors.New("invalid session token")

// Claims is the payload of a session token. Timestamps are whole seconds
// since the Unix epoch.
type Claims struct {
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// tokenHeader is the fixed JOSE-style header of every token.
type tokenHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// b64 is the token segment encoding: base64url without padding.
var b64 = base64.RawURLEncoding

// SignToken issues a compact signed token for the given subject, valid for
// ttl from now. The token is three dot-separated base64url segments:
// header JSON, claims JSON, and an HMAC-SHA256 signature over the first two
// segments exactly as encoded. Tokens are self-contained -- nothing is
// stored server-side.
func SignToken(subject string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now().Unix()
	header := tokenHeader{Alg: "HS256", Typ: "JWT"}
	claims := Claims{
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now + int64(ttl.Seconds()),
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	unsigned := b64.EncodeToString(headerJSON) + "." + b64.EncodeToString(claimsJSON)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(unsigned))
	signature := b64.EncodeToString(mac.Sum(nil))

	return unsigned + "." + signature, nil
}

// VerifyToken checks a token's structure, signature, and expiry, in that
// order. Every failure path returns ErrInvalidToken; the expiry check runs
// only after the signature verifies, so timing cannot separate "tampered"
// from "expired".
//
// Expiry is strict: a token with exp equal to the current second is still
// valid; it becomes invalid one second later.
func VerifyToken(token string, secret []byte) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, ErrInvalidToken
	}

	provided, err := b64.DecodeString(parts[2])
	if err != nil {
		return nil, ErrInvalidToken
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(parts[0] + "." + parts[1]))
	expected := mac.Sum(nil)

	// hmac.Equal is constant-time, but a length mismatch is rejected first
	// so the comparison always runs over equal-length inputs.
	if len(provided) != len(expected) || !hmac.Equal(provided, expected) {
		return nil, ErrInvalidToken
	}

	claimsJSON, err := b64.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}

	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return nil, ErrInvalidToken
	}

	if claims.ExpiresAt < time.Now().Unix() {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}
