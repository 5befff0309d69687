package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. N/r/p follow the widely used interactive-login
// defaults; changing them invalidates every stored hash, so they are
// deliberately not configurable.
const (
	scryptN = 16384
	scryptR = 8
	scryptP = 1

	hashSaltLen = 16
	hashKeyLen  = 64
)

// hashDelimiter separates the salt and derived key in a stored hash.
const hashDelimiter = ":"

// HashPassword derives an scrypt hash of the given password with a fresh
// random salt. The output format is "base64(salt):base64(key)" -- self-
// contained, so verification needs no separate salt storage.
func HashPassword(password string) (string, error) {
	salt := make([]byte, hashSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, hashKeyLen)
	if err != nil {
		return "", fmt.Errorf("deriving key: %w", err)
	}

	return base64.StdEncoding.EncodeToString(salt) + hashDelimiter +
		base64.StdEncoding.EncodeToString(key), nil
}

// VerifyPassword checks a plaintext password against a stored
// "base64(salt):base64(key)" hash. Returns true only on a match.
//
// A malformed stored hash always yields false, never an error -- a broken
// credential in the environment must fail closed, not disable the password
// check. The function is pure: no I/O, no clock, no global state.
func VerifyPassword(password, stored string) bool {
	salt, expected, ok := parseStoredHash(stored)
	if !ok {
		return false
	}

	derived, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, len(expected))
	if err != nil {
		return false
	}

	if len(derived) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare(derived, expected) == 1
}

// parseStoredHash splits and decodes a stored hash. Any structural problem
// (missing delimiter, empty parts, bad base64, zero-length salt or key)
// reports !ok.
func parseStoredHash(stored string) (salt, key []byte, ok bool) {
	saltB64, keyB64, found := strings.Cut(stored, hashDelimiter)
	if !found || saltB64 == "" || keyB64 == "" {
		return nil, nil, false
	}

	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, nil, false
	}
	key, err = base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, nil, false
	}

	if len(salt) == 0 || len(key) == 0 {
		return nil, nil, false
	}
	return salt, key, true
}
