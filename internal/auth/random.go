package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// randomString returns a URL-safe string carrying n random bytes.
func randomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// RandomSecret returns a signing secret for processes started without JWT_SECRET.
func RandomSecret() (string, error) {
	return randomString(48)
}
