package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// TokenBytes is the entropy of a session token. 32 bytes encode to a
	// 64-character hex string.
	TokenBytes = 32

	// DefaultSessionExpiry matches the original membership system: sessions
	// live for seven days from issuance.
	DefaultSessionExpiry = 168 * time.Hour
)

var (
	ErrMissingToken   = errors.New("missing token")
	ErrInvalidToken   = errors.New("invalid token")
	ErrSessionExpired = errors.New("session expired")
)

// Session is a persisted bearer session. The token itself is the primary key;
// nothing secret is derived from it, so it is stored as-is.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionStore is the persistence surface the validator needs.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

// NewSessionToken generates a 256-bit random token encoded as lowercase hex.
func NewSessionToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// TokenFromHeader extracts a bearer token from an Authorization header value.
func TokenFromHeader(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// ValidateToken checks the token shape before any store lookup: 64 hex chars.
func ValidateToken(token string) error {
	if len(token) != TokenBytes*2 || !utf8.ValidString(token) {
		return ErrInvalidToken
	}
	if _, err := hex.DecodeString(token); err != nil {
		return ErrInvalidToken
	}
	return nil
}

// ValidateSession resolves an Authorization header to a live session.
// Expired sessions are deleted on sight and reported as expired.
func ValidateSession(ctx context.Context, store SessionStore, authHeader string) (*Session, error) {
	if store == nil {
		return nil, ErrInvalidToken
	}

	token, err := TokenFromHeader(authHeader)
	if err != nil {
		return nil, err
	}
	if err := ValidateToken(token); err != nil {
		return nil, err
	}

	session, err := store.Get(ctx, token)
	if err != nil || session == nil {
		return nil, ErrInvalidToken
	}

	if session.ExpiresAt.Before(time.Now()) {
		_ = store.Delete(ctx, token)
		return nil, ErrSessionExpired
	}
	return session, nil
}
