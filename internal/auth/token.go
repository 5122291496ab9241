// Package auth holds the token lifecycle and the ownership policy that
// gates every mutating endpoint. Tokens are stateless HS256 JWTs: validity
// is entirely a function of signature and expiry, so a token cannot be
// revoked before it expires.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/direct-message-service/internal/repository"
)

// ErrInvalidToken covers malformed input, signature mismatch and expiry.
var ErrInvalidToken = errors.New("invalid token")

// ErrUnknownSubject is returned when a structurally valid token names a
// user that no longer exists in the credential store.
var ErrUnknownSubject = errors.New("unknown subject")

// TokenIssuer signs and verifies identity assertions. When Users is
// non-nil, Verify re-checks the credential store for the embedded subject
// so a deleted user cannot keep using an unexpired token; setting Users to
// nil restores the purely stateless behaviour.
type TokenIssuer struct {
	Secret []byte
	TTL    time.Duration
	Users  repository.UserExister
}

func NewTokenIssuer(secret string, ttlMin int, users repository.UserExister) *TokenIssuer {
	return &TokenIssuer{
		Secret: []byte(secret),
		TTL:    time.Duration(ttlMin) * time.Minute,
		Users:  users,
	}
}

// Issue signs a token with subject = username, expiring TTL from now.
// Nothing is stored server-side.
func (i *TokenIssuer) Issue(username string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.TTL)
	claims := jwt.MapClaims{
		"sub": username,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify decodes the token and returns the embedded username. The
// expiry check comes before the subject lookup, so an expired token is
// rejected with ErrInvalidToken regardless of whether its user still
// exists.
func (i *TokenIssuer) Verify(ctx context.Context, raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.Secret, nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	username, ok := claims["sub"].(string)
	if !ok || username == "" {
		return "", ErrInvalidToken
	}
	if i.Users != nil {
		exists, err := i.Users.Exists(ctx, username)
		if err != nil {
			// a store failure is not a verdict on the token; callers
			// must not treat it as a rejected credential
			return "", fmt.Errorf("subject lookup: %w", err)
		}
		if !exists {
			return "", ErrUnknownSubject
		}
	}
	return username, nil
}
