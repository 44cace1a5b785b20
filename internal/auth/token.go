// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultResetTokenMaxAge is how long a password reset link stays valid.
const DefaultResetTokenMaxAge = time.Hour

const purposePasswordReset = "password_reset"

// Reset token errors.
var (
	ErrTokenInvalid = errors.New("reset token is invalid")
	ErrTokenExpired = errors.New("reset token has expired")
)

// ResetClaims are the claims carried by a password reset token.
// The email is the JWT subject; ID is a random jti used for single-use tracking.
type ResetClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"pur"`
}

// Email returns the address the token was issued for.
func (c ResetClaims) Email() string {
	return c.Subject
}

// ResetTokens issues and verifies HMAC-signed password reset tokens.
type ResetTokens struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewResetTokens creates a token issuer keyed by secret. A non-positive maxAge
// falls back to DefaultResetTokenMaxAge.
func NewResetTokens(secret string, maxAge time.Duration) *ResetTokens {
	if maxAge <= 0 {
		maxAge = DefaultResetTokenMaxAge
	}
	return &ResetTokens{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// MaxAge returns the configured token lifetime.
func (t *ResetTokens) MaxAge() time.Duration {
	return t.maxAge
}

// Issue returns a signed token binding email and the current time.
func (t *ResetTokens) Issue(email string) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ResetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.maxAge)),
		},
		Purpose: purposePasswordReset,
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing reset token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, purpose and age of token. A token older than
// maxAge is rejected even if its embedded expiry is later; maxAge <= 0 uses
// the issuer's configured lifetime.
func (t *ResetTokens) Verify(token string, maxAge time.Duration) (ResetClaims, error) {
	if maxAge <= 0 {
		maxAge = t.maxAge
	}

	claims := ResetClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ResetClaims{}, ErrTokenExpired
		}
		return ResetClaims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.Purpose != purposePasswordReset || claims.Subject == "" || claims.IssuedAt == nil {
		return ResetClaims{}, ErrTokenInvalid
	}

	if t.now().Sub(claims.IssuedAt.Time) > maxAge {
		return ResetClaims{}, ErrTokenExpired
	}

	return claims, nil
}
