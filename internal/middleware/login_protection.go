// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxLockoutDuration caps the exponential lockout backoff.
const maxLockoutDuration = 24 * time.Hour

// LoginProtection provides combined IP rate limiting and account lockout protection.
type LoginProtection struct {
	ipLimiter *RateLimiter
	attempts  AttemptStore

	maxFailedAttempts int           // Lock account after this many failures
	lockoutDuration   time.Duration // Base lockout duration (doubles with each lockout)
	attemptWindow     time.Duration // Window to count failed attempts
}

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is requests per second per IP (default: 0.5 = 1 request per 2 seconds)
	IPRateLimit float64
	// IPBurst is the maximum burst size for IP rate limiting (default: 5)
	IPBurst int
	// MaxFailedAttempts before account lockout (default: 5)
	MaxFailedAttempts int
	// LockoutDuration is base lockout time, doubles with each lockout (default: 15 minutes)
	LockoutDuration time.Duration
	// AttemptWindow is the time window for counting failed attempts (default: 15 minutes)
	AttemptWindow time.Duration
	// Store holds the counters; an in-process store is used when nil.
	Store AttemptStore
}

// DefaultLoginProtectionConfig returns sensible defaults.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// NewLoginProtection creates a new login protection instance.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = 0.5
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = 5
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = 15 * time.Minute
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryAttemptStore()
	}

	return &LoginProtection{
		ipLimiter:         NewRateLimiter(cfg.IPRateLimit, cfg.IPBurst),
		attempts:          cfg.Store,
		maxFailedAttempts: cfg.MaxFailedAttempts,
		lockoutDuration:   cfg.LockoutDuration,
		attemptWindow:     cfg.AttemptWindow,
	}
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAccountLocked checks if an account is currently locked.
// Returns (locked, remainingTime). Store errors fail open and are logged.
func (lp *LoginProtection) IsAccountLocked(ctx context.Context, email string) (bool, time.Duration) {
	remaining, err := lp.attempts.LockedFor(ctx, accountKey(email))
	if err != nil {
		slog.Error("reading account lock", "error", err)
		return false, 0
	}
	return remaining > 0, remaining
}

// RecordFailedAttempt records a failed login attempt.
// Returns (locked, lockDuration) if the account is now locked.
func (lp *LoginProtection) RecordFailedAttempt(ctx context.Context, email string) (bool, time.Duration) {
	key := accountKey(email)

	count, err := lp.attempts.RecordFailure(ctx, key, lp.attemptWindow)
	if err != nil {
		slog.Error("recording failed login", "error", err)
		return false, 0
	}
	slog.Debug("login attempt recorded", "email", key, "count", count)

	if count < lp.maxFailedAttempts {
		return false, 0
	}

	previous, err := lp.attempts.Lockouts(ctx, key)
	if err != nil {
		slog.Error("reading lockout count", "error", err)
	}

	lockDuration := lp.lockoutDuration
	for i := 0; i < previous; i++ {
		lockDuration *= 2
		if lockDuration > maxLockoutDuration {
			lockDuration = maxLockoutDuration
			break
		}
	}

	lockouts, err := lp.attempts.Lock(ctx, key, lockDuration)
	if err != nil {
		slog.Error("locking account", "error", err)
		return false, 0
	}

	slog.Warn("account locked due to failed login attempts",
		"email", key,
		"lockouts", lockouts,
		"duration", lockDuration,
	)

	return true, lockDuration
}

// RecordSuccessfulLogin clears failed attempt tracking for an account.
func (lp *LoginProtection) RecordSuccessfulLogin(ctx context.Context, email string) {
	if err := lp.attempts.Reset(ctx, accountKey(email)); err != nil {
		slog.Error("clearing login attempts", "error", err)
	}
}

// GetRemainingAttempts returns the number of remaining attempts before lockout.
func (lp *LoginProtection) GetRemainingAttempts(ctx context.Context, email string) int {
	count, err := lp.attempts.Failures(ctx, accountKey(email))
	if err != nil {
		return lp.maxFailedAttempts
	}
	return max(lp.maxFailedAttempts-count, 0)
}

// Middleware returns HTTP middleware for IP rate limiting on login.
// Only POST requests are limited.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)
			if !lp.ipLimiter.Allow(ip) {
				slog.Warn("login rate limit exceeded", "ip", ip)
				http.Error(w, "Too many login attempts. Please wait a moment and try again.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
