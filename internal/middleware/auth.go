// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, rate limiting and response hardening.
package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/eventdesk/internal/model"
	"github.com/olegiv/eventdesk/internal/service"
	"github.com/olegiv/eventdesk/internal/session"
	"github.com/olegiv/eventdesk/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyIdentity holds the *model.Identity of the signed-in user.
const ContextKeyIdentity ContextKey = "identity"

// MsgLoginRequired is flashed when an anonymous visitor hits a protected page.
const MsgLoginRequired = "Please log in first."

// LoadUser resolves the session's user id into an Identity on the request
// context. A session pointing at a missing user is destroyed and the request
// continues anonymously.
func LoadUser(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), session.KeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					slog.Error("loading session user", "error", err, "user_id", userID)
				}
				_ = sm.Destroy(r.Context())
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), &model.Identity{
				UserID: user.ID,
				Email:  user.Email,
				Name:   user.Name,
				Role:   user.Role,
			})))
		})
	}
}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id *model.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, id)
}

// GetIdentity returns the signed-in identity, or nil for anonymous requests.
func GetIdentity(r *http.Request) *model.Identity {
	id, _ := r.Context().Value(ContextKeyIdentity).(*model.Identity)
	return id
}

// GetUserID returns the current user's ID from context, or 0 if not found.
func GetUserID(r *http.Request) int64 {
	if id := GetIdentity(r); id != nil {
		return id.UserID
	}
	return 0
}

// GetUserIDPtr returns a pointer to the current user's ID, or nil if anonymous.
// Useful for optional user ID parameters in activity logging.
func GetUserIDPtr(r *http.Request) *int64 {
	if id := GetIdentity(r); id != nil {
		uid := id.UserID
		return &uid
	}
	return nil
}

// RequireLogin redirects anonymous requests to the login page with a notice.
// It must run after LoadUser.
func RequireLogin(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetIdentity(r) == nil {
				session.AddFlash(r.Context(), sm, session.FlashError, MsgLoginRequired)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin answers 403 for signed-in users without the admin role and
// redirects anonymous ones to the login page. If activity is not nil, denials
// are recorded in the activity log.
func RequireAdmin(activity *service.ActivityService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := GetIdentity(r)
			if id == nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			if !id.IsAdmin() {
				slog.Info("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", id.UserID,
					"user_role", id.Role,
				)

				if activity != nil {
					uid := id.UserID
					activity.LogAuth(r.Context(), model.ActivityLevelWarning, "Access denied: admin role required",
						&uid, ClientIP(r), r.UserAgent(), map[string]any{
							"method": r.Method,
							"path":   r.URL.Path,
						})
				}

				http.Error(w, "Forbidden: administrators only", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
