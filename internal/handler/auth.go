// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/eventdesk/internal/middleware"
	"github.com/olegiv/eventdesk/internal/model"
	"github.com/olegiv/eventdesk/internal/render"
	"github.com/olegiv/eventdesk/internal/service"
	"github.com/olegiv/eventdesk/internal/session"
	"github.com/olegiv/eventdesk/internal/validation"
)

// AuthHandler handles signup, login, logout and password reset routes.
type AuthHandler struct {
	accounts        *service.AccountService
	activity        *service.ActivityService
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler. lp may be nil to disable lockout.
func NewAuthHandler(accounts *service.AccountService, activity *service.ActivityService, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		accounts:        accounts,
		activity:        activity,
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
	}
}

// loginData is the login form state kept across a failed attempt.
type loginData struct {
	Email string
}

// Home handles GET / by sending the user to the page for their role.
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, homeFor(middleware.GetIdentity(r)), http.StatusSeeOther)
}

func homeFor(id *model.Identity) string {
	switch {
	case id == nil:
		return redirectLogin
	case id.IsAdmin():
		return redirectAdmin
	default:
		return redirectDashboard
	}
}

// LoginForm handles GET /login. Signed-in users are sent home.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if id := middleware.GetIdentity(r); id != nil {
		http.Redirect(w, r, homeFor(id), http.StatusSeeOther)
		return
	}

	renderPage(w, r, h.renderer, pageLogin, render.TemplateData{
		Title: "Log in",
		Data:  loginData{Email: r.URL.Query().Get("email")},
	})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessionManager, redirectLogin) {
		return
	}

	email := validation.CleanEmail(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		flashError(w, r, h.sessionManager, redirectLogin, msgCredsRequired)
		return
	}

	ctx := r.Context()
	clientIP := middleware.ClientIP(r)

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(ctx, email); locked {
			h.activity.LogAuth(ctx, model.ActivityLevelWarning, "Login attempt on locked account", nil, clientIP, r.UserAgent(), map[string]any{"email": email})
			flashError(w, r, h.sessionManager, redirectLogin, fmt.Sprintf(msgAccountLocked, formatDuration(remaining)))
			return
		}
	}

	user, err := h.accounts.Authenticate(ctx, email, password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			slog.Error("database error during login", "error", err)
			flashError(w, r, h.sessionManager, redirectLogin, service.MsgGeneric)
			return
		}

		h.activity.LogAuth(ctx, model.ActivityLevelWarning, "Login failed", nil, clientIP, r.UserAgent(), map[string]any{"email": email})
		h.loginFailed(w, r, email, clientIP)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(ctx, email)
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(ctx); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(ctx, session.KeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID)
	h.activity.LogAuth(ctx, model.ActivityLevelInfo, "User logged in", &user.ID, clientIP, r.UserAgent(), nil)

	id := &model.Identity{UserID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}
	flashSuccess(w, r, h.sessionManager, homeFor(id), "Welcome back, "+user.Name+"!")
}

// loginFailed counts a failed attempt and answers with the matching notice.
// Unknown emails are counted too so lockout does not reveal which accounts exist.
func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, email, clientIP string) {
	if h.loginProtection != nil {
		ctx := r.Context()
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(ctx, email); locked {
			h.activity.LogAuth(ctx, model.ActivityLevelWarning, "Account locked due to failed attempts", nil, clientIP, r.UserAgent(),
				map[string]any{"email": email, "duration": lockDuration.String()})
			flashError(w, r, h.sessionManager, redirectLogin, fmt.Sprintf(msgTooManyAttempts, formatDuration(lockDuration)))
			return
		}
		if remaining := h.loginProtection.GetRemainingAttempts(ctx, email); remaining > 0 && remaining <= 3 {
			flashError(w, r, h.sessionManager, redirectLogin, fmt.Sprintf(msgAttemptsLeft, remaining))
			return
		}
	}
	flashError(w, r, h.sessionManager, redirectLogin, service.MsgInvalidCredentials)
}

// Logout handles GET and POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDPtr(r)
	if userID != nil {
		h.activity.LogAuth(r.Context(), model.ActivityLevelInfo, "User logged out", userID, middleware.ClientIP(r), r.UserAgent(), nil)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	// Destroy drops the session data; the flash goes into a fresh session.
	flashAndRedirect(w, r, h.sessionManager, redirectLogin, msgLoggedOut, session.FlashInfo)
}

// SignupForm handles GET /signup.
func (h *AuthHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	if id := middleware.GetIdentity(r); id != nil {
		http.Redirect(w, r, homeFor(id), http.StatusSeeOther)
		return
	}
	renderPage(w, r, h.renderer, pageSignup, render.TemplateData{Title: "Sign up"})
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessionManager, redirectSignup) {
		return
	}

	user, err := h.accounts.Signup(r.Context(), validation.SignupInput{
		Name:               r.FormValue("name"),
		Email:              r.FormValue("email"),
		RegistrationNumber: r.FormValue("registration_number"),
		Semester:           r.FormValue("semester"),
		Year:               r.FormValue("year"),
		Password:           r.FormValue("password"),
		ConfirmPassword:    r.FormValue("confirm_password"),
	})
	if err != nil {
		flashServiceError(w, r, h.sessionManager, redirectSignup, err, "signup failed")
		return
	}

	h.activity.LogAuth(r.Context(), model.ActivityLevelInfo, "User signed up", &user.ID, middleware.ClientIP(r), r.UserAgent(), nil)
	flashSuccess(w, r, h.sessionManager, redirectLogin+"?email="+url.QueryEscape(user.Email), msgSignedUp)
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

// resetToken returns the token path segment, rejecting anything that could
// not be a compact JWT.
func resetToken(raw string) (string, bool) {
	if raw == "" || len(raw) > 2048 || strings.Count(raw, ".") != 2 {
		return "", false
	}
	return raw, true
}
