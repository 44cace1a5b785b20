// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/eventdesk/internal/middleware"
	"github.com/olegiv/eventdesk/internal/model"
	"github.com/olegiv/eventdesk/internal/render"
	"github.com/olegiv/eventdesk/internal/service"
	"github.com/olegiv/eventdesk/internal/session"
)

// resetData is the state of the choose-a-new-password page.
type resetData struct {
	Token string
	Email string
}

// ForgotForm handles GET /forgot-password.
func (h *AuthHandler) ForgotForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, pageForgot, render.TemplateData{Title: "Forgot password"})
}

// Forgot handles POST /forgot-password. The answer is the same whether or
// not the email belongs to an account.
func (h *AuthHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessionManager, redirectForgot) {
		return
	}

	email := r.FormValue("email")
	if err := h.accounts.RequestReset(r.Context(), email); err != nil {
		slog.Error("password reset request failed", "error", err)
	}

	h.activity.LogAuth(r.Context(), model.ActivityLevelInfo, "Password reset requested", nil,
		middleware.ClientIP(r), r.UserAgent(), nil)
	flashAndRedirect(w, r, h.sessionManager, redirectLogin, msgResetSent, session.FlashInfo)
}

// ResetForm handles GET /reset-password/{token}.
func (h *AuthHandler) ResetForm(w http.ResponseWriter, r *http.Request) {
	token, ok := resetToken(chi.URLParam(r, "token"))
	if !ok {
		flashError(w, r, h.sessionManager, redirectForgot, service.MsgResetTokenInvalid)
		return
	}

	email, err := h.accounts.CheckResetToken(r.Context(), token)
	if err != nil {
		flashServiceError(w, r, h.sessionManager, redirectForgot, err, "checking reset token")
		return
	}

	renderPage(w, r, h.renderer, pageReset, render.TemplateData{
		Title: "Reset password",
		Data:  resetData{Token: token, Email: email},
	})
}

// Reset handles POST /reset-password/{token}.
func (h *AuthHandler) Reset(w http.ResponseWriter, r *http.Request) {
	token, ok := resetToken(chi.URLParam(r, "token"))
	if !ok {
		flashError(w, r, h.sessionManager, redirectForgot, service.MsgResetTokenInvalid)
		return
	}
	back := "/reset-password/" + token

	if !parseFormOrRedirect(w, r, h.sessionManager, back) {
		return
	}

	user, err := h.accounts.ResetPassword(r.Context(), token, r.FormValue("password"), r.FormValue("confirm_password"))
	if err != nil {
		// A rejected password keeps the link; a bad or spent token does not.
		target := redirectForgot
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			target = back
		}
		flashServiceError(w, r, h.sessionManager, target, err, "password reset failed")
		return
	}

	h.activity.LogAuth(r.Context(), model.ActivityLevelInfo, "Password reset completed", &user.ID,
		middleware.ClientIP(r), r.UserAgent(), nil)
	flashSuccess(w, r, h.sessionManager, redirectLogin, msgPasswordReset)
}
