// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler holds the HTTP handlers. Handlers parse the request, call
// the service layer and answer with a rendered page or a redirect carrying
// flash messages.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/eventdesk/internal/render"
	"github.com/olegiv/eventdesk/internal/service"
	"github.com/olegiv/eventdesk/internal/session"
)

// flashAndRedirect queues a flash message and redirects with 303 See Other.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, url, message, messageType string) {
	session.AddFlash(r.Context(), sm, messageType, message)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError queues an error flash and redirects.
func flashError(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, url, message string) {
	flashAndRedirect(w, r, sm, url, message, session.FlashError)
}

// flashSuccess queues a success flash and redirects.
func flashSuccess(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, url, message string) {
	flashAndRedirect(w, r, sm, url, message, session.FlashSuccess)
}

// flashServiceError turns a service error into one error flash per message
// and redirects. Unexpected errors are logged; the user sees a generic notice.
func flashServiceError(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, url string, err error, logMsg string, args ...any) {
	if !service.IsUserError(err) {
		slog.Error(logMsg, append(args, "error", err)...)
	}
	for _, msg := range service.Messages(err) {
		session.AddFlash(r.Context(), sm, session.FlashError, msg)
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// parseFormOrRedirect parses the request form and redirects with an error message on failure.
// Returns true if parsing succeeded, false if it failed (and redirect was performed).
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, sm, redirectURL, msgInvalidForm)
		return false
	}
	return true
}

// flashStoreError logs a persistence failure and redirects with the generic
// notice.
func flashStoreError(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, url, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	flashError(w, r, sm, url, service.MsgGeneric)
}

// noteStoreError logs a persistence failure and queues the generic notice for
// the page about to be rendered. Used on landing pages, where a redirect
// would come straight back.
func noteStoreError(r *http.Request, sm *scs.SessionManager, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	session.AddFlash(r.Context(), sm, session.FlashError, service.MsgGeneric)
}

// logAndInternalError logs an error and writes a 500 Internal Server Error response.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// renderPage renders a page, answering 500 if the template fails.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, name string, data render.TemplateData) {
	if err := renderer.Render(w, r, name, data); err != nil {
		logAndInternalError(w, "rendering page", "template", name, "error", err)
	}
}
