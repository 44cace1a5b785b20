// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/eventdesk/internal/render"
	"github.com/olegiv/eventdesk/internal/service"
)

// UsersHandler handles the admin user list.
type UsersHandler struct {
	accounts       *service.AccountService
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(accounts *service.AccountService, renderer *render.Renderer, sm *scs.SessionManager) *UsersHandler {
	return &UsersHandler{
		accounts:       accounts,
		renderer:       renderer,
		sessionManager: sm,
	}
}

// List handles GET /users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		flashStoreError(w, r, h.sessionManager, redirectAdmin, "listing users", "error", err)
		return
	}

	renderPage(w, r, h.renderer, pageUsers, render.TemplateData{
		Title: "Users",
		Data:  users,
	})
}
