// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/eventdesk/internal/export"
	"github.com/olegiv/eventdesk/internal/middleware"
	"github.com/olegiv/eventdesk/internal/render"
	"github.com/olegiv/eventdesk/internal/service"
	"github.com/olegiv/eventdesk/internal/session"
	"github.com/olegiv/eventdesk/internal/store"
)

// RegistrationsHandler handles event registration routes and the user dashboard.
type RegistrationsHandler struct {
	registrations  *service.RegistrationService
	activity       *service.ActivityService
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewRegistrationsHandler creates a new RegistrationsHandler.
func NewRegistrationsHandler(registrations *service.RegistrationService, activity *service.ActivityService, renderer *render.Renderer, sm *scs.SessionManager) *RegistrationsHandler {
	return &RegistrationsHandler{
		registrations:  registrations,
		activity:       activity,
		renderer:       renderer,
		sessionManager: sm,
	}
}

// eventRegistrationsData is one event with its registrants.
type eventRegistrationsData struct {
	Event         store.Event
	Registrations []store.Registration
}

// Dashboard handles GET /dashboard.
func (h *RegistrationsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)

	events, err := h.registrations.Dashboard(r.Context(), id.Email)
	if err != nil {
		noteStoreError(r, h.sessionManager, "loading dashboard", "error", err, "user_id", id.UserID)
	}

	renderPage(w, r, h.renderer, pageDashboard, render.TemplateData{
		Title: "Dashboard",
		Data:  dashboardData{Events: events},
	})
}

// RegisterSelf handles POST /register_event/{id}: the signed-in user signs up
// for an event under their account name and email.
func (h *RegistrationsHandler) RegisterSelf(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	back := homeFor(id)

	eventID, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.sessionManager, back, msgInvalidID)
		return
	}

	reg, err := h.registrations.RegisterSelf(r.Context(), eventID, id)
	if err != nil {
		h.registerFailed(w, r, back, err, eventID)
		return
	}

	h.activity.LogRegistration(r.Context(), "User registered for event", &id.UserID, middleware.ClientIP(r),
		map[string]any{"event_id": eventID, "registration_id": reg.ID})
	flashSuccess(w, r, h.sessionManager, back, msgRegistered)
}

// Register handles POST /register: an admin records a registration for
// someone else.
func (h *RegistrationsHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessionManager, redirectAdmin) {
		return
	}

	eventID, err := parsePositiveID(r.FormValue("event_id"))
	if err != nil {
		flashError(w, r, h.sessionManager, redirectAdmin, msgInvalidID)
		return
	}

	reg, err := h.registrations.Register(r.Context(), eventID, r.FormValue("name"), r.FormValue("email"))
	if err != nil {
		h.registerFailed(w, r, redirectAdmin, err, eventID)
		return
	}

	h.activity.LogRegistration(r.Context(), "Registration recorded", middleware.GetUserIDPtr(r), middleware.ClientIP(r),
		map[string]any{"event_id": eventID, "registration_id": reg.ID, "email": reg.Email})
	flashSuccess(w, r, h.sessionManager, redirectAdmin, msgRegistered)
}

// registerFailed reports a duplicate registration as a notice rather than
// an error; everything else goes through the usual error flashes.
func (h *RegistrationsHandler) registerFailed(w http.ResponseWriter, r *http.Request, back string, err error, eventID int64) {
	if errors.Is(err, service.ErrAlreadyRegistered) {
		flashAndRedirect(w, r, h.sessionManager, back, service.MsgAlreadyRegistered, session.FlashInfo)
		return
	}
	flashServiceError(w, r, h.sessionManager, back, err, "registering for event", "event_id", eventID)
}

// List handles GET /registrations.
func (h *RegistrationsHandler) List(w http.ResponseWriter, r *http.Request) {
	regs, err := h.registrations.All(r.Context())
	if err != nil {
		flashStoreError(w, r, h.sessionManager, redirectAdmin, "listing registrations", "error", err)
		return
	}

	renderPage(w, r, h.renderer, pageRegistrations, render.TemplateData{
		Title: "Registrations",
		Data:  regs,
	})
}

// View handles GET /view_registration/{id}: the registrants of one event.
func (h *RegistrationsHandler) View(w http.ResponseWriter, r *http.Request) {
	eventID, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.sessionManager, redirectAdmin, msgInvalidID)
		return
	}

	event, regs, err := h.registrations.ForEvent(r.Context(), eventID)
	if err != nil {
		flashServiceError(w, r, h.sessionManager, redirectAdmin, err, "loading registrations", "event_id", eventID)
		return
	}

	renderPage(w, r, h.renderer, pageEventRegistrations, render.TemplateData{
		Title: event.Name,
		Data:  eventRegistrationsData{Event: event, Registrations: regs},
	})
}

// Export handles GET /export/registrations.
func (h *RegistrationsHandler) Export(w http.ResponseWriter, r *http.Request) {
	regs, err := h.registrations.All(r.Context())
	if err != nil {
		flashStoreError(w, r, h.sessionManager, redirectAdmin, "exporting registrations", "error", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRegistrations(&buf, regs); err != nil {
		logAndInternalError(w, "writing registrations csv", "error", err)
		return
	}

	h.activity.LogRegistration(r.Context(), "Registrations exported", middleware.GetUserIDPtr(r), middleware.ClientIP(r),
		map[string]any{"count": len(regs)})
	writeCSV(w, export.RegistrationsFilename, buf.Bytes())
}
