// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/eventdesk/internal/export"
	"github.com/olegiv/eventdesk/internal/middleware"
	"github.com/olegiv/eventdesk/internal/render"
	"github.com/olegiv/eventdesk/internal/service"
	"github.com/olegiv/eventdesk/internal/store"
	"github.com/olegiv/eventdesk/internal/validation"
)

// EventsHandler handles event management routes.
type EventsHandler struct {
	events         *service.EventService
	registrations  *service.RegistrationService
	activity       *service.ActivityService
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(events *service.EventService, registrations *service.RegistrationService, activity *service.ActivityService, renderer *render.Renderer, sm *scs.SessionManager) *EventsHandler {
	return &EventsHandler{
		events:         events,
		registrations:  registrations,
		activity:       activity,
		renderer:       renderer,
		sessionManager: sm,
	}
}

// eventForm feeds the shared event form fields.
type eventForm struct {
	Event       store.Event
	RequireTime bool
}

// eventsData is the admin listing.
type eventsData struct {
	Events []service.EventSummary
	Totals *service.Totals
	Query  string
	Form   eventForm
}

// dashboardData is the user's event list.
type dashboardData struct {
	Events []service.DashboardEvent
	Query  string
}

func eventInput(r *http.Request) validation.EventInput {
	return validation.EventInput{
		Name:     r.FormValue("name"),
		Date:     r.FormValue("date"),
		Time:     r.FormValue("time"),
		Location: r.FormValue("location"),
	}
}

// List handles GET /admin.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	data := eventsData{Form: eventForm{RequireTime: h.events.RequireTime()}}

	events, err := h.events.Summaries(r.Context())
	if err == nil {
		var totals service.Totals
		if totals, err = h.events.Totals(r.Context()); err == nil {
			data.Events = events
			data.Totals = &totals
		}
	}
	if err != nil {
		noteStoreError(r, h.sessionManager, "listing events", "error", err)
	}

	renderPage(w, r, h.renderer, pageEvents, render.TemplateData{
		Title: "Events",
		Data:  data,
	})
}

// Create handles POST /add.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessionManager, redirectAdmin) {
		return
	}

	event, err := h.events.Create(r.Context(), eventInput(r))
	if err != nil {
		flashServiceError(w, r, h.sessionManager, redirectAdmin, err, "creating event")
		return
	}

	h.activity.LogEvent(r.Context(), "Event created: "+event.Name, middleware.GetUserIDPtr(r), middleware.ClientIP(r),
		map[string]any{"event_id": event.ID})
	flashSuccess(w, r, h.sessionManager, redirectAdmin, msgEventAdded)
}

// EditForm handles GET /edit/{id}.
func (h *EventsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.sessionManager, redirectAdmin, msgInvalidID)
		return
	}

	event, err := h.events.Get(r.Context(), id)
	if err != nil {
		flashServiceError(w, r, h.sessionManager, redirectAdmin, err, "loading event", "event_id", id)
		return
	}

	renderPage(w, r, h.renderer, pageEdit, render.TemplateData{
		Title: "Edit " + event.Name,
		Data:  eventForm{Event: event, RequireTime: h.events.RequireTime()},
	})
}

// Edit handles POST /edit/{id}.
func (h *EventsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.sessionManager, redirectAdmin, msgInvalidID)
		return
	}
	if !parseFormOrRedirect(w, r, h.sessionManager, editURL(id)) {
		return
	}
	h.update(w, r, id)
}

// Update handles POST /update, taking the event id from the form.
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessionManager, redirectAdmin) {
		return
	}
	id, err := parsePositiveID(r.FormValue("id"))
	if err != nil {
		flashError(w, r, h.sessionManager, redirectAdmin, msgInvalidID)
		return
	}
	h.update(w, r, id)
}

func (h *EventsHandler) update(w http.ResponseWriter, r *http.Request, id int64) {
	event, err := h.events.Update(r.Context(), id, eventInput(r))
	if err != nil {
		back := editURL(id)
		if !service.IsUserError(err) || errors.Is(err, service.ErrEventNotFound) {
			back = redirectAdmin
		}
		flashServiceError(w, r, h.sessionManager, back, err, "updating event", "event_id", id)
		return
	}

	h.activity.LogEvent(r.Context(), "Event updated: "+event.Name, middleware.GetUserIDPtr(r), middleware.ClientIP(r),
		map[string]any{"event_id": event.ID})
	flashSuccess(w, r, h.sessionManager, redirectAdmin, msgEventUpdated)
}

// Delete handles POST /delete/{id}. Registrations go with the event.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.sessionManager, redirectAdmin, msgInvalidID)
		return
	}

	if err := h.events.Delete(r.Context(), id); err != nil {
		flashServiceError(w, r, h.sessionManager, redirectAdmin, err, "deleting event", "event_id", id)
		return
	}

	h.activity.LogEvent(r.Context(), "Event deleted", middleware.GetUserIDPtr(r), middleware.ClientIP(r),
		map[string]any{"event_id": id})
	flashSuccess(w, r, h.sessionManager, redirectAdmin, msgEventDeleted)
}

// Search handles GET /search?query=. Admins get the management listing,
// users their dashboard, both narrowed to matching events.
func (h *EventsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	id := middleware.GetIdentity(r)

	if id.IsAdmin() {
		events, err := h.events.SearchSummaries(r.Context(), query)
		if err != nil {
			noteStoreError(r, h.sessionManager, "searching events", "error", err)
		}
		renderPage(w, r, h.renderer, pageEvents, render.TemplateData{
			Title: "Search",
			Data:  eventsData{Events: events, Query: query, Form: eventForm{RequireTime: h.events.RequireTime()}},
		})
		return
	}

	events, err := h.registrations.SearchDashboard(r.Context(), id.Email, query)
	if err != nil {
		noteStoreError(r, h.sessionManager, "searching events", "error", err, "user_id", id.UserID)
	}
	renderPage(w, r, h.renderer, pageDashboard, render.TemplateData{
		Title: "Search",
		Data:  dashboardData{Events: events, Query: query},
	})
}

// Export handles GET /export: every event by date as CSV.
func (h *EventsHandler) Export(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context(), store.EventOrderDate)
	if err != nil {
		flashStoreError(w, r, h.sessionManager, redirectAdmin, "exporting events", "error", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteEvents(&buf, events); err != nil {
		logAndInternalError(w, "writing events csv", "error", err)
		return
	}

	h.activity.LogEvent(r.Context(), "Events exported", middleware.GetUserIDPtr(r), middleware.ClientIP(r),
		map[string]any{"count": len(events)})
	writeCSV(w, export.EventsFilename, buf.Bytes())
}

func editURL(id int64) string {
	return "/edit/" + strconv.FormatInt(id, 10)
}

// writeCSV sends body as a CSV attachment.
func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
