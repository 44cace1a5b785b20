// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/eventdesk/internal/middleware"
	"github.com/olegiv/eventdesk/internal/model"
	"github.com/olegiv/eventdesk/internal/render"
	"github.com/olegiv/eventdesk/internal/scheduler"
	"github.com/olegiv/eventdesk/internal/service"
	"github.com/olegiv/eventdesk/internal/store"
)

// ActivityHandler shows the audit log and the scheduled maintenance jobs.
type ActivityHandler struct {
	activity       *service.ActivityService
	scheduler      *scheduler.Scheduler
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewActivityHandler creates a new ActivityHandler. sched may be nil.
func NewActivityHandler(activity *service.ActivityService, sched *scheduler.Scheduler, renderer *render.Renderer, sm *scs.SessionManager) *ActivityHandler {
	return &ActivityHandler{
		activity:       activity,
		scheduler:      sched,
		renderer:       renderer,
		sessionManager: sm,
	}
}

// activityData is the activity page.
type activityData struct {
	Entries    []store.Activity
	Pagination Pagination
	Jobs       []scheduler.JobInfo
}

// List handles GET /activity.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := ParsePageParam(r)

	total, err := h.activity.Count(ctx)
	if err != nil {
		flashStoreError(w, r, h.sessionManager, redirectAdmin, "counting activity", "error", err)
		return
	}
	pagination := BuildPagination(page, total, activityPerPage, redirectActivity)

	entries, _, err := h.activity.List(ctx, activityPerPage, pagination.Offset())
	if err != nil {
		flashStoreError(w, r, h.sessionManager, redirectAdmin, "listing activity", "error", err)
		return
	}

	var jobs []scheduler.JobInfo
	if h.scheduler != nil {
		jobs = h.scheduler.List()
	}

	renderPage(w, r, h.renderer, pageActivity, render.TemplateData{
		Title: "Activity",
		Data: activityData{
			Entries:    entries,
			Pagination: pagination,
			Jobs:       jobs,
		},
	})
}

// RunJob handles POST /activity/jobs/{name}/run.
func (h *ActivityHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.scheduler == nil || name == "" {
		http.NotFound(w, r)
		return
	}

	err := h.scheduler.TriggerNow(r.Context(), name)

	h.activity.Log(r.Context(), model.ActivityLevelInfo, model.ActivityCategorySystem,
		"Job manually triggered: "+name, middleware.GetUserIDPtr(r), middleware.ClientIP(r),
		map[string]any{"job": name, "ok": err == nil})

	if err != nil {
		slog.Error("failed to trigger job", "error", err, "job", name)
		flashError(w, r, h.sessionManager, redirectActivity, fmt.Sprintf(msgJobFailed, name, err))
		return
	}

	slog.Info("scheduler job triggered", "job", name, "triggered_by", middleware.GetUserID(r))
	flashSuccess(w, r, h.sessionManager, redirectActivity, fmt.Sprintf(msgJobTriggered, name))
}
