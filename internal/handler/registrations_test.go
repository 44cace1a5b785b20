// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/eventdesk/internal/export"
	"github.com/olegiv/eventdesk/internal/service"
	"github.com/olegiv/eventdesk/internal/session"
	"github.com/olegiv/eventdesk/internal/testutil"
	"github.com/olegiv/eventdesk/internal/validation"
)

func registerValues(eventID int64, name, email string) url.Values {
	return url.Values{"event_id": {strconv.FormatInt(eventID, 10)}, "name": {name}, "email": {email}}
}

func TestRegistrationsHandler_Dashboard(t *testing.T) {
	app := newTestApp(t)
	member := app.member(t)
	testutil.CreateEvent(t, app.db, "Go Meetup", "2030-05-01", "18:00", "Room 101")

	res := app.serve(t, app.registrations.Dashboard, call{target: "/dashboard", id: member})
	assertStatus(t, res.Code, http.StatusOK)
	assert.Contains(t, res.Body.String(), "Go Meetup")
	assert.Contains(t, res.Body.String(), "/register_event/")
}

func TestRegistrationsHandler_RegisterSelf(t *testing.T) {
	app := newTestApp(t)
	member := app.member(t)
	e := testutil.CreateEvent(t, app.db, "Go Meetup", "2030-05-01", "18:00", "Room 101")

	c := call{method: http.MethodPost, target: "/register_event/1", id: member, params: idParam(e.ID)}

	res := app.serve(t, app.registrations.RegisterSelf, c)
	assertRedirect(t, res, "/dashboard")
	assert.True(t, res.flashed(session.FlashSuccess, msgRegistered))

	// Registering twice is a notice, not an error, and adds nothing.
	res = app.serve(t, app.registrations.RegisterSelf, c)
	assertRedirect(t, res, "/dashboard")
	assert.True(t, res.flashed(session.FlashInfo, service.MsgAlreadyRegistered))
	assert.Equal(t, 1, countRows(t, app.db, "registrations"))

	// The dashboard now shows the event as registered.
	res = app.serve(t, app.registrations.Dashboard, call{target: "/dashboard", id: member})
	assert.NotContains(t, res.Body.String(), "/register_event/")

	res = app.serve(t, app.registrations.RegisterSelf, call{method: http.MethodPost, target: "/register_event/999",
		id: member, params: idParam(999)})
	assertRedirect(t, res, "/dashboard")
	assert.True(t, res.flashed(session.FlashError, service.MsgEventNotFound))
}

func TestRegistrationsHandler_Register(t *testing.T) {
	app := newTestApp(t)
	admin := app.admin(t)
	e := testutil.CreateEvent(t, app.db, "Go Meetup", "2030-05-01", "18:00", "Room 101")

	res := app.serve(t, app.registrations.Register, call{method: http.MethodPost, target: "/register", id: admin,
		form: registerValues(e.ID, "Carl Guest", "Carl@Example.com")})
	assertRedirect(t, res, "/admin")
	assert.True(t, res.flashed(session.FlashSuccess, msgRegistered))

	// Email comparison ignores case.
	res = app.serve(t, app.registrations.Register, call{method: http.MethodPost, target: "/register", id: admin,
		form: registerValues(e.ID, "Carl Guest", "carl@example.com")})
	assert.True(t, res.flashed(session.FlashInfo, service.MsgAlreadyRegistered))

	res = app.serve(t, app.registrations.Register, call{method: http.MethodPost, target: "/register", id: admin,
		form: registerValues(e.ID, "C", "not-an-email")})
	assertRedirect(t, res, "/admin")
	assert.True(t, res.flashed(session.FlashError, validation.MsgRegistrantName))
	assert.True(t, res.flashed(session.FlashError, validation.MsgEmailFormat))

	res = app.serve(t, app.registrations.Register, call{method: http.MethodPost, target: "/register", id: admin,
		form: url.Values{"event_id": {"x"}, "name": {"Dee"}, "email": {"dee@example.com"}}})
	assert.True(t, res.flashed(session.FlashError, msgInvalidID))

	assert.Equal(t, 1, countRows(t, app.db, "registrations"))
}

func TestRegistrationsHandler_ListAndView(t *testing.T) {
	app := newTestApp(t)
	admin := app.admin(t)
	e := testutil.CreateEvent(t, app.db, "Go Meetup", "2030-05-01", "18:00", "Room 101")
	app.serve(t, app.registrations.Register, call{method: http.MethodPost, target: "/register", id: admin,
		form: registerValues(e.ID, "Carl Guest", "carl@example.com")})

	res := app.serve(t, app.registrations.List, call{target: "/registrations", id: admin})
	assertStatus(t, res.Code, http.StatusOK)
	assert.Contains(t, res.Body.String(), "carl@example.com")
	assert.Contains(t, res.Body.String(), "Go Meetup")

	res = app.serve(t, app.registrations.View, call{target: "/view_registration/1", id: admin, params: idParam(e.ID)})
	assertStatus(t, res.Code, http.StatusOK)
	assert.Contains(t, res.Body.String(), "Carl Guest")

	res = app.serve(t, app.registrations.View, call{target: "/view_registration/999", id: admin, params: idParam(999)})
	assertRedirect(t, res, "/admin")
	assert.True(t, res.flashed(session.FlashError, service.MsgEventNotFound))
}

func TestRegistrationsHandler_Export(t *testing.T) {
	app := newTestApp(t)
	admin := app.admin(t)
	e := testutil.CreateEvent(t, app.db, "Go Meetup", "2030-05-01", "18:00", "Room 101")
	for _, email := range []string{"a@example.com", "b@example.com"} {
		app.serve(t, app.registrations.Register, call{method: http.MethodPost, target: "/register", id: admin,
			form: registerValues(e.ID, "Guest", email)})
	}

	res := app.serve(t, app.registrations.Export, call{target: "/export/registrations", id: admin})
	assertStatus(t, res.Code, http.StatusOK)
	assert.Equal(t, "attachment; filename="+export.RegistrationsFilename, res.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimRight(res.Body.String(), "\r\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Event ID,"))
}
