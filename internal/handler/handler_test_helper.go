// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/eventdesk/internal/auth"
	"github.com/olegiv/eventdesk/internal/mail"
	"github.com/olegiv/eventdesk/internal/middleware"
	"github.com/olegiv/eventdesk/internal/model"
	"github.com/olegiv/eventdesk/internal/render"
	"github.com/olegiv/eventdesk/internal/scheduler"
	"github.com/olegiv/eventdesk/internal/service"
	"github.com/olegiv/eventdesk/internal/session"
	"github.com/olegiv/eventdesk/internal/store"
	"github.com/olegiv/eventdesk/internal/testutil"
	"github.com/olegiv/eventdesk/web"
)

const testSecret = "test-Secret-key-32-bytes-long!!!"

// captureMailer keeps every message it is asked to send.
type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// lastToken returns the token from the last reset mail, or "".
func (m *captureMailer) lastToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	body := m.sent[len(m.sent)-1].Body
	i := strings.Index(body, "/reset-password/")
	if i < 0 {
		return ""
	}
	fields := strings.Fields(body[i+len("/reset-password/"):])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// testApp wires every handler against an in-memory database.
type testApp struct {
	db       *sql.DB
	sm       *scs.SessionManager
	mailer   *captureMailer
	sched    *scheduler.Scheduler
	activity *service.ActivityService

	auth          *AuthHandler
	events        *EventsHandler
	registrations *RegistrationsHandler
	users         *UsersHandler
	activityPage  *ActivityHandler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.TestMemoryDB(t)
	sm := testSessionManager(t)

	renderer, err := render.New(render.Config{
		TemplatesFS:    web.TemplatesFS(),
		SessionManager: sm,
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	mailer := &captureMailer{}
	accounts := service.NewAccountService(db, auth.NewResetTokens(testSecret, time.Hour), mailer, "http://localhost:8080")
	events := service.NewEventService(db, false)
	regs := service.NewRegistrationService(db)
	activity := service.NewActivityService(db)
	sched := scheduler.New(testutil.TestLoggerSilent())

	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
	})

	return &testApp{
		db:            db,
		sm:            sm,
		mailer:        mailer,
		sched:         sched,
		activity:      activity,
		auth:          NewAuthHandler(accounts, activity, renderer, sm, lp),
		events:        NewEventsHandler(events, regs, activity, renderer, sm),
		registrations: NewRegistrationsHandler(regs, activity, renderer, sm),
		users:         NewUsersHandler(accounts, renderer, sm),
		activityPage:  NewActivityHandler(activity, sched, renderer, sm),
	}
}

// testSessionManager creates a session manager for testing.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// admin and member create users of each role and return their identities.
func (a *testApp) admin(t *testing.T) *model.Identity {
	t.Helper()
	u := testutil.CreateUser(t, a.db, "admin@example.com", "Admin", model.RoleAdmin, "adminpass1")
	return &model.Identity{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func (a *testApp) member(t *testing.T) *model.Identity {
	t.Helper()
	u := testutil.CreateUser(t, a.db, "user@example.com", "Una User", model.RoleUser, "userpass1")
	return &model.Identity{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// call is one handler invocation.
type call struct {
	method string
	target string
	form   url.Values
	id     *model.Identity
	params map[string]string
}

// result is what a handler left behind: the response and the session flashes.
type result struct {
	*httptest.ResponseRecorder
	flashes []session.Flash
	ctx     context.Context
}

func (r result) location() string {
	return r.Header().Get("Location")
}

// flashed reports whether a flash with the given type and message was queued.
func (r result) flashed(typ, msg string) bool {
	for _, f := range r.flashes {
		if f.Type == typ && f.Message == msg {
			return true
		}
	}
	return false
}

// serve runs h with a loaded session, the given identity and chi URL params.
func (a *testApp) serve(t *testing.T, h http.HandlerFunc, c call) result {
	t.Helper()

	if c.method == "" {
		c.method = http.MethodGet
	}
	var req *http.Request
	if c.form != nil {
		req = httptest.NewRequest(c.method, c.target, strings.NewReader(c.form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(c.method, c.target, nil)
	}

	req = requestWithSession(a.sm, req)
	if c.id != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), c.id))
	}
	if c.params != nil {
		req = requestWithURLParams(req, c.params)
	}

	w := httptest.NewRecorder()
	h(w, req)

	return result{
		ResponseRecorder: w,
		flashes:          session.PopFlashes(req.Context(), a.sm),
		ctx:              req.Context(),
	}
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// requestWithSession wraps a request with session context.
func requestWithSession(sm *scs.SessionManager, r *http.Request) *http.Request {
	ctx, err := sm.Load(r.Context(), "")
	if err != nil {
		return r
	}
	return r.WithContext(ctx)
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

// assertRedirect checks for a 303 to want.
func assertRedirect(t *testing.T, res result, want string) {
	t.Helper()
	assertStatus(t, res.Code, http.StatusSeeOther)
	if got := res.location(); got != want {
		t.Errorf("Location = %q; want %q", got, want)
	}
}

// countRows returns the number of rows in table.
func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

// eventByName looks an event up directly in the store.
func eventByName(t *testing.T, db *sql.DB, name string) store.Event {
	t.Helper()
	events, err := store.New(db).ListEvents(context.Background(), store.EventOrderDate)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	for _, e := range events {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("event %q not found", name)
	return store.Event{}
}
