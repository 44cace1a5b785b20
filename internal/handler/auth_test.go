// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/eventdesk/internal/model"
	"github.com/olegiv/eventdesk/internal/service"
	"github.com/olegiv/eventdesk/internal/session"
)

func loginForm(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

func TestAuthHandler_Home(t *testing.T) {
	app := newTestApp(t)
	admin := app.admin(t)
	member := app.member(t)

	assertRedirect(t, app.serve(t, app.auth.Home, call{target: "/"}), "/login")
	assertRedirect(t, app.serve(t, app.auth.Home, call{target: "/", id: admin}), "/admin")
	assertRedirect(t, app.serve(t, app.auth.Home, call{target: "/", id: member}), "/dashboard")
}

func TestAuthHandler_LoginForm(t *testing.T) {
	app := newTestApp(t)

	res := app.serve(t, app.auth.LoginForm, call{target: "/login?email=ann%40example.com"})
	assertStatus(t, res.Code, http.StatusOK)
	assert.Contains(t, res.Body.String(), `value="ann@example.com"`)

	member := app.member(t)
	assertRedirect(t, app.serve(t, app.auth.LoginForm, call{target: "/login", id: member}), "/dashboard")
}

func TestAuthHandler_Login(t *testing.T) {
	app := newTestApp(t)
	app.admin(t)
	app.member(t)

	t.Run("admin goes to admin", func(t *testing.T) {
		res := app.serve(t, app.auth.Login, call{method: http.MethodPost, target: "/login",
			form: loginForm("Admin@Example.com ", "adminpass1")})
		assertRedirect(t, res, "/admin")
		assert.True(t, res.flashed(session.FlashSuccess, "Welcome back, Admin!"))
		assert.NotZero(t, app.sm.GetInt64(res.ctx, session.KeyUserID))
	})

	t.Run("user goes to dashboard", func(t *testing.T) {
		res := app.serve(t, app.auth.Login, call{method: http.MethodPost, target: "/login",
			form: loginForm("user@example.com", "userpass1")})
		assertRedirect(t, res, "/dashboard")
	})

	t.Run("missing fields", func(t *testing.T) {
		res := app.serve(t, app.auth.Login, call{method: http.MethodPost, target: "/login",
			form: loginForm("", "")})
		assertRedirect(t, res, "/login")
		assert.True(t, res.flashed(session.FlashError, msgCredsRequired))
	})

	t.Run("unknown email", func(t *testing.T) {
		res := app.serve(t, app.auth.Login, call{method: http.MethodPost, target: "/login",
			form: loginForm("nobody@example.com", "whatever1")})
		assertRedirect(t, res, "/login")
		assert.Zero(t, app.sm.GetInt64(res.ctx, session.KeyUserID))
		require.Len(t, res.flashes, 1)
		assert.Equal(t, session.FlashError, res.flashes[0].Type)
	})
}

func TestAuthHandler_Login_Lockout(t *testing.T) {
	app := newTestApp(t)
	app.member(t)

	bad := call{method: http.MethodPost, target: "/login", form: loginForm("user@example.com", "wrongpass")}

	res := app.serve(t, app.auth.Login, bad)
	assert.True(t, res.flashed(session.FlashError, fmt.Sprintf(msgAttemptsLeft, 2)))

	res = app.serve(t, app.auth.Login, bad)
	assert.True(t, res.flashed(session.FlashError, fmt.Sprintf(msgAttemptsLeft, 1)))

	res = app.serve(t, app.auth.Login, bad)
	assert.True(t, res.flashed(session.FlashError, fmt.Sprintf(msgTooManyAttempts, "1 minute")))

	// The right password does not help while locked.
	res = app.serve(t, app.auth.Login, call{method: http.MethodPost, target: "/login",
		form: loginForm("user@example.com", "userpass1")})
	assertRedirect(t, res, "/login")
	require.Len(t, res.flashes, 1)
	assert.Contains(t, res.flashes[0].Message, "Account temporarily locked")
	assert.Zero(t, app.sm.GetInt64(res.ctx, session.KeyUserID))
}

func TestAuthHandler_Logout(t *testing.T) {
	app := newTestApp(t)
	member := app.member(t)

	res := app.serve(t, app.auth.Logout, call{method: http.MethodPost, target: "/logout", id: member})
	assertRedirect(t, res, "/login")
	assert.True(t, res.flashed(session.FlashInfo, msgLoggedOut))
	assert.Zero(t, app.sm.GetInt64(res.ctx, session.KeyUserID))

	entries, _, err := app.activity.List(res.ctx, 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "User logged out", entries[0].Message)
}

func TestAuthHandler_Signup(t *testing.T) {
	app := newTestApp(t)

	form := url.Values{
		"name":                {"Bea Student"},
		"email":               {"Bea@Example.com"},
		"registration_number": {"std042"},
		"semester":            {"2"},
		"year":                {"3"},
		"password":            {"password1"},
		"confirm_password":    {"password1"},
	}

	res := app.serve(t, app.auth.Signup, call{method: http.MethodPost, target: "/signup", form: form})
	assertRedirect(t, res, "/login?email=bea%40example.com")
	assert.True(t, res.flashed(session.FlashSuccess, msgSignedUp))
	assert.Equal(t, 1, countRows(t, app.db, "users"))

	// Same email again is refused.
	res = app.serve(t, app.auth.Signup, call{method: http.MethodPost, target: "/signup", form: form})
	assertRedirect(t, res, "/signup")
	assert.True(t, res.flashed(session.FlashError, service.MsgEmailTaken))
}

func TestAuthHandler_Signup_Validation(t *testing.T) {
	app := newTestApp(t)

	res := app.serve(t, app.auth.Signup, call{method: http.MethodPost, target: "/signup", form: url.Values{
		"name":             {"Bo"},
		"email":            {"not-an-email"},
		"password":         {"short"},
		"confirm_password": {"different"},
	}})
	assertRedirect(t, res, "/signup")
	assert.GreaterOrEqual(t, len(res.flashes), 2)
	for _, f := range res.flashes {
		assert.Equal(t, session.FlashError, f.Type)
	}
	assert.Equal(t, 0, countRows(t, app.db, "users"))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30 seconds"},
		{time.Minute, "1 minute"},
		{15 * time.Minute, "15 minutes"},
		{time.Hour, "1 hour"},
		{3 * time.Hour, "3 hours"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d), tt.d.String())
	}
}

func TestResetTokenParam(t *testing.T) {
	_, ok := resetToken("a.b.c")
	assert.True(t, ok)

	for _, raw := range []string{"", "abc", "a.b", "a.b.c.d"} {
		_, ok := resetToken(raw)
		assert.False(t, ok, raw)
	}
}

func TestHomeFor(t *testing.T) {
	assert.Equal(t, "/login", homeFor(nil))
	assert.Equal(t, "/admin", homeFor(&model.Identity{Role: model.RoleAdmin}))
	assert.Equal(t, "/dashboard", homeFor(&model.Identity{Role: model.RoleUser}))
}
