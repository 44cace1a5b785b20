// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the server-side session manager. A session is
// either anonymous or carries the id of the signed-in user under KeyUserID.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Session keys.
const (
	KeyUserID = "user_id"
	KeyFlash  = "flash"
)

// Lifetime is the absolute session lifetime.
const Lifetime = 24 * time.Hour

// New creates a session manager persisted in the sessions table of db.
// driver is "sqlite" or "mysql"; anything else falls back to the SQLite store.
func New(db *sql.DB, driver string, isDev bool) *scs.SessionManager {
	sm := scs.New()

	if driver == "mysql" {
		sm.Store = mysqlstore.New(db)
	} else {
		sm.Store = sqlite3store.New(db)
	}

	sm.Lifetime = Lifetime
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev // Secure cookies in production only
	if !isDev {
		// __Host- prefix pins the cookie to this host over HTTPS.
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}
