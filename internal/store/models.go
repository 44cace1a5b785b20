// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User is an account row. PasswordHash is an encoded argon2id hash.
type User struct {
	ID                 int64
	Email              string
	RegistrationNumber sql.NullString
	Name               string
	PasswordHash       string
	Semester           sql.NullInt64
	Year               sql.NullInt64
	Role               string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	LastLoginAt        sql.NullTime
}

// Event is a scheduled event. Date is YYYY-MM-DD; Time is HH:MM or empty.
type Event struct {
	ID        int64
	Name      string
	Date      string
	Time      string
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Registration records one registrant for one event.
type Registration struct {
	ID        int64
	EventID   int64
	Name      string
	Email     string
	CreatedAt time.Time
}

// RegistrationWithEvent is a registration joined with its event.
type RegistrationWithEvent struct {
	Registration
	EventName     string
	EventDate     string
	EventTime     string
	EventLocation string
}

// Activity is an audit log entry.
type Activity struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	IPAddress string
	Metadata  string // JSON object
	CreatedAt time.Time
}
