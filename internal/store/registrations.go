// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"
)

const registrationColumns = `id, event_id, name, email, created_at`

func scanRegistration(row rowScanner) (Registration, error) {
	var r Registration
	err := row.Scan(&r.ID, &r.EventID, &r.Name, &r.Email, &r.CreatedAt)
	return r, err
}

// CreateRegistrationParams are the inputs of CreateRegistration.
type CreateRegistrationParams struct {
	EventID   int64
	Name      string
	Email     string
	CreatedAt time.Time
}

const createRegistration = `INSERT INTO registrations (event_id, name, email, created_at) VALUES (?, ?, ?, ?)`

// CreateRegistration inserts a registration. Returns ErrAlreadyRegistered if
// (event, email) already exists and ErrNotFound if the event does not.
func (q *Queries) CreateRegistration(ctx context.Context, arg CreateRegistrationParams) (Registration, error) {
	res, err := q.db.ExecContext(ctx, createRegistration, arg.EventID, arg.Name, arg.Email, arg.CreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return Registration{}, ErrAlreadyRegistered
		case isForeignKeyViolation(err):
			return Registration{}, ErrNotFound
		}
		return Registration{}, fmt.Errorf("inserting registration: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Registration{}, fmt.Errorf("reading registration id: %w", err)
	}
	return Registration{
		ID:        id,
		EventID:   arg.EventID,
		Name:      arg.Name,
		Email:     arg.Email,
		CreatedAt: arg.CreatedAt,
	}, nil
}

const getRegistration = `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = ? AND email = ?`

// GetRegistration returns the registration of email for eventID or ErrNotFound.
func (q *Queries) GetRegistration(ctx context.Context, eventID int64, email string) (Registration, error) {
	r, err := scanRegistration(q.db.QueryRowContext(ctx, getRegistration, eventID, email))
	return r, notFound(err)
}

const listRegistrationsForEvent = `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = ? ORDER BY id`

// ListRegistrationsForEvent returns an event's registrations in insertion order.
func (q *Queries) ListRegistrationsForEvent(ctx context.Context, eventID int64) ([]Registration, error) {
	return q.queryRegistrations(ctx, listRegistrationsForEvent, eventID)
}

const listRegistrationsByEmail = `SELECT ` + registrationColumns + ` FROM registrations WHERE email = ? ORDER BY id`

// ListRegistrationsByEmail returns every registration made under email.
func (q *Queries) ListRegistrationsByEmail(ctx context.Context, email string) ([]Registration, error) {
	return q.queryRegistrations(ctx, listRegistrationsByEmail, email)
}

const listRegistrationsWithEvents = `SELECT r.id, r.event_id, r.name, r.email, r.created_at,
       e.name, e.date, e.time, e.location
FROM registrations r
JOIN events e ON e.id = r.event_id
ORDER BY e.name, r.name, r.id`

// ListRegistrationsWithEvents joins every registration to its event, ordered
// by event name then registrant name.
func (q *Queries) ListRegistrationsWithEvents(ctx context.Context) ([]RegistrationWithEvent, error) {
	rows, err := q.db.QueryContext(ctx, listRegistrationsWithEvents)
	if err != nil {
		return nil, fmt.Errorf("listing registrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []RegistrationWithEvent
	for rows.Next() {
		var i RegistrationWithEvent
		if err := rows.Scan(
			&i.ID,
			&i.EventID,
			&i.Name,
			&i.Email,
			&i.CreatedAt,
			&i.EventName,
			&i.EventDate,
			&i.EventTime,
			&i.EventLocation,
		); err != nil {
			return nil, fmt.Errorf("scanning registration: %w", err)
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countRegistrations = `SELECT COUNT(*) FROM registrations`

// CountRegistrations returns the total number of registrations.
func (q *Queries) CountRegistrations(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countRegistrations).Scan(&n)
	return n, err
}

const countRegistrationsByEvent = `SELECT event_id, COUNT(*) FROM registrations GROUP BY event_id`

// CountRegistrationsByEvent returns registration counts keyed by event id.
// Events without registrations are absent from the map.
func (q *Queries) CountRegistrationsByEvent(ctx context.Context) (map[int64]int64, error) {
	rows, err := q.db.QueryContext(ctx, countRegistrationsByEvent)
	if err != nil {
		return nil, fmt.Errorf("counting registrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[int64]int64)
	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (q *Queries) queryRegistrations(ctx context.Context, query string, args ...any) ([]Registration, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing registrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning registration: %w", err)
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
