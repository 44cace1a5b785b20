// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const eventColumns = `id, name, date, time, location, created_at, updated_at`

func scanEvent(row rowScanner) (Event, error) {
	var e Event
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Date,
		&e.Time,
		&e.Location,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

// EventOrder selects the sort order of event listings.
type EventOrder int

// Event orderings.
const (
	EventOrderID   EventOrder = iota // insertion order
	EventOrderDate                   // chronological
)

func (o EventOrder) clause() string {
	if o == EventOrderDate {
		return "date, time, id"
	}
	return "id"
}

// CreateEventParams are the inputs of CreateEvent.
type CreateEventParams struct {
	Name      string
	Date      string
	Time      string
	Location  string
	CreatedAt time.Time
}

const createEvent = `INSERT INTO events (name, date, time, location, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`

// CreateEvent inserts an event.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	res, err := q.db.ExecContext(ctx, createEvent,
		arg.Name,
		arg.Date,
		arg.Time,
		arg.Location,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	if err != nil {
		return Event{}, fmt.Errorf("inserting event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Event{}, fmt.Errorf("reading event id: %w", err)
	}
	return q.GetEvent(ctx, id)
}

// UpdateEventParams are the inputs of UpdateEvent.
type UpdateEventParams struct {
	ID        int64
	Name      string
	Date      string
	Time      string
	Location  string
	UpdatedAt time.Time
}

const updateEvent = `UPDATE events SET name = ?, date = ?, time = ?, location = ?, updated_at = ? WHERE id = ?`

// UpdateEvent overwrites an event's fields. Returns ErrNotFound for an unknown id.
func (q *Queries) UpdateEvent(ctx context.Context, arg UpdateEventParams) (Event, error) {
	err := q.execOne(ctx, updateEvent,
		arg.Name,
		arg.Date,
		arg.Time,
		arg.Location,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Event{}, err
		}
		return Event{}, fmt.Errorf("updating event: %w", err)
	}
	return q.GetEvent(ctx, arg.ID)
}

const deleteEvent = `DELETE FROM events WHERE id = ?`

// DeleteEvent removes an event; its registrations go with it.
func (q *Queries) DeleteEvent(ctx context.Context, id int64) error {
	err := q.execOne(ctx, deleteEvent, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("deleting event: %w", err)
	}
	return err
}

const getEvent = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

// GetEvent returns the event with id or ErrNotFound.
func (q *Queries) GetEvent(ctx context.Context, id int64) (Event, error) {
	e, err := scanEvent(q.db.QueryRowContext(ctx, getEvent, id))
	return e, notFound(err)
}

// ListEvents returns every event in the given order.
func (q *Queries) ListEvents(ctx context.Context, order EventOrder) ([]Event, error) {
	return q.queryEvents(ctx, `SELECT `+eventColumns+` FROM events ORDER BY `+order.clause())
}

const searchEvents = `SELECT ` + eventColumns + ` FROM events
WHERE name LIKE ? ESCAPE '!' OR location LIKE ? ESCAPE '!'
ORDER BY date, time, id`

// SearchEvents returns events whose name or location contains query.
// LIKE wildcards in query match literally.
func (q *Queries) SearchEvents(ctx context.Context, query string) ([]Event, error) {
	pattern := "%" + escapeLike(query) + "%"
	return q.queryEvents(ctx, searchEvents, pattern, pattern)
}

const countEvents = `SELECT COUNT(*) FROM events`

// CountEvents returns the number of events.
func (q *Queries) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countEvents).Scan(&n)
	return n, err
}

const deleteAllEvents = `DELETE FROM events`

// DeleteAllEvents removes every event and, by cascade, every registration.
// Used only by the sample data generator.
func (q *Queries) DeleteAllEvents(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, deleteAllEvents); err != nil {
		return fmt.Errorf("deleting events: %w", err)
	}
	return nil
}

func (q *Queries) queryEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
