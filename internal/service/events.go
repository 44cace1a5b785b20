// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/olegiv/eventdesk/internal/store"
	"github.com/olegiv/eventdesk/internal/validation"
)

// EventService manages events.
type EventService struct {
	queries     *store.Queries
	requireTime bool
	now         func() time.Time
}

// NewEventService creates an EventService. When requireTime is set an event
// must have a start time.
func NewEventService(db *sql.DB, requireTime bool) *EventService {
	return &EventService{
		queries:     store.New(db),
		requireTime: requireTime,
		now:         time.Now,
	}
}

// EventSummary is an event with its registration count.
type EventSummary struct {
	store.Event
	Registrations int64
}

// clean strips markup, trims every field and zero-pads the time.
func clean(in validation.EventInput) validation.EventInput {
	out := validation.EventInput{
		Name:     validation.Clean(in.Name),
		Date:     strings.TrimSpace(in.Date),
		Time:     strings.TrimSpace(in.Time),
		Location: validation.Clean(in.Location),
	}
	if t := validation.NormalizeTime(out.Time); t != "" {
		out.Time = t
	}
	return out
}

// Create validates and stores a new event.
func (s *EventService) Create(ctx context.Context, in validation.EventInput) (store.Event, error) {
	in = clean(in)
	if err := invalid(validation.ValidateEvent(in, s.requireTime)); err != nil {
		return store.Event{}, err
	}

	return s.queries.CreateEvent(ctx, store.CreateEventParams{
		Name:      in.Name,
		Date:      in.Date,
		Time:      in.Time,
		Location:  in.Location,
		CreatedAt: s.now().UTC(),
	})
}

// Update validates and overwrites event id.
func (s *EventService) Update(ctx context.Context, id int64, in validation.EventInput) (store.Event, error) {
	in = clean(in)
	if err := invalid(validation.ValidateEvent(in, s.requireTime)); err != nil {
		return store.Event{}, err
	}

	e, err := s.queries.UpdateEvent(ctx, store.UpdateEventParams{
		ID:        id,
		Name:      in.Name,
		Date:      in.Date,
		Time:      in.Time,
		Location:  in.Location,
		UpdatedAt: s.now().UTC(),
	})
	if errors.Is(err, store.ErrNotFound) {
		return store.Event{}, ErrEventNotFound
	}
	return e, err
}

// Delete removes event id and its registrations.
func (s *EventService) Delete(ctx context.Context, id int64) error {
	err := s.queries.DeleteEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrEventNotFound
	}
	return err
}

// Get returns event id.
func (s *EventService) Get(ctx context.Context, id int64) (store.Event, error) {
	e, err := s.queries.GetEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Event{}, ErrEventNotFound
	}
	return e, err
}

// List returns every event in the given order.
func (s *EventService) List(ctx context.Context, order store.EventOrder) ([]store.Event, error) {
	return s.queries.ListEvents(ctx, order)
}

// Search returns events whose name or location contains query. An empty
// query lists every event by date.
func (s *EventService) Search(ctx context.Context, query string) ([]store.Event, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.queries.ListEvents(ctx, store.EventOrderDate)
	}
	return s.queries.SearchEvents(ctx, query)
}

// Summaries returns every event by date with its registration count.
func (s *EventService) Summaries(ctx context.Context) ([]EventSummary, error) {
	events, err := s.queries.ListEvents(ctx, store.EventOrderDate)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, events)
}

// SearchSummaries is Search with registration counts.
func (s *EventService) SearchSummaries(ctx context.Context, query string) ([]EventSummary, error) {
	events, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, events)
}

func (s *EventService) summarize(ctx context.Context, events []store.Event) ([]EventSummary, error) {
	counts, err := s.queries.CountRegistrationsByEvent(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]EventSummary, 0, len(events))
	for _, e := range events {
		out = append(out, EventSummary{Event: e, Registrations: counts[e.ID]})
	}
	return out, nil
}

// Totals are the headline counts on the admin listing.
type Totals struct {
	Events        int64
	Users         int64
	Registrations int64
}

// Totals counts events, accounts and registrations.
func (s *EventService) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	var err error
	if t.Events, err = s.queries.CountEvents(ctx); err != nil {
		return Totals{}, err
	}
	if t.Users, err = s.queries.CountUsers(ctx); err != nil {
		return Totals{}, err
	}
	if t.Registrations, err = s.queries.CountRegistrations(ctx); err != nil {
		return Totals{}, err
	}
	return t, nil
}

// RequireTime reports whether events need a start time.
func (s *EventService) RequireTime() bool {
	return s.requireTime
}
