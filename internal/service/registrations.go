// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/olegiv/eventdesk/internal/model"
	"github.com/olegiv/eventdesk/internal/store"
	"github.com/olegiv/eventdesk/internal/validation"
)

// RegistrationService records who attends which event.
type RegistrationService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewRegistrationService creates a RegistrationService.
func NewRegistrationService(db *sql.DB) *RegistrationService {
	return &RegistrationService{
		queries: store.New(db),
		now:     time.Now,
	}
}

// DashboardEvent is an event as seen by one user.
type DashboardEvent struct {
	store.Event
	Registered bool
}

// Register adds name and email to event eventID. A second registration of the
// same email returns ErrAlreadyRegistered and stores nothing, including when
// two requests race.
func (s *RegistrationService) Register(ctx context.Context, eventID int64, name, email string) (store.Registration, error) {
	name = validation.Clean(name)
	email = validation.CleanEmail(email)

	if err := invalid(validation.ValidateRegistrant(name, email)); err != nil {
		return store.Registration{}, err
	}

	if _, err := s.queries.GetEvent(ctx, eventID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Registration{}, ErrEventNotFound
		}
		return store.Registration{}, err
	}

	_, err := s.queries.GetRegistration(ctx, eventID, email)
	switch {
	case err == nil:
		return store.Registration{}, ErrAlreadyRegistered
	case !errors.Is(err, store.ErrNotFound):
		return store.Registration{}, err
	}

	reg, err := s.queries.CreateRegistration(ctx, store.CreateRegistrationParams{
		EventID:   eventID,
		Name:      name,
		Email:     email,
		CreatedAt: s.now().UTC(),
	})
	switch {
	case errors.Is(err, store.ErrAlreadyRegistered):
		return store.Registration{}, ErrAlreadyRegistered
	case errors.Is(err, store.ErrNotFound):
		return store.Registration{}, ErrEventNotFound
	}
	return reg, err
}

// RegisterSelf registers the signed-in user under their account name and email.
func (s *RegistrationService) RegisterSelf(ctx context.Context, eventID int64, id *model.Identity) (store.Registration, error) {
	return s.Register(ctx, eventID, id.Name, id.Email)
}

// ForEvent returns event eventID and its registrations in insertion order.
func (s *RegistrationService) ForEvent(ctx context.Context, eventID int64) (store.Event, []store.Registration, error) {
	e, err := s.queries.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Event{}, nil, ErrEventNotFound
		}
		return store.Event{}, nil, err
	}

	regs, err := s.queries.ListRegistrationsForEvent(ctx, eventID)
	if err != nil {
		return store.Event{}, nil, err
	}
	return e, regs, nil
}

// All returns every registration joined with its event, ordered by event
// name then registrant name.
func (s *RegistrationService) All(ctx context.Context) ([]store.RegistrationWithEvent, error) {
	return s.queries.ListRegistrationsWithEvents(ctx)
}

// Dashboard lists every event by date, marking those email is registered for.
func (s *RegistrationService) Dashboard(ctx context.Context, email string) ([]DashboardEvent, error) {
	return s.SearchDashboard(ctx, email, "")
}

// SearchDashboard is Dashboard limited to events whose name or location
// contains query. An empty query lists every event.
func (s *RegistrationService) SearchDashboard(ctx context.Context, email, query string) ([]DashboardEvent, error) {
	var (
		events []store.Event
		err    error
	)
	if query = strings.TrimSpace(query); query == "" {
		events, err = s.queries.ListEvents(ctx, store.EventOrderDate)
	} else {
		events, err = s.queries.SearchEvents(ctx, query)
	}
	if err != nil {
		return nil, err
	}

	regs, err := s.queries.ListRegistrationsByEmail(ctx, validation.CleanEmail(email))
	if err != nil {
		return nil, err
	}

	mine := make(map[int64]bool, len(regs))
	for _, r := range regs {
		mine[r.EventID] = true
	}

	out := make([]DashboardEvent, 0, len(events))
	for _, e := range events {
		out = append(out, DashboardEvent{Event: e, Registered: mine[e.ID]})
	}
	return out, nil
}
