// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/eventdesk/internal/model"
	"github.com/olegiv/eventdesk/internal/testutil"
	"github.com/olegiv/eventdesk/internal/validation"
)

func TestRegister_Idempotent(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewRegistrationService(db)
	ctx := context.Background()

	e := testutil.CreateEvent(t, db, "Fest", "2025-05-01", "", "Hall A")
	id := &model.Identity{UserID: 1, Email: "alice@example.com", Name: "Alice", Role: model.RoleUser}

	_, err := svc.RegisterSelf(ctx, e.ID, id)
	require.NoError(t, err)

	_, err = svc.RegisterSelf(ctx, e.ID, id)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Equal(t, []string{"You are already registered for this event."}, Messages(err))

	_, regs, err := svc.ForEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, regs, 1, "exactly one stored registration")
}

func TestRegister_EmailCaseFolded(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewRegistrationService(db)
	ctx := context.Background()
	e := testutil.CreateEvent(t, db, "Fest", "2025-05-01", "", "")

	_, err := svc.Register(ctx, e.ID, "Alice", "Alice@Example.com")
	require.NoError(t, err)
	_, err = svc.Register(ctx, e.ID, "Alice", "alice@example.com")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegister_Errors(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewRegistrationService(db)
	ctx := context.Background()
	e := testutil.CreateEvent(t, db, "Fest", "2025-05-01", "", "")

	_, err := svc.Register(ctx, e.ID, "A", "not-an-email")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{validation.MsgRegistrantName, validation.MsgEmailFormat}, verr.Messages)

	_, err = svc.Register(ctx, e.ID+99, "Alice", "alice@example.com")
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, _, err = svc.ForEvent(ctx, e.ID+99)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestAllRegistrations(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewRegistrationService(db)
	ctx := context.Background()

	zeta := testutil.CreateEvent(t, db, "Zeta", "2025-05-01", "", "")
	alpha := testutil.CreateEvent(t, db, "Alpha", "2025-06-01", "", "")

	for _, r := range []struct {
		event int64
		name  string
	}{
		{zeta.ID, "Carol"},
		{alpha.ID, "Bob"},
		{alpha.ID, "Alice"},
	} {
		_, err := svc.Register(ctx, r.event, r.name, r.name+"@example.com")
		require.NoError(t, err)
	}

	all, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	got := make([]string, 0, len(all))
	for _, r := range all {
		got = append(got, r.EventName+"/"+r.Name)
	}
	assert.Equal(t, []string{"Alpha/Alice", "Alpha/Bob", "Zeta/Carol"}, got)
}

func TestDashboard(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewRegistrationService(db)
	ctx := context.Background()

	later := testutil.CreateEvent(t, db, "Later", "2025-09-01", "", "")
	sooner := testutil.CreateEvent(t, db, "Sooner", "2025-05-01", "", "")

	_, err := svc.Register(ctx, later.ID, "Alice", "alice@example.com")
	require.NoError(t, err)

	events, err := svc.Dashboard(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, sooner.ID, events[0].ID)
	assert.False(t, events[0].Registered)
	assert.Equal(t, later.ID, events[1].ID)
	assert.True(t, events[1].Registered)
}

func TestSearchDashboard(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewRegistrationService(db)
	ctx := context.Background()

	jazz := testutil.CreateEvent(t, db, "Jazz Night", "2025-06-01", "20:00", "Main Hall")
	testutil.CreateEvent(t, db, "Chess Club", "2025-06-02", "", "Library")

	_, err := svc.Register(ctx, jazz.ID, "Alice", "alice@example.com")
	require.NoError(t, err)

	events, err := svc.SearchDashboard(ctx, "alice@example.com", "hall")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, jazz.ID, events[0].ID)
	assert.True(t, events[0].Registered)

	events, err = svc.SearchDashboard(ctx, "alice@example.com", "  ")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
