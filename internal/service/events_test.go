// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/eventdesk/internal/model"
	"github.com/olegiv/eventdesk/internal/store"
	"github.com/olegiv/eventdesk/internal/testutil"
	"github.com/olegiv/eventdesk/internal/validation"
)

func TestEventService_CreateListDelete(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewEventService(db, false)
	ctx := context.Background()

	e, err := svc.Create(ctx, validation.EventInput{Name: "Fest", Date: "2025-05-01", Location: "Hall A"})
	require.NoError(t, err)

	events, err := svc.List(ctx, store.EventOrderID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Fest", events[0].Name)
	assert.Equal(t, "Hall A", events[0].Location)

	require.NoError(t, svc.Delete(ctx, e.ID))

	events, err = svc.List(ctx, store.EventOrderID)
	require.NoError(t, err)
	assert.Empty(t, events)

	assert.ErrorIs(t, svc.Delete(ctx, e.ID), ErrEventNotFound)
}

func TestEventService_CreateCleansInput(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewEventService(db, false)

	e, err := svc.Create(context.Background(), validation.EventInput{
		Name:     "  <b>Rock & Roll</b> ",
		Date:     " 2025-05-01 ",
		Time:     "9:30",
		Location: "<script>x</script>Hall",
	})
	require.NoError(t, err)

	assert.Equal(t, "Rock & Roll", e.Name)
	assert.Equal(t, "2025-05-01", e.Date)
	assert.Equal(t, "09:30", e.Time)
	assert.Equal(t, "Hall", e.Location)
}

func TestEventService_Validation(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	ctx := context.Background()

	_, err := NewEventService(db, false).Create(ctx, validation.EventInput{Name: "", Date: "01/05/2025"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{validation.MsgNameRequired, validation.MsgDateFormat}, verr.Messages)

	_, err = NewEventService(db, true).Create(ctx, validation.EventInput{Name: "Fest", Date: "2025-05-01"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{validation.MsgTimeRequired}, verr.Messages)

	events, err := store.New(db).ListEvents(ctx, store.EventOrderID)
	require.NoError(t, err)
	assert.Empty(t, events, "invalid events are never stored")
}

func TestEventService_Update(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewEventService(db, false)
	ctx := context.Background()

	e := testutil.CreateEvent(t, db, "Fest", "2025-05-01", "", "Hall A")

	updated, err := svc.Update(ctx, e.ID, validation.EventInput{Name: "Fest 2", Date: "2025-06-01", Time: "18:00", Location: "Hall B"})
	require.NoError(t, err)
	assert.Equal(t, "Fest 2", updated.Name)
	assert.Equal(t, "18:00", updated.Time)

	_, err = svc.Update(ctx, e.ID+100, validation.EventInput{Name: "X", Date: "2025-06-01"})
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.Equal(t, []string{MsgEventNotFound}, Messages(err))

	_, err = svc.Get(ctx, e.ID+100)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventService_Search(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewEventService(db, false)
	ctx := context.Background()

	testutil.CreateEvent(t, db, "Tech Symposium", "2025-05-02", "", "Main Auditorium")
	testutil.CreateEvent(t, db, "Sports Day", "2025-05-01", "", "Sports Complex")

	got, err := svc.Search(ctx, "sports")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Sports Day", got[0].Name)

	got, err = svc.Search(ctx, "auditorium")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Tech Symposium", got[0].Name)

	got, err = svc.Search(ctx, "   ")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Sports Day", got[0].Name, "empty query lists by date")
}

func TestEventService_Summaries(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewEventService(db, false)
	regs := NewRegistrationService(db)
	ctx := context.Background()

	a := testutil.CreateEvent(t, db, "A", "2025-05-02", "", "")
	b := testutil.CreateEvent(t, db, "B", "2025-05-01", "", "")
	_, err := regs.Register(ctx, a.ID, "Alice", "alice@example.com")
	require.NoError(t, err)
	_, err = regs.Register(ctx, a.ID, "Bob", "bob@example.com")
	require.NoError(t, err)

	sums, err := svc.Summaries(ctx)
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, b.ID, sums[0].ID, "listing is ordered by date")
	assert.Zero(t, sums[0].Registrations)
	assert.Equal(t, a.ID, sums[1].ID)
	assert.Equal(t, int64(2), sums[1].Registrations)
}

func TestEventService_SearchSummaries(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewEventService(db, false)
	regs := NewRegistrationService(db)
	ctx := context.Background()

	a := testutil.CreateEvent(t, db, "Robotics Workshop", "2025-05-01", "", "Lab 1")
	testutil.CreateEvent(t, db, "Art Exhibition", "2025-05-02", "", "Gallery")
	_, err := regs.Register(ctx, a.ID, "Alice", "alice@example.com")
	require.NoError(t, err)

	sums, err := svc.SearchSummaries(ctx, "robot")
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, a.ID, sums[0].ID)
	assert.Equal(t, int64(1), sums[0].Registrations)
}

func TestEventService_Totals(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewEventService(db, false)
	ctx := context.Background()

	totals, err := svc.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Totals{}, totals)

	testutil.CreateUser(t, db, "carl@example.com", "Carl", model.RoleUser, "password1")
	e := testutil.CreateEvent(t, db, "Fest", "2030-05-01", "", "Hall A")
	testutil.CreateEvent(t, db, "Fair", "2030-06-01", "", "")
	_, err = store.New(db).CreateRegistration(ctx, store.CreateRegistrationParams{
		EventID: e.ID, Name: "Carl", Email: "carl@example.com", CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	totals, err = svc.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Totals{Events: 2, Users: 1, Registrations: 1}, totals)
}
