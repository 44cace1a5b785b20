// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestCreateRegistration(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	e := createTestEvent(t, q, "Fest", "2025-05-01")

	r, err := q.CreateRegistration(ctx, CreateRegistrationParams{
		EventID: e.ID, Name: "Al", Email: "al@example.com", CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("CreateRegistration: %v", err)
	}
	if r.ID == 0 || r.EventID != e.ID {
		t.Errorf("unexpected registration: %+v", r)
	}

	got, err := q.GetRegistration(ctx, e.ID, "al@example.com")
	if err != nil {
		t.Fatalf("GetRegistration: %v", err)
	}
	if got.ID != r.ID {
		t.Errorf("GetRegistration ID = %d, want %d", got.ID, r.ID)
	}

	if _, err := q.GetRegistration(ctx, e.ID, "bob@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing registration: err = %v, want ErrNotFound", err)
	}
}

func TestCreateRegistration_Duplicate(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	e := createTestEvent(t, q, "Fest", "2025-05-01")
	arg := CreateRegistrationParams{EventID: e.ID, Name: "Al", Email: "al@example.com", CreatedAt: testNow}

	if _, err := q.CreateRegistration(ctx, arg); err != nil {
		t.Fatalf("first CreateRegistration: %v", err)
	}
	if _, err := q.CreateRegistration(ctx, arg); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("second CreateRegistration: err = %v, want ErrAlreadyRegistered", err)
	}

	regs, _ := q.ListRegistrationsForEvent(ctx, e.ID)
	if len(regs) != 1 {
		t.Errorf("stored registrations = %d, want 1", len(regs))
	}
}

func TestCreateRegistration_ConcurrentDuplicates(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	e := createTestEvent(t, q, "Fest", "2025-05-01")
	arg := CreateRegistrationParams{EventID: e.ID, Name: "Al", Email: "al@example.com", CreatedAt: testNow}

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok, dup int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := New(db).CreateRegistration(ctx, arg)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrAlreadyRegistered):
				dup++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 {
		t.Errorf("successful inserts = %d, want 1 (dup=%d)", ok, dup)
	}
}

func TestCreateRegistration_UnknownEvent(t *testing.T) {
	q := New(testDB(t))

	_, err := q.CreateRegistration(context.Background(), CreateRegistrationParams{
		EventID: 9999, Name: "Al", Email: "al@example.com", CreatedAt: testNow,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListRegistrationsWithEvents_Order(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	zeta := createTestEvent(t, q, "Zeta", "2025-01-01")
	alpha := createTestEvent(t, q, "Alpha", "2025-12-01")

	add := func(eventID int64, name, email string) {
		t.Helper()
		if _, err := q.CreateRegistration(ctx, CreateRegistrationParams{
			EventID: eventID, Name: name, Email: email, CreatedAt: testNow,
		}); err != nil {
			t.Fatalf("CreateRegistration: %v", err)
		}
	}
	add(zeta.ID, "Ann", "ann@example.com")
	add(alpha.ID, "Carl", "carl@example.com")
	add(alpha.ID, "Bea", "bea@example.com")

	got, err := q.ListRegistrationsWithEvents(ctx)
	if err != nil {
		t.Fatalf("ListRegistrationsWithEvents: %v", err)
	}

	want := []struct{ event, name string }{
		{"Alpha", "Bea"},
		{"Alpha", "Carl"},
		{"Zeta", "Ann"},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].EventName != w.event || got[i].Name != w.name {
			t.Errorf("row %d = %s/%s, want %s/%s", i, got[i].EventName, got[i].Name, w.event, w.name)
		}
	}
	if got[0].EventDate != "2025-12-01" || got[0].EventLocation != "Hall" {
		t.Errorf("joined event fields missing: %+v", got[0])
	}

	forAlpha, err := q.ListRegistrationsForEvent(ctx, alpha.ID)
	if err != nil {
		t.Fatalf("ListRegistrationsForEvent: %v", err)
	}
	if len(forAlpha) != 2 || forAlpha[0].Name != "Carl" {
		t.Errorf("single-event view should keep insertion order: %+v", forAlpha)
	}

	counts, err := q.CountRegistrationsByEvent(ctx)
	if err != nil {
		t.Fatalf("CountRegistrationsByEvent: %v", err)
	}
	if counts[alpha.ID] != 2 || counts[zeta.ID] != 1 {
		t.Errorf("counts = %v", counts)
	}

	mine, err := q.ListRegistrationsByEmail(ctx, "bea@example.com")
	if err != nil {
		t.Fatalf("ListRegistrationsByEmail: %v", err)
	}
	if len(mine) != 1 || mine[0].EventID != alpha.ID {
		t.Errorf("ListRegistrationsByEmail = %+v", mine)
	}
}
