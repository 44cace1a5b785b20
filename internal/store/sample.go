// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/olegiv/eventdesk/internal/auth"
	"github.com/olegiv/eventdesk/internal/model"
)

// Sample data sizes.
const (
	SampleUsers            = 100
	SampleEvents           = 10
	SampleMinRegistrations = 5
	SampleMaxRegistrations = 20
	sampleDateRangeDays    = 365
	sampleFirstHour        = 9
	sampleLastHour         = 18
)

var sampleEventNames = []string{
	"Tech Symposium",
	"Annual Cultural Fest",
	"Coding Competition",
	"Alumni Meet",
	"Career Fair",
	"Sports Day",
	"Science Exhibition",
	"Literary Fest",
	"Startup Pitch",
	"Music Concert",
	"Art Workshop",
	"Debate Championship",
	"Hackathon",
	"Robotics Competition",
	"Theater Performance",
}

var sampleLocations = []string{
	"Main Auditorium",
	"Sports Complex",
	"Block A Seminar Hall",
	"Open Air Theater",
	"Computer Lab 3",
	"Library Conference Room",
	"Admin Building Hall",
}

var (
	sampleFirstNames = []string{"Aarav", "Maya", "Liam", "Sofia", "Noah", "Priya", "Ethan", "Zara", "Lucas", "Amara", "Omar", "Hana"}
	sampleLastNames  = []string{"Sharma", "Garcia", "Chen", "Okafor", "Novak", "Silva", "Kim", "Haddad", "Muller", "Patel"}
)

// SampleStats reports what SeedSample inserted.
type SampleStats struct {
	Users         int
	Events        int
	Registrations int
}

// SeedSample replaces all non-admin users, events and registrations with
// generated demo data in a single transaction. Sample user N signs in as
// userN@example.com with password passwordN.
func SeedSample(ctx context.Context, db *sql.DB, rng *rand.Rand, now time.Time) (SampleStats, error) {
	now = now.UTC()

	// Hash before opening the transaction so the write lock is held briefly.
	users := make([]CreateUserParams, 0, SampleUsers)
	for i := 1; i <= SampleUsers; i++ {
		hash, err := auth.HashPassword(fmt.Sprintf("password%d", i))
		if err != nil {
			return SampleStats{}, fmt.Errorf("hashing sample password: %w", err)
		}
		users = append(users, CreateUserParams{
			Email:              fmt.Sprintf("user%d@example.com", i),
			RegistrationNumber: sql.NullString{String: fmt.Sprintf("STD%03d", i), Valid: true},
			Name:               sampleFirstNames[rng.IntN(len(sampleFirstNames))] + " " + sampleLastNames[rng.IntN(len(sampleLastNames))],
			PasswordHash:       hash,
			Semester:           sql.NullInt64{Int64: int64(rng.IntN(2) + 1), Valid: true},
			Year:               sql.NullInt64{Int64: 1, Valid: true},
			Role:               model.RoleUser,
			CreatedAt:          now,
		})
	}

	var stats SampleStats
	err := RunInTx(ctx, db, func(q *Queries) error {
		if err := q.DeleteAllEvents(ctx); err != nil {
			return err
		}
		if _, err := q.DeleteUsersByRole(ctx, model.RoleUser); err != nil {
			return err
		}

		created := make([]User, 0, len(users))
		for _, u := range users {
			user, err := q.CreateUser(ctx, u)
			if err != nil {
				return fmt.Errorf("creating sample user %s: %w", u.Email, err)
			}
			created = append(created, user)
		}
		stats.Users = len(created)

		names := append([]string(nil), sampleEventNames...)
		rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

		for _, name := range names[:SampleEvents] {
			date := now.AddDate(0, 0, rng.IntN(sampleDateRangeDays)+1).Format("2006-01-02")
			hour := sampleFirstHour + rng.IntN(sampleLastHour-sampleFirstHour+1)
			minute := 30 * rng.IntN(2)

			event, err := q.CreateEvent(ctx, CreateEventParams{
				Name:      name,
				Date:      date,
				Time:      fmt.Sprintf("%02d:%02d", hour, minute),
				Location:  sampleLocations[rng.IntN(len(sampleLocations))],
				CreatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("creating sample event: %w", err)
			}
			stats.Events++

			n := SampleMinRegistrations + rng.IntN(SampleMaxRegistrations-SampleMinRegistrations+1)
			for _, idx := range rng.Perm(len(created))[:min(n, len(created))] {
				u := created[idx]
				if _, err := q.CreateRegistration(ctx, CreateRegistrationParams{
					EventID:   event.ID,
					Name:      u.Name,
					Email:     u.Email,
					CreatedAt: now,
				}); err != nil {
					return fmt.Errorf("creating sample registration: %w", err)
				}
				stats.Registrations++
			}
		}
		return nil
	})
	if err != nil {
		return SampleStats{}, err
	}

	return stats, nil
}
