// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/eventdesk/internal/auth"
	"github.com/olegiv/eventdesk/internal/model"
	"github.com/olegiv/eventdesk/internal/validation"
)

// AdminSeed describes the reserved admin account.
type AdminSeed struct {
	Email    string
	Password string
	Name     string
}

// SeedAdmin makes sure the reserved admin account exists with the admin role.
// An existing account is promoted but its password is left alone. Without a
// password no account is created. The email is matched and stored in the
// same normalized form logins use.
func SeedAdmin(ctx context.Context, db *sql.DB, seed AdminSeed) error {
	seed.Email = validation.CleanEmail(seed.Email)
	if !validation.IsEmail(seed.Email) {
		return fmt.Errorf("invalid admin email %q", seed.Email)
	}

	queries := New(db)

	existing, err := queries.GetUserByEmail(ctx, seed.Email)
	switch {
	case err == nil:
		if existing.Role != model.RoleAdmin {
			if err := queries.SetUserRole(ctx, existing.ID, model.RoleAdmin); err != nil {
				return fmt.Errorf("promoting admin user: %w", err)
			}
			slog.Info("promoted existing user to admin", "email", seed.Email)
		}
		return nil
	case !errors.Is(err, ErrNotFound):
		return fmt.Errorf("checking for admin user: %w", err)
	}

	if seed.Password == "" {
		slog.Warn("admin account missing and EVD_ADMIN_PASSWORD is empty, skipping admin seed",
			"email", seed.Email)
		return nil
	}

	passwordHash, err := auth.HashPassword(seed.Password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        seed.Email,
		Name:         seed.Name,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created admin user", "id", user.ID, "email", user.Email)
	return nil
}
