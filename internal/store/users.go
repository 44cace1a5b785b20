// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/eventdesk/internal/model"
)

const userColumns = `id, email, registration_number, name, password_hash, semester, year, role, created_at, updated_at, last_login_at`

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.RegistrationNumber,
		&u.Name,
		&u.PasswordHash,
		&u.Semester,
		&u.Year,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	return u, err
}

// CreateUserParams are the inputs of CreateUser.
type CreateUserParams struct {
	Email              string
	RegistrationNumber sql.NullString
	Name               string
	PasswordHash       string
	Semester           sql.NullInt64
	Year               sql.NullInt64
	Role               string
	CreatedAt          time.Time
}

const createUser = `INSERT INTO users (email, registration_number, name, password_hash, semester, year, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// CreateUser inserts a user. Returns ErrDuplicateEmail or
// ErrDuplicateRegistrationNumber when a unique key is taken.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	if !model.ValidRole(arg.Role) {
		return User{}, fmt.Errorf("invalid role %q", arg.Role)
	}
	res, err := q.db.ExecContext(ctx, createUser,
		arg.Email,
		arg.RegistrationNumber,
		arg.Name,
		arg.PasswordHash,
		arg.Semester,
		arg.Year,
		arg.Role,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "registration_number") {
				return User{}, ErrDuplicateRegistrationNumber
			}
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("reading user id: %w", err)
	}
	return q.GetUserByID(ctx, id)
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

// GetUserByID returns the user with id or ErrNotFound.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
	return u, notFound(err)
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

// GetUserByEmail returns the user with email or ErrNotFound.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
	return u, notFound(err)
}

const updateUserPassword = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

// UpdateUserPassword replaces a user's password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, hash string, at time.Time) error {
	return q.execOne(ctx, updateUserPassword, hash, at, id)
}

const updateUserLastLogin = `UPDATE users SET last_login_at = ? WHERE id = ?`

// UpdateUserLastLogin records a successful login.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	return q.execOne(ctx, updateUserLastLogin, at, id)
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY id`

// ListUsers returns every user ordered by id.
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const countUsers = `SELECT COUNT(*) FROM users`

// CountUsers returns the number of accounts.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}

const deleteUsersByRole = `DELETE FROM users WHERE role = ?`

// DeleteUsersByRole removes every account with role. Used only by the sample
// data generator.
func (q *Queries) DeleteUsersByRole(ctx context.Context, role string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteUsersByRole, role)
	if err != nil {
		return 0, fmt.Errorf("deleting users: %w", err)
	}
	return res.RowsAffected()
}

// execOne runs an UPDATE/DELETE that must touch exactly one row.
func (q *Queries) execOne(ctx context.Context, query string, args ...any) error {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const setUserRole = `UPDATE users SET role = ? WHERE id = ?`

// SetUserRole changes a user's role.
func (q *Queries) SetUserRole(ctx context.Context, id int64, role string) error {
	if !model.ValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}
	return q.execOne(ctx, setUserRole, role, id)
}
