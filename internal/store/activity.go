// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreateActivityParams are the inputs of CreateActivity.
type CreateActivityParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	IPAddress string
	Metadata  string
	CreatedAt time.Time
}

const createActivity = `INSERT INTO activity_log (level, category, message, user_id, ip_address, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

// CreateActivity appends an audit log entry.
func (q *Queries) CreateActivity(ctx context.Context, arg CreateActivityParams) error {
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	_, err := q.db.ExecContext(ctx, createActivity,
		arg.Level,
		arg.Category,
		arg.Message,
		arg.UserID,
		arg.IPAddress,
		arg.Metadata,
		arg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting activity: %w", err)
	}
	return nil
}

const listActivity = `SELECT id, level, category, message, user_id, ip_address, metadata, created_at
FROM activity_log ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

// ListActivity returns a page of audit entries, newest first.
func (q *Queries) ListActivity(ctx context.Context, limit, offset int) ([]Activity, error) {
	rows, err := q.db.QueryContext(ctx, listActivity, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(
			&a.ID,
			&a.Level,
			&a.Category,
			&a.Message,
			&a.UserID,
			&a.IPAddress,
			&a.Metadata,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const countActivity = `SELECT COUNT(*) FROM activity_log`

// CountActivity returns the number of audit entries.
func (q *Queries) CountActivity(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countActivity).Scan(&n)
	return n, err
}

const deleteActivityBefore = `DELETE FROM activity_log WHERE created_at < ?`

// DeleteActivityBefore removes audit entries older than cutoff.
func (q *Queries) DeleteActivityBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteActivityBefore, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting activity: %w", err)
	}
	return res.RowsAffected()
}
