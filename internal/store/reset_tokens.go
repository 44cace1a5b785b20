// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"
)

const markResetTokenUsed = `INSERT INTO used_reset_tokens (jti, email, expires_at, used_at) VALUES (?, ?, ?, ?)`

// MarkResetTokenUsed consumes a reset token id. The second call for the same
// jti returns ErrTokenUsed.
func (q *Queries) MarkResetTokenUsed(ctx context.Context, jti, email string, expiresAt, usedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, markResetTokenUsed, jti, email, expiresAt, usedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTokenUsed
		}
		return fmt.Errorf("recording reset token: %w", err)
	}
	return nil
}

const resetTokenUsed = `SELECT COUNT(*) FROM used_reset_tokens WHERE jti = ?`

// ResetTokenUsed reports whether jti has already been consumed.
func (q *Queries) ResetTokenUsed(ctx context.Context, jti string) (bool, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, resetTokenUsed, jti).Scan(&n); err != nil {
		return false, fmt.Errorf("checking reset token: %w", err)
	}
	return n > 0, nil
}

const deleteExpiredResetTokens = `DELETE FROM used_reset_tokens WHERE expires_at < ?`

// DeleteExpiredResetTokens forgets consumed tokens that could no longer
// verify anyway.
func (q *Queries) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredResetTokens, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired reset tokens: %w", err)
	}
	return res.RowsAffected()
}
