// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/olegiv/eventdesk/internal/service"
	"github.com/olegiv/eventdesk/internal/store"
)

// DefaultActivityRetention is how long activity entries are kept.
const DefaultActivityRetention = 90 * 24 * time.Hour

// PurgeResetTokens forgets consumed reset token ids once they have expired.
func PurgeResetTokens(db *sql.DB, logger *slog.Logger) Job {
	queries := store.New(db)
	return Job{
		Name:        "purge-reset-tokens",
		Description: "Delete expired single-use password reset token records",
		Schedule:    "@hourly",
		Run: func(ctx context.Context) error {
			n, err := queries.DeleteExpiredResetTokens(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("purged expired reset tokens", "count", n)
			}
			return nil
		},
	}
}

// PurgeActivity deletes activity entries older than retention.
func PurgeActivity(activity *service.ActivityService, retention time.Duration, logger *slog.Logger) Job {
	if retention <= 0 {
		retention = DefaultActivityRetention
	}
	return Job{
		Name:        "purge-activity",
		Description: "Delete old activity log entries",
		Schedule:    "@daily",
		Run: func(ctx context.Context) error {
			n, err := activity.DeleteOlderThan(ctx, retention)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("purged old activity entries", "count", n)
			}
			return nil
		},
	}
}

// Cleaner is anything with periodic in-memory housekeeping.
type Cleaner interface {
	Cleanup()
}

// CleanupLoginAttempts drops expired in-memory login attempt counters.
func CleanupLoginAttempts(c Cleaner) Job {
	return Job{
		Name:        "cleanup-login-attempts",
		Description: "Drop expired in-memory login attempt counters",
		Schedule:    "*/10 * * * *",
		Run: func(context.Context) error {
			c.Cleanup()
			return nil
		},
	}
}
