// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the business rules between the HTTP handlers and the
// persistence gateway: accounts, events, registrations and the activity log.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mileusna/useragent"

	"github.com/olegiv/eventdesk/internal/model"
	"github.com/olegiv/eventdesk/internal/store"
)

// ActivityService writes security-relevant entries to the activity log.
type ActivityService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewActivityService creates a new ActivityService.
func NewActivityService(db *sql.DB) *ActivityService {
	return &ActivityService{
		queries: store.New(db),
		now:     time.Now,
	}
}

// ClientInfo is the browser summary recorded with auth entries.
type ClientInfo struct {
	Browser    string
	OS         string
	DeviceType string
}

// ParseUserAgent extracts browser, OS and device type from a user agent string.
func ParseUserAgent(uaString string) ClientInfo {
	ua := useragent.Parse(uaString)

	info := ClientInfo{
		Browser: ua.Name,
		OS:      ua.OS,
	}

	if info.Browser == "" {
		info.Browser = "Unknown"
	}
	if info.OS == "" {
		info.OS = "Unknown"
	}

	switch {
	case ua.Mobile:
		info.DeviceType = "mobile"
	case ua.Tablet:
		info.DeviceType = "tablet"
	case ua.Bot:
		info.DeviceType = "bot"
	default:
		info.DeviceType = "desktop"
	}

	return info
}

// Log creates an activity entry. Failures are logged and swallowed; the
// audit trail never fails a request.
func (s *ActivityService) Log(ctx context.Context, level, category, message string, userID *int64, ipAddress string, metadata map[string]any) {
	var nullUserID sql.NullInt64
	if userID != nil {
		nullUserID = sql.NullInt64{Int64: *userID, Valid: true}
	}

	metadataJSON := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	err := s.queries.CreateActivity(ctx, store.CreateActivityParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    nullUserID,
		IPAddress: ipAddress,
		Metadata:  metadataJSON,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		// Info level keeps this out of the activity log mirror.
		slog.Info("failed to write activity entry", "error", err, "message", message)
	}
}

// LogAuth records an authentication entry, adding the parsed user agent.
func (s *ActivityService) LogAuth(ctx context.Context, level, message string, userID *int64, ipAddress, userAgent string, metadata map[string]any) {
	if userAgent != "" {
		if metadata == nil {
			metadata = make(map[string]any, 3)
		}
		info := ParseUserAgent(userAgent)
		metadata["browser"] = info.Browser
		metadata["os"] = info.OS
		metadata["device"] = info.DeviceType
	}
	s.Log(ctx, level, model.ActivityCategoryAuth, message, userID, ipAddress, metadata)
}

// LogEvent records an event-management entry.
func (s *ActivityService) LogEvent(ctx context.Context, message string, userID *int64, ipAddress string, metadata map[string]any) {
	s.Log(ctx, model.ActivityLevelInfo, model.ActivityCategoryEvent, message, userID, ipAddress, metadata)
}

// LogRegistration records a registration entry.
func (s *ActivityService) LogRegistration(ctx context.Context, message string, userID *int64, ipAddress string, metadata map[string]any) {
	s.Log(ctx, model.ActivityLevelInfo, model.ActivityCategoryRegistration, message, userID, ipAddress, metadata)
}

// List returns a page of entries, newest first, plus the total count.
func (s *ActivityService) List(ctx context.Context, limit, offset int) ([]store.Activity, int64, error) {
	items, err := s.queries.ListActivity(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.queries.CountActivity(ctx)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Count returns the number of entries.
func (s *ActivityService) Count(ctx context.Context) (int64, error) {
	return s.queries.CountActivity(ctx)
}

// DeleteOlderThan removes entries older than the given age.
func (s *ActivityService) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	return s.queries.DeleteActivityBefore(ctx, s.now().UTC().Add(-age))
}
