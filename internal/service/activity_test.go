// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/olegiv/eventdesk/internal/model"
	"github.com/olegiv/eventdesk/internal/testutil"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestActivityLogAuth(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewActivityService(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice@example.com", "Alice", model.RoleUser, "password1")
	svc.LogAuth(ctx, model.ActivityLevelInfo, "User logged in", &user.ID, "192.168.1.100", chromeUA, map[string]any{
		"email": user.Email,
	})

	items, total, err := svc.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("got %d items (total %d), want 1", len(items), total)
	}

	got := items[0]
	if got.Category != model.ActivityCategoryAuth {
		t.Errorf("category = %q, want %q", got.Category, model.ActivityCategoryAuth)
	}
	if got.IPAddress != "192.168.1.100" {
		t.Errorf("ip = %q, want 192.168.1.100", got.IPAddress)
	}
	if !got.UserID.Valid || got.UserID.Int64 != user.ID {
		t.Errorf("user_id = %v, want %d", got.UserID, user.ID)
	}

	var meta map[string]any
	if err := json.Unmarshal([]byte(got.Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	if meta["browser"] != "Chrome" {
		t.Errorf("browser = %v, want Chrome", meta["browser"])
	}
	if meta["device"] != "desktop" {
		t.Errorf("device = %v, want desktop", meta["device"])
	}
	if meta["email"] != user.Email {
		t.Errorf("email = %v, want %s", meta["email"], user.Email)
	}
}

func TestActivityLogWithoutUser(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewActivityService(db)
	ctx := context.Background()

	svc.LogEvent(ctx, "Event created", nil, "", nil)
	svc.LogRegistration(ctx, "Registration recorded", nil, "10.0.0.1", map[string]any{"event_id": 1})

	items, _, err := svc.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if n, err := svc.Count(ctx); err != nil || n != 2 {
		t.Errorf("Count() = %d, %v; want 2", n, err)
	}
	// Newest first
	if items[0].Category != model.ActivityCategoryRegistration {
		t.Errorf("items[0].Category = %q, want registration", items[0].Category)
	}
	if items[1].Metadata != "{}" {
		t.Errorf("empty metadata = %q, want {}", items[1].Metadata)
	}
}

func TestActivityDeleteOlderThan(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewActivityService(db)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base.Add(-48 * time.Hour) }
	svc.Log(ctx, model.ActivityLevelInfo, model.ActivityCategorySystem, "old", nil, "", nil)
	svc.now = func() time.Time { return base }
	svc.Log(ctx, model.ActivityLevelInfo, model.ActivityCategorySystem, "new", nil, "", nil)

	n, err := svc.DeleteOlderThan(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOlderThan failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	items, _, _ := svc.List(ctx, 10, 0)
	if len(items) != 1 || items[0].Message != "new" {
		t.Errorf("remaining = %+v, want only the new entry", items)
	}
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name   string
		ua     string
		device string
	}{
		{"desktop chrome", chromeUA, "desktop"},
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", "mobile"},
		{"googlebot", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", "bot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseUserAgent(tt.ua).DeviceType; got != tt.device {
				t.Errorf("DeviceType = %q, want %q", got, tt.device)
			}
		})
	}

	if info := ParseUserAgent(""); info.Browser != "Unknown" || info.OS != "Unknown" {
		t.Errorf("empty UA = %+v, want Unknown browser and OS", info)
	}
}
