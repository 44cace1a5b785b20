// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the activity log so administrators can review them in the UI.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/eventdesk/internal/model"
	"github.com/olegiv/eventdesk/internal/store"
)

// ActivityHandler is a slog.Handler that wraps another handler and also
// writes records at or above its level to the activity_log table.
type ActivityHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
}

// NewActivityHandler wraps inner, mirroring WARN and above into db.
func NewActivityHandler(inner slog.Handler, db *sql.DB) *ActivityHandler {
	return NewActivityHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewActivityHandlerWithLevel wraps inner with a custom mirroring threshold.
func NewActivityHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *ActivityHandler {
	return &ActivityHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *ActivityHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ActivityHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.write(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *ActivityHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ActivityHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler.
func (h *ActivityHandler) WithGroup(name string) slog.Handler {
	return &ActivityHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
	}
}

func (h *ActivityHandler) write(r slog.Record) {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	// Background context: the entry is kept even if the request was cancelled.
	_ = h.queries.CreateActivity(context.Background(), store.CreateActivityParams{
		Level:     levelName(r.Level),
		Category:  category(r.Message, attrs),
		Message:   r.Message,
		Metadata:  metadata(attrs),
		CreatedAt: r.Time.UTC(),
	})
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.ActivityLevelError
	case level >= slog.LevelWarn:
		return model.ActivityLevelWarning
	default:
		return model.ActivityLevelInfo
	}
}

// category returns an explicit "category" attribute or infers one from the message.
func category(msg string, attrs []slog.Attr) string {
	for _, a := range attrs {
		if a.Key == "category" {
			return a.Value.String()
		}
	}

	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "login") || strings.Contains(msg, "logout") ||
		strings.Contains(msg, "auth") || strings.Contains(msg, "password"):
		return model.ActivityCategoryAuth
	case strings.Contains(msg, "registration"):
		return model.ActivityCategoryRegistration
	case strings.Contains(msg, "event"):
		return model.ActivityCategoryEvent
	case strings.Contains(msg, "user"):
		return model.ActivityCategoryUser
	default:
		return model.ActivityCategorySystem
	}
}

func metadata(attrs []slog.Attr) string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Key == "category" {
			continue
		}
		m[a.Key] = a.Value.Resolve().String()
	}
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
