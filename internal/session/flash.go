// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"encoding/gob"

	"github.com/alexedwards/scs/v2"
)

// Flash types, used as CSS modifiers by the templates.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Type    string
	Message string
}

func init() {
	gob.Register([]Flash{})
}

// AddFlash queues a flash message in the session.
func AddFlash(ctx context.Context, sm *scs.SessionManager, typ, message string) {
	flashes, _ := sm.Get(ctx, KeyFlash).([]Flash)
	sm.Put(ctx, KeyFlash, append(flashes, Flash{Type: typ, Message: message}))
}

// PopFlashes returns and clears the queued flash messages.
func PopFlashes(ctx context.Context, sm *scs.SessionManager) []Flash {
	flashes, _ := sm.Pop(ctx, KeyFlash).([]Flash)
	return flashes
}
