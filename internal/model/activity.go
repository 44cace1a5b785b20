// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Activity levels
const (
	ActivityLevelInfo    = "info"
	ActivityLevelWarning = "warning"
	ActivityLevelError   = "error"
)

// Activity categories
const (
	ActivityCategoryAuth         = "auth"
	ActivityCategoryEvent        = "event"
	ActivityCategoryRegistration = "registration"
	ActivityCategoryUser         = "user"
	ActivityCategorySystem       = "system"
)
