// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the small set of types shared across layers:
// user roles, the authenticated identity and activity log constants.
package model

// User roles. The role is stored on the user row and never inferred.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID int64
	Email  string
	Name   string
	Role   string
}

// IsAdmin returns true if the identity has the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
