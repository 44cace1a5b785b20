// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"
)

func TestIdentityIsAdmin(t *testing.T) {
	tests := []struct {
		name string
		role string
		want bool
	}{
		{
			name: "admin role",
			role: RoleAdmin,
			want: true,
		},
		{
			name: "user role",
			role: RoleUser,
			want: false,
		},
		{
			name: "empty role",
			role: "",
			want: false,
		},
		{
			name: "Admin uppercase",
			role: "Admin",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := &Identity{Role: tt.role}
			if got := id.IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdentityIsAdmin_Nil(t *testing.T) {
	var id *Identity
	if id.IsAdmin() {
		t.Error("nil identity must not be admin")
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleUser} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%q) = false", role)
		}
	}
	for _, role := range []string{"", "editor", "ADMIN"} {
		if ValidRole(role) {
			t.Errorf("ValidRole(%q) = true", role)
		}
	}
}
