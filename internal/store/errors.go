// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Gateway errors. Anything else returned by the store is a wrapped driver error.
var (
	ErrNotFound                    = errors.New("record not found")
	ErrDuplicateEmail              = errors.New("email already registered")
	ErrDuplicateRegistrationNumber = errors.New("registration number already registered")
	ErrAlreadyRegistered           = errors.New("already registered for this event")
	ErrTokenUsed                   = errors.New("reset token already used")
)

// MySQL server error numbers.
const (
	mysqlDuplicateEntry   = 1062
	mysqlNoReferencedRow  = 1452
	mysqlNoReferencedRow1 = 1216
)

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation reports whether err is a unique key violation from either
// supported driver.
func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation reports whether err is a missing parent row error.
func isForeignKeyViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlNoReferencedRow || me.Number == mysqlNoReferencedRow1
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
