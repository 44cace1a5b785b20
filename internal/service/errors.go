// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"strings"
)

// Service errors. Handlers turn these into flash messages with errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEventNotFound      = errors.New("event not found")
	ErrAlreadyRegistered  = errors.New("already registered for this event")
	ErrResetTokenInvalid  = errors.New("reset link is invalid or expired")
	ErrResetTokenUsed     = errors.New("reset link already used")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRegNumberTaken     = errors.New("registration number already registered")
)

// User-facing messages for the errors above.
const (
	MsgInvalidCredentials = "Invalid email or password."
	MsgEventNotFound      = "Event not found"
	MsgAlreadyRegistered  = "You are already registered for this event."
	MsgResetTokenInvalid  = "This reset link is invalid or has expired."
	MsgResetTokenUsed     = "This reset link has already been used."
	MsgEmailTaken         = "An account with this email already exists."
	MsgRegNumberTaken     = "This registration number is already in use."
	MsgGeneric            = "Something went wrong. Please try again."
)

// ValidationError carries one message per failed form rule.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// invalid returns a *ValidationError for msgs, or nil if there are none.
func invalid(msgs []string) error {
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Messages: msgs}
}

// Messages returns the user-facing messages for err: the validation messages
// for a *ValidationError, the matching notice for a known error, otherwise
// the generic message.
func Messages(err error) []string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Messages
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return []string{MsgInvalidCredentials}
	case errors.Is(err, ErrEventNotFound):
		return []string{MsgEventNotFound}
	case errors.Is(err, ErrAlreadyRegistered):
		return []string{MsgAlreadyRegistered}
	case errors.Is(err, ErrResetTokenInvalid):
		return []string{MsgResetTokenInvalid}
	case errors.Is(err, ErrResetTokenUsed):
		return []string{MsgResetTokenUsed}
	case errors.Is(err, ErrEmailTaken):
		return []string{MsgEmailTaken}
	case errors.Is(err, ErrRegNumberTaken):
		return []string{MsgRegNumberTaken}
	}
	return []string{MsgGeneric}
}

// IsUserError reports whether err is expected user input rather than a
// failure worth logging.
func IsUserError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrAlreadyRegistered) ||
		errors.Is(err, ErrResetTokenInvalid) ||
		errors.Is(err, ErrResetTokenUsed) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrRegNumberTaken)
}
