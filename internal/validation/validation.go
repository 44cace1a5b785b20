// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package validation checks event, registrant and account form input.
// Every validator returns human-readable messages; an empty slice means valid.
package validation

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Field limits.
const (
	MaxEventNameLength       = 100
	MaxLocationLength        = 150
	MinRegistrantNameLength  = 2
	MinPasswordLength        = 8
	MaxRegistrationNumberLen = 20
)

// Wire formats for event dates and times.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Validation messages.
const (
	MsgNameRequired       = "Event name is required."
	MsgNameTooLong        = "Event name must be at most 100 characters."
	MsgDateFormat         = "Date must be in YYYY-MM-DD format."
	MsgTimeRequired       = "Time is required."
	MsgTimeFormat         = "Time must be in HH:MM format."
	MsgLocationTooLong    = "Location must be at most 150 characters."
	MsgRegistrantName     = "Name must be at least 2 characters long."
	MsgEmailFormat        = "Invalid email format."
	MsgPasswordTooShort   = "Password must be at least 8 characters long."
	MsgPasswordMismatch   = "Passwords do not match."
	MsgRegistrationNumber = "Registration number must be 1-20 letters or digits."
	MsgSemester           = "Semester must be 1 or 2."
	MsgYear               = "Year must be between 1 and 6."
)

var (
	emailPattern              = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	registrationNumberPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,20}$`)
	stripPolicy               = bluemonday.StrictPolicy()
)

// EventInput is the raw event form.
type EventInput struct {
	Name     string
	Date     string
	Time     string
	Location string
}

// SignupInput is the raw self-registration form.
type SignupInput struct {
	Name               string
	Email              string
	RegistrationNumber string
	Semester           string
	Year               string
	Password           string
	ConfirmPassword    string
}

// Clean trims s and strips any markup from it.
func Clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

// CleanEmail trims and lower-cases an email address.
func CleanEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateEvent checks an event form. When requireTime is false an empty time
// is accepted, but a non-empty one must still parse.
func ValidateEvent(in EventInput, requireTime bool) []string {
	var errs []string

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		errs = append(errs, MsgNameRequired)
	case utf8.RuneCountInString(name) > MaxEventNameLength:
		errs = append(errs, MsgNameTooLong)
	}

	if !IsDate(in.Date) {
		errs = append(errs, MsgDateFormat)
	}

	tm := strings.TrimSpace(in.Time)
	switch {
	case tm == "" && requireTime:
		errs = append(errs, MsgTimeRequired)
	case tm != "" && !IsTime(tm):
		errs = append(errs, MsgTimeFormat)
	}

	if utf8.RuneCountInString(strings.TrimSpace(in.Location)) > MaxLocationLength {
		errs = append(errs, MsgLocationTooLong)
	}

	return errs
}

// ValidateRegistrant checks a registrant's display name and email.
func ValidateRegistrant(name, email string) []string {
	var errs []string
	if utf8.RuneCountInString(strings.TrimSpace(name)) < MinRegistrantNameLength {
		errs = append(errs, MsgRegistrantName)
	}
	if !IsEmail(email) {
		errs = append(errs, MsgEmailFormat)
	}
	return errs
}

// ValidatePassword checks a new password and its confirmation.
func ValidatePassword(password, confirm string) []string {
	var errs []string
	if utf8.RuneCountInString(password) < MinPasswordLength {
		errs = append(errs, MsgPasswordTooShort)
	}
	if password != confirm {
		errs = append(errs, MsgPasswordMismatch)
	}
	return errs
}

// ValidateSignup checks a self-registration form.
func ValidateSignup(in SignupInput) []string {
	errs := ValidateRegistrant(in.Name, in.Email)

	if rn := strings.TrimSpace(in.RegistrationNumber); rn != "" && !registrationNumberPattern.MatchString(rn) {
		errs = append(errs, MsgRegistrationNumber)
	}
	if !optionalIntInRange(in.Semester, 1, 2) {
		errs = append(errs, MsgSemester)
	}
	if !optionalIntInRange(in.Year, 1, 6) {
		errs = append(errs, MsgYear)
	}

	return append(errs, ValidatePassword(in.Password, in.ConfirmPassword)...)
}

// IsDate reports whether s is a real calendar date in YYYY-MM-DD form.
func IsDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsTime reports whether s is a time of day in zero-padded HH:MM form.
func IsTime(s string) bool {
	if len(s) != len(TimeLayout) {
		return false
	}
	_, err := time.Parse(TimeLayout, s)
	return err == nil
}

// NormalizeTime returns s as zero-padded HH:MM, or "" if it does not parse.
func NormalizeTime(s string) string {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return t.Format(TimeLayout)
}

// IsEmail reports whether s looks like local@domain.tld.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ParseOptionalInt parses s as an int; ok is false for an empty string.
func ParseOptionalInt(s string) (n int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func optionalIntInRange(s string, lo, hi int) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	n, ok := ParseOptionalInt(s)
	return ok && n >= lo && n <= hi
}
