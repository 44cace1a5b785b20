// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package export writes events and registrations as CSV.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/olegiv/eventdesk/internal/store"
)

// Column headers.
var (
	EventHeader        = []string{"ID", "Name", "Date", "Location"}
	RegistrationHeader = []string{"Event ID", "Event", "Date", "Time", "Location", "Name", "Email", "Registered At"}
)

// Download file names.
const (
	EventsFilename        = "events.csv"
	RegistrationsFilename = "registrations.csv"
)

// WriteEvents writes a header row and one row per event. Fields containing
// commas, quotes or newlines are quoted.
func WriteEvents(w io.Writer, events []store.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EventHeader); err != nil {
		return err
	}
	for _, e := range events {
		if err := cw.Write([]string{
			strconv.FormatInt(e.ID, 10),
			e.Name,
			e.Date,
			e.Location,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRegistrations writes a header row and one row per registration.
func WriteRegistrations(w io.Writer, regs []store.RegistrationWithEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RegistrationHeader); err != nil {
		return err
	}
	for _, r := range regs {
		if err := cw.Write([]string{
			strconv.FormatInt(r.EventID, 10),
			r.EventName,
			r.EventDate,
			r.EventTime,
			r.EventLocation,
			r.Name,
			r.Email,
			r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
