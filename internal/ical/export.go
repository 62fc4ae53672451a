// Package ical converts between stored events and iCalendar data, and expands
// recurring event templates.
package ical

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/omriShneor/planit/internal/database"
)

const productID = "-//planit//planit calendar//EN"

// uid is stable per event so re-imports by other clients update instead of duplicating.
func uid(eventID int64) string {
	return fmt.Sprintf("event-%d@planit", eventID)
}

// ExportCalendar serializes cal and its events as an iCalendar (RFC 5545) document.
func ExportCalendar(cal *database.Calendar, events []*database.Event) string {
	out := ics.NewCalendar()
	out.SetMethod(ics.MethodPublish)
	out.SetProductId(productID)
	out.SetXWRCalName(cal.Name)

	for _, e := range events {
		ev := out.AddEvent(uid(e.ID))
		ev.SetDtStampTime(e.UpdatedAt.UTC())
		ev.SetCreatedTime(e.CreatedAt.UTC())
		ev.SetModifiedAt(e.UpdatedAt.UTC())
		ev.SetStartAt(e.StartTime)
		ev.SetEndAt(e.EndTime)
		ev.SetSummary(e.Title)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
	}

	return out.Serialize()
}

// ImportedEvent is a VEVENT read from an uploaded iCalendar file.
type ImportedEvent struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// ParseEvents reads every VEVENT in r. Events without a usable DTSTART are
// skipped and counted. A missing or invalid DTEND defaults to one hour.
func ParseEvents(r io.Reader) ([]ImportedEvent, int, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse calendar: %w", err)
	}

	var events []ImportedEvent
	skipped := 0
	for _, ve := range cal.Events() {
		start, err := ve.GetStartAt()
		if err != nil {
			skipped++
			continue
		}
		end, err := ve.GetEndAt()
		if err != nil || !end.After(start) {
			end = start.Add(time.Hour)
		}

		imported := ImportedEvent{Title: "Untitled event", Start: start, End: end}
		if p := ve.GetProperty(ics.ComponentPropertySummary); p != nil && p.Value != "" {
			imported.Title = p.Value
		}
		if p := ve.GetProperty(ics.ComponentPropertyDescription); p != nil {
			imported.Description = p.Value
		}
		events = append(events, imported)
	}

	return events, skipped, nil
}
