package gcal

import (
	"context"
	"fmt"
	"time"

	"github.com/omriShneor/planit/internal/database"
)

// CalendarLookup resolves the local calendar an event belongs to.
type CalendarLookup interface {
	GetCalendarForUser(userID, id int64) (*database.Calendar, error)
}

// Mirror copies local events to the Google calendar linked to their local
// calendar. Calendars without a link are skipped.
type Mirror struct {
	client  *Client
	db      CalendarLookup
	timeout time.Duration
}

// NewMirror creates a mirror. A zero timeout means 10s per API call.
func NewMirror(client *Client, db CalendarLookup, timeout time.Duration) *Mirror {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Mirror{client: client, db: db, timeout: timeout}
}

func (m *Mirror) linkedCalendar(event *database.Event) (string, error) {
	if event.CreatedBy == nil {
		return "", nil
	}
	cal, err := m.db.GetCalendarForUser(*event.CreatedBy, event.CalendarID)
	if err != nil {
		return "", fmt.Errorf("failed to look up calendar: %w", err)
	}
	if cal.GoogleCalendarID == nil {
		return "", nil
	}
	return *cal.GoogleCalendarID, nil
}

func toInput(event *database.Event) EventInput {
	return EventInput{
		Summary:     event.Title,
		Description: event.Description,
		StartTime:   event.StartTime,
		EndTime:     event.EndTime,
	}
}

// MirrorEvent creates event remotely and returns the Google event id, or ""
// when the event's calendar is not linked.
func (m *Mirror) MirrorEvent(ctx context.Context, event *database.Event) (string, error) {
	if !m.client.IsAuthenticated() {
		return "", nil
	}
	googleCalendarID, err := m.linkedCalendar(event)
	if err != nil || googleCalendarID == "" {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.client.CreateEvent(ctx, googleCalendarID, toInput(event))
}

// UpdateMirroredEvent pushes local changes for an already mirrored event.
func (m *Mirror) UpdateMirroredEvent(ctx context.Context, event *database.Event) error {
	if event.GoogleEventID == nil || !m.client.IsAuthenticated() {
		return nil
	}
	googleCalendarID, err := m.linkedCalendar(event)
	if err != nil || googleCalendarID == "" {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.client.UpdateEvent(ctx, googleCalendarID, *event.GoogleEventID, toInput(event))
}

// RemoveMirroredEvent deletes the remote copy of event, if any.
func (m *Mirror) RemoveMirroredEvent(ctx context.Context, event *database.Event) error {
	if event.GoogleEventID == nil || !m.client.IsAuthenticated() {
		return nil
	}
	googleCalendarID, err := m.linkedCalendar(event)
	if err != nil || googleCalendarID == "" {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.client.DeleteEvent(ctx, googleCalendarID, *event.GoogleEventID)
}
