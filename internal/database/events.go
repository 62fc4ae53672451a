package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EventSource records how an event came to exist
type EventSource string

const (
	EventSourceManual   EventSource = "manual"
	EventSourceChat     EventSource = "chat"
	EventSourceTemplate EventSource = "template"
)

// ErrInvalidTimeRange is returned when an event does not end strictly after it starts.
var ErrInvalidTimeRange = errors.New("end time must be after start time")

// Event is a persisted calendar event
type Event struct {
	ID            int64       `json:"id"`
	CalendarID    int64       `json:"calendar_id"`
	CreatedBy     *int64      `json:"created_by,omitempty"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       time.Time   `json:"end_time"`
	Source        EventSource `json:"source"`
	GoogleEventID *string     `json:"google_event_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// EventFilter narrows ListEventsForUser. Nil fields are ignored.
// From/To select events overlapping [From, To).
type EventFilter struct {
	CalendarID *int64
	From       *time.Time
	To         *time.Time
}

// EventUpdate carries the fields of a partial update. Nil fields are left unchanged.
type EventUpdate struct {
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
}

const eventColumns = `e.id, e.calendar_id, e.created_by, e.title, e.description, e.start_time, e.end_time,
	e.source, e.google_event_id, e.created_at, e.updated_at`

func scanEvent(row rowScanner) (*Event, error) {
	var e Event
	var createdBy sql.NullInt64
	var googleID sql.NullString
	if err := row.Scan(
		&e.ID, &e.CalendarID, &createdBy, &e.Title, &e.Description, &e.StartTime, &e.EndTime,
		&e.Source, &googleID, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if createdBy.Valid {
		e.CreatedBy = &createdBy.Int64
	}
	if googleID.Valid {
		e.GoogleEventID = &googleID.String
	}
	return &e, nil
}

func validateEvent(e *Event) error {
	if e.CalendarID == 0 {
		return invalidf("calendar id is required")
	}
	if strings.TrimSpace(e.Title) == "" {
		return invalidf("title is required")
	}
	if !e.EndTime.After(e.StartTime) {
		return ErrInvalidTimeRange
	}
	return nil
}

// CreateEvent inserts an event into its calendar.
// The caller is responsible for checking calendar access.
func (d *DB) CreateEvent(event *Event) (*Event, error) {
	event.Title = strings.TrimSpace(event.Title)
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	if event.Source == "" {
		event.Source = EventSourceManual
	}

	result, err := d.Exec(`
		INSERT INTO events (calendar_id, created_by, title, description, start_time, end_time, source, google_event_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.CalendarID, event.CreatedBy, event.Title, event.Description,
		event.StartTime, event.EndTime, event.Source, event.GoogleEventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get event id: %w", err)
	}

	event.ID = id
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	return event, nil
}

// GetEventForUser retrieves an event in a calendar the user may access.
func (d *DB) GetEventForUser(userID, id int64) (*Event, error) {
	row := d.QueryRow(`
		SELECT `+eventColumns+`
		FROM events e
		JOIN calendars c ON e.calendar_id = c.id
		WHERE e.id = ? AND `+calendarAccess,
		id, userID, userID,
	)
	event, err := scanEvent(row)
	if err != nil {
		return nil, notFound(err, "event")
	}
	return event, nil
}

// ListEventsForUser lists events across the user's accessible calendars.
func (d *DB) ListEventsForUser(userID int64, filter EventFilter) ([]*Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		JOIN calendars c ON e.calendar_id = c.id
		WHERE ` + calendarAccess
	args := []any{userID, userID}

	if filter.CalendarID != nil {
		query += ` AND e.calendar_id = ?`
		args = append(args, *filter.CalendarID)
	}
	if filter.From != nil {
		query += ` AND julianday(e.end_time) > julianday(?)`
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		query += ` AND julianday(e.start_time) < julianday(?)`
		args = append(args, *filter.To)
	}
	query += ` ORDER BY julianday(e.start_time), e.id`

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]*Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// UpdateEventForUser applies a partial update (e.g. a drag or resize in the calendar UI).
func (d *DB) UpdateEventForUser(userID, id int64, update EventUpdate) (*Event, error) {
	event, err := d.GetEventForUser(userID, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		event.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		event.Description = *update.Description
	}
	if update.StartTime != nil {
		event.StartTime = *update.StartTime
	}
	if update.EndTime != nil {
		event.EndTime = *update.EndTime
	}
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	_, err = d.Exec(`
		UPDATE events
		SET title = ?, description = ?, start_time = ?, end_time = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, event.Title, event.Description, event.StartTime, event.EndTime, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	event.UpdatedAt = time.Now()
	return event, nil
}

// SetEventGoogleID records the mirrored Google Calendar event id.
func (d *DB) SetEventGoogleID(id int64, googleEventID string) error {
	_, err := d.Exec(`UPDATE events SET google_event_id = ? WHERE id = ?`, googleEventID, id)
	if err != nil {
		return fmt.Errorf("failed to set google event id: %w", err)
	}
	return nil
}

// DeleteEventForUser deletes an event in a calendar the user may access.
func (d *DB) DeleteEventForUser(userID, id int64) error {
	result, err := d.Exec(`
		DELETE FROM events
		WHERE id = ? AND calendar_id IN (
			SELECT c.id FROM calendars c WHERE `+calendarAccess+`
		)
	`, id, userID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return checkAffected(result, "event")
}
