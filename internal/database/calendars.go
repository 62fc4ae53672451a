package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultCalendarName = "My Calendar"

// Calendar is a container of events owned by a user, optionally shared with a group.
type Calendar struct {
	ID               int64     `json:"id"`
	OwnerID          int64     `json:"owner_id"`
	GroupID          *int64    `json:"group_id,omitempty"`
	Name             string    `json:"name"`
	Color            string    `json:"color"`
	IsDefault        bool      `json:"is_default"`
	GoogleCalendarID *string   `json:"google_calendar_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

const calendarColumns = `c.id, c.owner_id, c.group_id, c.name, c.color, c.is_default, c.google_calendar_id, c.created_at`

// calendarAccess restricts c to calendars the user owns or shares through a group.
const calendarAccess = `(c.owner_id = ? OR c.group_id IN (SELECT group_id FROM group_members WHERE user_id = ?))`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCalendar(row rowScanner) (*Calendar, error) {
	var c Calendar
	var groupID sql.NullInt64
	var googleID sql.NullString
	if err := row.Scan(&c.ID, &c.OwnerID, &groupID, &c.Name, &c.Color, &c.IsDefault, &googleID, &c.CreatedAt); err != nil {
		return nil, err
	}
	if groupID.Valid {
		c.GroupID = &groupID.Int64
	}
	if googleID.Valid {
		c.GoogleCalendarID = &googleID.String
	}
	return &c, nil
}

// CreateCalendar inserts a calendar. OwnerID and Name are required.
func (d *DB) CreateCalendar(cal *Calendar) (*Calendar, error) {
	cal.Name = strings.TrimSpace(cal.Name)
	if cal.Name == "" {
		return nil, invalidf("calendar name is required")
	}
	if cal.Color == "" {
		cal.Color = "#3174ad"
	}

	result, err := d.Exec(`
		INSERT INTO calendars (owner_id, group_id, name, color, is_default, google_calendar_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, cal.OwnerID, cal.GroupID, cal.Name, cal.Color, cal.IsDefault, cal.GoogleCalendarID)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar id: %w", err)
	}

	cal.ID = id
	cal.CreatedAt = time.Now()
	return cal, nil
}

// GetCalendarForUser returns the calendar if userID may access it.
func (d *DB) GetCalendarForUser(userID, id int64) (*Calendar, error) {
	row := d.QueryRow(`
		SELECT `+calendarColumns+`
		FROM calendars c
		WHERE c.id = ? AND `+calendarAccess,
		id, userID, userID,
	)
	cal, err := scanCalendar(row)
	if err != nil {
		return nil, notFound(err, "calendar")
	}
	return cal, nil
}

// ListCalendarsForUser returns owned and group-shared calendars.
func (d *DB) ListCalendarsForUser(userID int64) ([]*Calendar, error) {
	rows, err := d.Query(`
		SELECT `+calendarColumns+`
		FROM calendars c
		WHERE `+calendarAccess+`
		ORDER BY c.is_default DESC, c.id
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	defer rows.Close()

	calendars := make([]*Calendar, 0)
	for rows.Next() {
		cal, err := scanCalendar(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calendar: %w", err)
		}
		calendars = append(calendars, cal)
	}
	return calendars, rows.Err()
}

// GetOrCreateDefaultCalendar returns the user's default calendar, creating it on first use.
func (d *DB) GetOrCreateDefaultCalendar(userID int64) (*Calendar, error) {
	row := d.QueryRow(`
		SELECT `+calendarColumns+`
		FROM calendars c
		WHERE c.owner_id = ? AND c.is_default = 1
		ORDER BY c.id
		LIMIT 1
	`, userID)
	cal, err := scanCalendar(row)
	if err == nil {
		return cal, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get default calendar: %w", err)
	}

	return d.CreateCalendar(&Calendar{
		OwnerID:   userID,
		Name:      defaultCalendarName,
		IsDefault: true,
	})
}

// UpdateCalendar renames/recolors a calendar owned by userID.
func (d *DB) UpdateCalendar(userID, id int64, name, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalidf("calendar name is required")
	}
	result, err := d.Exec(`
		UPDATE calendars SET name = ?, color = COALESCE(NULLIF(?, ''), color)
		WHERE id = ? AND owner_id = ?
	`, name, color, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update calendar: %w", err)
	}
	return checkAffected(result, "calendar")
}

// SetCalendarGoogleID links a calendar to a Google Calendar id for mirroring.
func (d *DB) SetCalendarGoogleID(userID, id int64, googleCalendarID string) error {
	var value any
	if googleCalendarID != "" {
		value = googleCalendarID
	}
	result, err := d.Exec(`
		UPDATE calendars SET google_calendar_id = ? WHERE id = ? AND owner_id = ?
	`, value, id, userID)
	if err != nil {
		return fmt.Errorf("failed to set google calendar id: %w", err)
	}
	return checkAffected(result, "calendar")
}

// DeleteCalendar removes a calendar owned by userID together with its events.
func (d *DB) DeleteCalendar(userID, id int64) error {
	result, err := d.Exec(`DELETE FROM calendars WHERE id = ? AND owner_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete calendar: %w", err)
	}
	return checkAffected(result, "calendar")
}
