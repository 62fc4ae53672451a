package database

import (
	"fmt"
	"strings"
	"time"
)

// Template is a reusable event shape, optionally recurring (RFC 5545 RRULE).
type Template struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Name            string    `json:"name"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	RRule           string    `json:"rrule,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Duration returns the template's event length.
func (t *Template) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}

// CreateTemplate inserts a template. RRULE validity is the caller's concern.
func (d *DB) CreateTemplate(tpl *Template) (*Template, error) {
	tpl.Name = strings.TrimSpace(tpl.Name)
	tpl.Title = strings.TrimSpace(tpl.Title)
	if tpl.Name == "" {
		tpl.Name = tpl.Title
	}
	if tpl.Title == "" {
		return nil, invalidf("template title is required")
	}
	if tpl.DurationMinutes <= 0 {
		tpl.DurationMinutes = 60
	}

	result, err := d.Exec(`
		INSERT INTO templates (user_id, name, title, description, duration_minutes, rrule)
		VALUES (?, ?, ?, ?, ?, ?)
	`, tpl.UserID, tpl.Name, tpl.Title, tpl.Description, tpl.DurationMinutes, tpl.RRule)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get template id: %w", err)
	}

	tpl.ID = id
	tpl.CreatedAt = time.Now()
	return tpl, nil
}

const templateColumns = `id, user_id, name, title, description, duration_minutes, rrule, created_at`

// GetTemplate retrieves one of the user's templates.
func (d *DB) GetTemplate(userID, id int64) (*Template, error) {
	var t Template
	err := d.QueryRow(`SELECT `+templateColumns+` FROM templates WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&t.ID, &t.UserID, &t.Name, &t.Title, &t.Description, &t.DurationMinutes, &t.RRule, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err, "template")
	}
	return &t, nil
}

// ListTemplates lists the user's templates by name.
func (d *DB) ListTemplates(userID int64) ([]*Template, error) {
	rows, err := d.Query(`SELECT `+templateColumns+` FROM templates WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := make([]*Template, 0)
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Title, &t.Description, &t.DurationMinutes, &t.RRule, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, &t)
	}
	return templates, rows.Err()
}

// DeleteTemplate deletes one of the user's templates.
func (d *DB) DeleteTemplate(userID, id int64) error {
	result, err := d.Exec(`DELETE FROM templates WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return checkAffected(result, "template")
}
