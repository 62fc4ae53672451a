package database

import (
	"fmt"
	"time"
)

// NotificationPrefs holds a user's notification settings
type NotificationPrefs struct {
	UserID       int64     `json:"user_id"`
	EmailEnabled bool      `json:"email_enabled"`
	EmailAddress string    `json:"email_address"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GetNotificationPrefs retrieves a user's notification preferences
func (d *DB) GetNotificationPrefs(userID int64) (*NotificationPrefs, error) {
	prefs := NotificationPrefs{UserID: userID}
	err := d.QueryRow(`
		SELECT email_enabled, email_address, updated_at
		FROM notification_preferences
		WHERE user_id = ?
	`, userID).Scan(&prefs.EmailEnabled, &prefs.EmailAddress, &prefs.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "notification prefs")
	}
	return &prefs, nil
}

// UpdateEmailPrefs updates only email notification settings
func (d *DB) UpdateEmailPrefs(userID int64, enabled bool, address string) error {
	_, err := d.Exec(`
		INSERT INTO notification_preferences (user_id, email_enabled, email_address, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			email_enabled = excluded.email_enabled,
			email_address = excluded.email_address,
			updated_at = CURRENT_TIMESTAMP
	`, userID, enabled, address)
	if err != nil {
		return fmt.Errorf("failed to update email prefs: %w", err)
	}
	return nil
}
