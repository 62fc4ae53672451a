package database

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates an in-memory SQLite database for testing.
// The database is automatically closed when the test completes.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

var testUserCounter atomic.Int64

// CreateTestUser creates a user with a unique email and a default calendar.
func CreateTestUser(t *testing.T, db *DB) *User {
	t.Helper()
	n := testUserCounter.Add(1)
	return CreateTestUserWithEmail(t, db, fmt.Sprintf("testuser%d@example.com", n))
}

// CreateTestUserWithEmail creates a test user with a specific email
func CreateTestUserWithEmail(t *testing.T, db *DB, email string) *User {
	t.Helper()

	user, err := db.CreateUser(email, "Test User", "UTC")
	require.NoError(t, err, "failed to create test user")

	_, err = db.GetOrCreateDefaultCalendar(user.ID)
	require.NoError(t, err, "failed to create default calendar")

	return user
}

// CreateTestEvent inserts a one-hour event starting at start.
func CreateTestEvent(t *testing.T, db *DB, userID, calendarID int64, title string, start time.Time) *Event {
	t.Helper()

	event, err := db.CreateEvent(&Event{
		CalendarID: calendarID,
		CreatedBy:  &userID,
		Title:      title,
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	require.NoError(t, err, "failed to create test event")
	return event
}

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// Int64Ptr returns a pointer to the given int64
func Int64Ptr(i int64) *int64 {
	return &i
}

// TimePtr returns a pointer to the given time
func TimePtr(t time.Time) *time.Time {
	return &t
}
