package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates(t *testing.T) {
	db := NewTestDB(t)
	user := CreateTestUser(t, db)
	other := CreateTestUser(t, db)

	tpl, err := db.CreateTemplate(&Template{
		UserID: user.ID,
		Title:  "Weekly review",
		RRule:  "FREQ=WEEKLY;BYDAY=FR",
	})
	require.NoError(t, err)
	assert.Equal(t, "Weekly review", tpl.Name, "name defaults to title")
	assert.Equal(t, 60, tpl.DurationMinutes)
	assert.Equal(t, time.Hour, tpl.Duration())

	_, err = db.CreateTemplate(&Template{UserID: user.ID, Name: "Blank"})
	assert.Error(t, err)

	_, err = db.CreateTemplate(&Template{UserID: user.ID, Name: "A lunch", Title: "Lunch", DurationMinutes: 45})
	require.NoError(t, err)

	list, err := db.ListTemplates(user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A lunch", list[0].Name)

	got, err := db.GetTemplate(user.ID, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=FR", got.RRule)

	_, err = db.GetTemplate(other.ID, tpl.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, db.DeleteTemplate(other.ID, tpl.ID), ErrNotFound)
	require.NoError(t, db.DeleteTemplate(user.ID, tpl.ID))
}
