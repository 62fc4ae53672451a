package gcal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/omriShneor/planit/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type fakeCalendarAPI struct {
	mu       sync.Mutex
	inserted []calendar.Event
	deleted  []string
	paths    []string
}

func newFakeCalendarAPI(t *testing.T) (*fakeCalendarAPI, *Client) {
	t.Helper()
	fake := &fakeCalendarAPI{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		fake.paths = append(fake.paths, r.Method+" "+r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/events"):
			var ev calendar.Event
			require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
			fake.inserted = append(fake.inserted, ev)
			ev.Id = "g-evt-1"
			json.NewEncoder(w).Encode(ev)
		case r.Method == http.MethodDelete && strings.HasSuffix(r.URL.Path, "/events/gone"):
			w.WriteHeader(http.StatusGone)
			w.Write([]byte(`{"error":{"code":410,"message":"Resource has been deleted"}}`))
		case r.Method == http.MethodDelete:
			fake.deleted = append(fake.deleted, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/calendarList"):
			w.Write([]byte(`{"items":[{"id":"primary","summary":"Me","primary":true,"accessRole":"owner"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	svc, err := calendar.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return fake, NewClientWithService(svc)
}

func TestMirrorEvent(t *testing.T) {
	db := database.NewTestDB(t)
	user := database.CreateTestUser(t, db)
	cal, err := db.GetOrCreateDefaultCalendar(user.ID)
	require.NoError(t, err)

	fake, client := newFakeCalendarAPI(t)
	mirror := NewMirror(client, db, time.Second)

	loc := time.FixedZone("", -7*3600)
	event := &database.Event{
		CalendarID: cal.ID,
		CreatedBy:  &user.ID,
		Title:      "Dentist",
		StartTime:  time.Date(2025, 3, 4, 15, 0, 0, 0, loc),
		EndTime:    time.Date(2025, 3, 4, 16, 0, 0, 0, loc),
	}

	t.Run("unlinked calendar is skipped", func(t *testing.T) {
		id, err := mirror.MirrorEvent(context.Background(), event)
		require.NoError(t, err)
		assert.Empty(t, id)
		assert.Empty(t, fake.inserted)
	})

	t.Run("linked calendar is mirrored", func(t *testing.T) {
		require.NoError(t, db.SetCalendarGoogleID(user.ID, cal.ID, "primary"))

		id, err := mirror.MirrorEvent(context.Background(), event)
		require.NoError(t, err)
		assert.Equal(t, "g-evt-1", id)
		require.Len(t, fake.inserted, 1)
		assert.Equal(t, "Dentist", fake.inserted[0].Summary)
		assert.Equal(t, "2025-03-04T15:00:00-07:00", fake.inserted[0].Start.DateTime)
	})

	t.Run("event without creator is skipped", func(t *testing.T) {
		anon := *event
		anon.CreatedBy = nil
		id, err := mirror.MirrorEvent(context.Background(), &anon)
		require.NoError(t, err)
		assert.Empty(t, id)
	})
}

func TestRemoveMirroredEvent(t *testing.T) {
	db := database.NewTestDB(t)
	user := database.CreateTestUser(t, db)
	cal, err := db.GetOrCreateDefaultCalendar(user.ID)
	require.NoError(t, err)
	require.NoError(t, db.SetCalendarGoogleID(user.ID, cal.ID, "primary"))

	fake, client := newFakeCalendarAPI(t)
	mirror := NewMirror(client, db, time.Second)

	event := &database.Event{CalendarID: cal.ID, CreatedBy: &user.ID}
	require.NoError(t, mirror.RemoveMirroredEvent(context.Background(), event), "never mirrored")
	assert.Empty(t, fake.deleted)

	event.GoogleEventID = database.StringPtr("abc")
	require.NoError(t, mirror.RemoveMirroredEvent(context.Background(), event))
	assert.Len(t, fake.deleted, 1)

	event.GoogleEventID = database.StringPtr("gone")
	assert.NoError(t, mirror.RemoveMirroredEvent(context.Background(), event), "already deleted remotely")
}

func TestUnauthenticatedClient(t *testing.T) {
	var client *Client
	assert.False(t, client.IsAuthenticated())

	client = &Client{}
	_, err := client.CreateEvent(context.Background(), "", EventInput{})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = client.ListCalendars(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	db := database.NewTestDB(t)
	id, err := NewMirror(client, db, 0).MirrorEvent(context.Background(), &database.Event{})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestListCalendars(t *testing.T) {
	_, client := newFakeCalendarAPI(t)

	calendars, err := client.ListCalendars(context.Background())
	require.NoError(t, err)
	require.Len(t, calendars, 1)
	assert.True(t, calendars[0].Primary)
	assert.Equal(t, "owner", calendars[0].AccessRole)
}
