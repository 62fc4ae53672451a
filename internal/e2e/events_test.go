package e2e

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/omriShneor/planit/internal/chat"
	"github.com/omriShneor/planit/internal/database"
	"github.com/omriShneor/planit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatResult struct {
	Events  []chat.PersistedEvent `json:"events"`
	Message string                `json:"message"`
	Created int                   `json:"created"`
	Skipped int                   `json:"skipped"`
	Error   string                `json:"error"`
}

func TestChatEventLifecycle(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ts.Model.Reply("```json\n" + `[
		{"title":"Mom's birthday dinner","startTime":"2025-06-14T19:00:00-04:00","endTime":"2025-06-14T21:30:00-04:00"},
		{"title":"Buy flowers","startTime":"2025-06-14T10:00:00-04:00"}
	]` + "\n```\n*Note: assumed Eastern time*")

	var created []chat.PersistedEvent

	t.Run("chat message creates events", func(t *testing.T) {
		resp := ts.Do(http.MethodPost, "/api/events/chat", map[string]string{
			"message": "Mom's birthday dinner Saturday 7pm, and buy flowers that morning at 10",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		result := testutil.DecodeJSON[chatResult](t, resp)
		assert.Equal(t, 2, result.Created)
		assert.Equal(t, 0, result.Skipped)
		require.Len(t, result.Events, 2)

		assert.Equal(t, "2025-06-14T19:00:00-04:00", result.Events[0].StartTime)
		assert.Equal(t, "2025-06-14T21:30:00-04:00", result.Events[0].EndTime)
		assert.Equal(t, "2025-06-14T11:00:00-04:00", result.Events[1].EndTime, "missing end defaults to one hour")
		assert.Equal(t, ts.DefaultCalendar().ID, result.Events[0].CalendarID)
		created = result.Events
	})

	t.Run("events are listed in range", func(t *testing.T) {
		resp := ts.Do(http.MethodGet, "/api/events?from=2025-06-14T00:00:00-04:00&to=2025-06-15T00:00:00-04:00", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		events := testutil.DecodeJSON[[]database.Event](t, resp)
		require.Len(t, events, 2)
		for _, e := range events {
			assert.Equal(t, database.EventSourceChat, e.Source)
		}
	})

	t.Run("drag to a new time", func(t *testing.T) {
		require.NotEmpty(t, created)
		resp := ts.Do(http.MethodPut, fmt.Sprintf("/api/events/%d", created[1].ID), map[string]string{
			"start_time": "2025-06-14T09:00:00-04:00",
			"end_time":   "2025-06-14T09:30:00-04:00",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		event := testutil.DecodeJSON[database.Event](t, resp)
		assert.Equal(t, 9, event.StartTime.Hour())
	})

	t.Run("calendar exports as iCalendar", func(t *testing.T) {
		resp := ts.Do(http.MethodGet, fmt.Sprintf("/api/calendars/%d/ics", ts.DefaultCalendar().ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(string(body), "BEGIN:VEVENT"))
		assert.Contains(t, string(body), "SUMMARY:Buy flowers")
	})

	t.Run("delete event", func(t *testing.T) {
		require.NotEmpty(t, created)
		resp := ts.Do(http.MethodDelete, fmt.Sprintf("/api/events/%d", created[0].ID), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		events, err := ts.DB.ListEventsForUser(ts.TestUser.ID, database.EventFilter{})
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	assert.Equal(t, 1, ts.Model.Calls())
}

func TestChatFailures(t *testing.T) {
	tests := []struct {
		name           string
		setup          func(m *testutil.FakeModel)
		message        string
		expectedStatus int
		expectedError  string
		expectedCalls  int
	}{
		{
			name:           "empty message",
			setup:          func(m *testutil.FakeModel) {},
			message:        "   ",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "nothing recognizable",
			setup:          func(m *testutil.FakeModel) { m.Reply("[]") },
			message:        "hello there",
			expectedStatus: http.StatusBadRequest,
			expectedCalls:  1,
		},
		{
			name:           "provider overloaded",
			setup:          func(m *testutil.FakeModel) { m.Fail(529, "overloaded_error") },
			message:        "lunch at noon",
			expectedStatus: http.StatusServiceUnavailable,
			expectedError:  "Service unavailable",
			expectedCalls:  1,
		},
		{
			name:           "bad API key",
			setup:          func(m *testutil.FakeModel) { m.Fail(http.StatusUnauthorized, "authentication_error") },
			message:        "lunch at noon",
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Invalid API key",
			expectedCalls:  1,
		},
		{
			name:           "prose instead of JSON",
			setup:          func(m *testutil.FakeModel) { m.Reply("I'm not sure what you mean.") },
			message:        "lunch at noon",
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Invalid assistant response",
			expectedCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := testutil.NewTestServer(t)
			tt.setup(ts.Model)

			resp := ts.Do(http.MethodPost, "/api/events/chat", map[string]string{"message": tt.message})
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			result := testutil.DecodeJSON[chatResult](t, resp)
			assert.Equal(t, tt.expectedError, result.Error)
			assert.Equal(t, tt.expectedCalls, ts.Model.Calls())

			events, err := ts.DB.ListEventsForUser(ts.TestUser.ID, database.EventFilter{})
			require.NoError(t, err)
			assert.Empty(t, events)
		})
	}
}

func TestChatRequiresSession(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := ts.DoAs("", http.MethodPost, "/api/events/chat", map[string]string{"message": "lunch"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.DoAs("not-a-token", http.MethodPost, "/api/events/chat", map[string]string{"message": "lunch"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Zero(t, ts.Model.Calls())
}
