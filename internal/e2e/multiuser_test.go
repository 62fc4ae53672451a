package e2e

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/omriShneor/planit/internal/database"
	"github.com/omriShneor/planit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupCalendarSharing(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, friendToken := ts.NewUser()
	_, strangerToken := ts.NewUser()

	resp := ts.Do(http.MethodPost, "/api/groups", map[string]string{"name": "Book club"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	group := testutil.DecodeJSON[database.Group](t, resp)

	resp = ts.DoAs(friendToken, http.MethodPost, "/api/groups/join", map[string]string{"invite_code": group.InviteCode})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ts.Model.Reply(`{"title":"Book club: Middlemarch","startTime":"2025-08-05T19:00:00+01:00"}`)
	resp = ts.Do(http.MethodPost, "/api/events/chat", map[string]any{
		"message":    "book club on the 5th at 7pm",
		"calendarId": group.CalendarID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("members see group events", func(t *testing.T) {
		resp := ts.DoAs(friendToken, http.MethodGet, fmt.Sprintf("/api/events?calendar_id=%d", group.CalendarID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		events := testutil.DecodeJSON[[]database.Event](t, resp)
		require.Len(t, events, 1)
		assert.Equal(t, "Book club: Middlemarch", events[0].Title)
	})

	t.Run("members can chat into the group calendar", func(t *testing.T) {
		ts.Model.Reply(`{"title":"Bring snacks","startTime":"2025-08-05T18:30:00+01:00"}`)
		resp := ts.DoAs(friendToken, http.MethodPost, "/api/events/chat", map[string]any{
			"message":    "I'll bring snacks at 6:30",
			"calendarId": group.CalendarID,
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("outsiders do not", func(t *testing.T) {
		resp := ts.DoAs(strangerToken, http.MethodGet, fmt.Sprintf("/api/events?calendar_id=%d", group.CalendarID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, testutil.DecodeJSON[[]database.Event](t, resp))

		calls := ts.Model.Calls()
		resp = ts.DoAs(strangerToken, http.MethodPost, "/api/events/chat", map[string]any{
			"message":    "sneaky event",
			"calendarId": group.CalendarID,
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, calls, ts.Model.Calls())
	})

	t.Run("group plans are shared", func(t *testing.T) {
		testutil.NewPlanBuilder(ts.TestUser.ID).WithTitle("Club anniversary").ForGroup(group.ID).MustBuild(ts.DB)

		resp := ts.DoAs(friendToken, http.MethodGet, "/api/plans", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		plans := testutil.DecodeJSON[[]database.CelebrationPlan](t, resp)
		require.Len(t, plans, 1)

		resp = ts.DoAs(friendToken, http.MethodPost, "/api/transactions", map[string]any{
			"plan_id": plans[0].ID, "kind": "deposit", "amount_cents": 2500,
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = ts.Do(http.MethodGet, fmt.Sprintf("/api/plans/%d", plans[0].ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int64(2500), testutil.DecodeJSON[database.CelebrationPlan](t, resp).SavedCents)
	})

	t.Run("deleting the group removes its calendar", func(t *testing.T) {
		resp := ts.Do(http.MethodDelete, fmt.Sprintf("/api/groups/%d", group.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = ts.DoAs(friendToken, http.MethodGet, fmt.Sprintf("/api/calendars/%d", group.CalendarID), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
