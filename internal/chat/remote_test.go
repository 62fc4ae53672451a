package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteMaterializer(t *testing.T) {
	start := time.Date(2025, 4, 2, 18, 0, 0, 0, time.FixedZone("", 2*60*60))
	in := EventInput{CalendarID: 4, Title: "Party", Description: "bring cake", Start: start, End: start.Add(3 * time.Hour)}

	t.Run("created", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/event", r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

			var body remoteEventRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Party", body.Title)
			assert.Equal(t, "2025-04-02T18:00:00+02:00", body.StartTime)
			assert.Equal(t, "2025-04-02T21:00:00+02:00", body.EndTime)
			assert.Equal(t, int64(4), body.CalendarID)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(PersistedEvent{
				ID: 77, CalendarID: 4, Title: body.Title, Description: body.Description,
				StartTime: body.StartTime, EndTime: body.EndTime,
			})
		}))
		defer server.Close()

		m := NewRemoteMaterializer(server.URL+"/", "secret", nil)
		created, err := m.CreateEvent(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, int64(77), created.ID)
		assert.Equal(t, "bring cake", created.Description)
	})

	t.Run("non-201 is a failure", func(t *testing.T) {
		for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusInternalServerError} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				w.Write([]byte(`{"id":1}`))
			}))

			m := NewRemoteMaterializer(server.URL, "", nil)
			_, err := m.CreateEvent(context.Background(), in)
			assert.Error(t, err, "status %d", status)
			server.Close()
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		m := NewRemoteMaterializer(url, "", nil)
		_, err := m.CreateEvent(context.Background(), in)
		assert.Error(t, err)
	})
}
