package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/omriShneor/planit/internal/gcal"
	"github.com/omriShneor/planit/internal/llm"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// FakeModel simulates the Anthropic Messages API. Replies are served in
// order; the last one repeats once the queue is drained.
type FakeModel struct {
	mu      sync.Mutex
	replies []fakeReply
	calls   int
	server  *httptest.Server
}

type fakeReply struct {
	status int
	body   string
}

// NewFakeModel starts a fake model server that answers "[]" until told otherwise.
func NewFakeModel(t *testing.T) *FakeModel {
	t.Helper()
	m := &FakeModel{}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.server.Close)
	return m
}

func (m *FakeModel) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.calls++
	reply := fakeReply{status: http.StatusOK, body: textMessage("[]")}
	if len(m.replies) > 0 {
		reply = m.replies[0]
		if len(m.replies) > 1 {
			m.replies = m.replies[1:]
		}
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.status)
	fmt.Fprint(w, reply.body)
}

func textMessage(text string) string {
	data, _ := json.Marshal(map[string]any{
		"id":      "msg_test",
		"type":    "message",
		"role":    "assistant",
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	return string(data)
}

// Reply queues a successful completion whose text is text.
func (m *FakeModel) Reply(text string) *FakeModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, fakeReply{status: http.StatusOK, body: textMessage(text)})
	return m
}

// Fail queues an API error response.
func (m *FakeModel) Fail(status int, errType string) *FakeModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	body := fmt.Sprintf(`{"type":"error","error":{"type":%q,"message":"test failure"}}`, errType)
	m.replies = append(m.replies, fakeReply{status: status, body: body})
	return m
}

// Calls returns how many completion requests were received.
func (m *FakeModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Client returns an llm client pointed at the fake.
func (m *FakeModel) Client() *llm.Client {
	return llm.NewClient("test-key", "", 0, llm.WithAPIURL(m.server.URL))
}

// FakeCalendarAPI simulates the parts of the Google Calendar v3 API the mirror uses.
type FakeCalendarAPI struct {
	mu     sync.Mutex
	events map[string]*calendar.Event
	nextID int
	client *gcal.Client
}

// NewFakeCalendarAPI starts a fake Calendar API and a gcal client bound to it.
func NewFakeCalendarAPI(t *testing.T) *FakeCalendarAPI {
	t.Helper()
	f := &FakeCalendarAPI{events: make(map[string]*calendar.Event)}

	server := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(server.Close)

	svc, err := calendar.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	f.client = gcal.NewClientWithService(svc)
	return f
}

func (f *FakeCalendarAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	// Paths look like /calendars/{calendarId}/events[/{eventId}]
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	eventID := ""
	if len(parts) >= 4 && parts[len(parts)-2] == "events" {
		eventID = parts[len(parts)-1]
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/calendarList"):
		fmt.Fprint(w, `{"items":[{"id":"primary","summary":"Primary","primary":true,"accessRole":"owner"}]}`)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/events"):
		var ev calendar.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.nextID++
		ev.Id = fmt.Sprintf("g-evt-%d", f.nextID)
		f.events[ev.Id] = &ev
		json.NewEncoder(w).Encode(ev)
	case eventID != "" && f.events[eventID] == nil:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":404,"message":"Not Found"}}`)
	case r.Method == http.MethodPut || r.Method == http.MethodPatch:
		var ev calendar.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		ev.Id = eventID
		f.events[eventID] = &ev
		json.NewEncoder(w).Encode(ev)
	case r.Method == http.MethodDelete:
		delete(f.events, eventID)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Client returns the gcal client bound to the fake.
func (f *FakeCalendarAPI) Client() *gcal.Client {
	return f.client
}

// Event returns a copy of the stored event, or nil.
func (f *FakeCalendarAPI) Event(id string) *calendar.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return nil
	}
	cp := *ev
	return &cp
}

// Len returns the number of stored events.
func (f *FakeCalendarAPI) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}
