package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/omriShneor/planit/internal/auth"
	"github.com/omriShneor/planit/internal/chat"
	"github.com/omriShneor/planit/internal/database"
	"github.com/omriShneor/planit/internal/gcal"
	"github.com/omriShneor/planit/internal/logging"
	"github.com/omriShneor/planit/internal/notify"
	"github.com/omriShneor/planit/internal/server"
	"github.com/stretchr/testify/require"
)

// TestServer wraps a server for E2E testing
type TestServer struct {
	Server     *server.Server
	DB         *database.DB
	HTTPServer *httptest.Server
	Auth       *auth.Service
	TestUser   *database.User
	// Token is a live session token for TestUser
	Token string

	// Fake external services
	Model    *FakeModel
	Calendar *FakeCalendarAPI
	Email    notify.Notifier

	materializer chat.Materializer
	mirror       *gcal.Mirror
	now          func() time.Time
	t            *testing.T
}

// TestServerOption configures a test server
type TestServerOption func(*TestServer)

// WithMaterializer replaces the local store materializer used by chat.
func WithMaterializer(m chat.Materializer) TestServerOption {
	return func(ts *TestServer) {
		ts.materializer = m
	}
}

// WithGoogleCalendar mirrors events into a fake Google Calendar API.
func WithGoogleCalendar() TestServerOption {
	return func(ts *TestServer) {
		ts.Calendar = NewFakeCalendarAPI(ts.t)
		ts.mirror = gcal.NewMirror(ts.Calendar.Client(), ts.DB, 5*time.Second)
	}
}

// WithEmail routes email notifications through n.
func WithEmail(n notify.Notifier) TestServerOption {
	return func(ts *TestServer) {
		ts.Email = n
	}
}

// WithClock fixes the pipeline's notion of now.
func WithClock(now time.Time) TestServerOption {
	return func(ts *TestServer) {
		ts.now = func() time.Time { return now }
	}
}

// NewTestServer creates a fully configured test server for E2E testing
func NewTestServer(t *testing.T, opts ...TestServerOption) *TestServer {
	t.Helper()

	// Create in-memory database
	db, err := database.New(":memory:")
	require.NoError(t, err, "failed to create test database")

	// Create a test user for E2E tests
	testUser := database.CreateTestUser(t, db)
	authService := auth.NewService(db, time.Hour)
	token, err := authService.CreateSession(testUser.ID, "e2e")
	require.NoError(t, err)

	ts := &TestServer{
		DB:       db,
		Auth:     authService,
		TestUser: testUser,
		Token:    token,
		Model:    NewFakeModel(t),
		t:        t,
	}

	// Apply options before creating server
	for _, opt := range opts {
		opt(ts)
	}

	logger := logging.Discard()
	materializer := ts.materializer
	if materializer == nil {
		if ts.mirror != nil {
			materializer = chat.NewStoreMaterializer(db, ts.mirror, logger)
		} else {
			materializer = chat.NewStoreMaterializer(db, nil, logger)
		}
	}

	cfg := server.ServerConfig{
		DB: db,
		Pipeline: chat.NewPipeline(ts.Model.Client(), materializer, logger, chat.Config{
			ExtractTimeout: 5 * time.Second,
			PersistTimeout: 5 * time.Second,
			Now:            ts.now,
		}),
		NotifyService: notify.NewService(db, ts.Email, "https://planit.test", logger),
		AuthService:   authService,
		Logger:        logger,
		AppURL:        "https://planit.test",
	}
	if ts.mirror != nil {
		cfg.Mirror = ts.mirror
	}
	ts.Server = server.New(cfg)
	ts.HTTPServer = httptest.NewServer(ts.Server.Handler())

	t.Cleanup(func() {
		ts.HTTPServer.Close()
		db.Close()
	})

	return ts
}

// BaseURL returns the test server base URL
func (ts *TestServer) BaseURL() string {
	return ts.HTTPServer.URL
}

// NewUser signs up another user and returns it with a session token.
func (ts *TestServer) NewUser() (*database.User, string) {
	ts.t.Helper()
	user := database.CreateTestUser(ts.t, ts.DB)
	token, err := ts.Auth.CreateSession(user.ID, "e2e")
	require.NoError(ts.t, err)
	return user, token
}

// Do sends an authenticated request as the test user. body is JSON-encoded
// unless it is a string, which is sent as is.
func (ts *TestServer) Do(method, path string, body any) *http.Response {
	return ts.DoAs(ts.Token, method, path, body)
}

// DoAs sends a request with the given session token; "" sends none.
func (ts *TestServer) DoAs(token, method, path string, body any) *http.Response {
	ts.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.BaseURL()+path, reader)
	require.NoError(ts.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.HTTPServer.Client().Do(req)
	require.NoError(ts.t, err)
	ts.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// DefaultCalendar returns the test user's default calendar.
func (ts *TestServer) DefaultCalendar() *database.Calendar {
	ts.t.Helper()
	cal, err := ts.DB.GetOrCreateDefaultCalendar(ts.TestUser.ID)
	require.NoError(ts.t, err)
	return cal
}

// DecodeJSON reads resp's body into a T.
func DecodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}
