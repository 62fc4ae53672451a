package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/omriShneor/planit/internal/timeutil"
)

// RemoteMaterializer creates events through an events service's POST /event endpoint.
type RemoteMaterializer struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewRemoteMaterializer creates a materializer for the events service at baseURL.
// token, if set, is sent as a bearer credential.
func NewRemoteMaterializer(baseURL, token string, httpClient *http.Client) *RemoteMaterializer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &RemoteMaterializer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

type remoteEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	CalendarID  int64  `json:"calendarId"`
}

func (m *RemoteMaterializer) CreateEvent(ctx context.Context, in EventInput) (*PersistedEvent, error) {
	body, err := json.Marshal(remoteEventRequest{
		Title:       in.Title,
		Description: in.Description,
		StartTime:   timeutil.FormatStated(in.Start),
		EndTime:     timeutil.FormatStated(in.End),
		CalendarID:  in.CalendarID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/event", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach events service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read events service response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("events service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var created PersistedEvent
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("failed to decode created event: %w", err)
	}
	if created.CalendarID == 0 {
		created.CalendarID = in.CalendarID
	}
	return &created, nil
}
