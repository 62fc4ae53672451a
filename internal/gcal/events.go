package gcal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

var (
	ErrNotAuthenticated = errors.New("google calendar not authenticated")
	ErrEventNotFound    = errors.New("google calendar event not found")
)

// EventInput represents the input for creating or updating a calendar event
type EventInput struct {
	Summary     string
	Description string
	StartTime   time.Time
	EndTime     time.Time
}

func (in EventInput) toAPI() *calendar.Event {
	// RFC3339 keeps the stated offset, so Google shows the clock time the user gave
	return &calendar.Event{
		Summary:     in.Summary,
		Description: in.Description,
		Start:       &calendar.EventDateTime{DateTime: in.StartTime.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: in.EndTime.Format(time.RFC3339)},
	}
}

func wrapNotFound(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && (gErr.Code == http.StatusNotFound || gErr.Code == http.StatusGone) {
		return ErrEventNotFound
	}
	return err
}

// CreateEvent creates a new event in Google Calendar and returns the event ID
func (c *Client) CreateEvent(ctx context.Context, calendarID string, input EventInput) (string, error) {
	if !c.IsAuthenticated() {
		return "", ErrNotAuthenticated
	}
	if calendarID == "" {
		calendarID = "primary"
	}

	created, err := c.service.Events.Insert(calendarID, input.toAPI()).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	return created.Id, nil
}

// UpdateEvent updates an existing event in Google Calendar
func (c *Client) UpdateEvent(ctx context.Context, calendarID, eventID string, input EventInput) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if calendarID == "" {
		calendarID = "primary"
	}

	_, err := c.service.Events.Update(calendarID, eventID, input.toAPI()).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update event: %w", wrapNotFound(err))
	}

	return nil
}

// DeleteEvent deletes an event from Google Calendar. Deleting an event that is
// already gone is not an error.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if calendarID == "" {
		calendarID = "primary"
	}

	err := c.service.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		if errors.Is(wrapNotFound(err), ErrEventNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return nil
}
