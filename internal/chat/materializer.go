package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/omriShneor/planit/internal/database"
	"github.com/omriShneor/planit/internal/timeutil"
)

// EventInput is a validated candidate bound to a target calendar.
type EventInput struct {
	CalendarID  int64
	CreatedBy   int64
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// PersistedEvent is the record returned by a Materializer.
type PersistedEvent struct {
	ID          int64  `json:"id"`
	CalendarID  int64  `json:"calendarId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

// Materializer turns a candidate into a stored calendar event.
type Materializer interface {
	CreateEvent(ctx context.Context, in EventInput) (*PersistedEvent, error)
}

// EventStore is the subset of the database used to persist chat events.
type EventStore interface {
	CreateEvent(event *database.Event) (*database.Event, error)
	SetEventGoogleID(id int64, googleEventID string) error
}

// Mirror copies a stored event to an external calendar and returns its remote id.
// An empty id with a nil error means the event was not mirrored.
type Mirror interface {
	MirrorEvent(ctx context.Context, event *database.Event) (string, error)
}

// StoreMaterializer writes events to the local database and optionally mirrors them.
type StoreMaterializer struct {
	store  EventStore
	mirror Mirror
	logger *slog.Logger
}

// NewStoreMaterializer creates a materializer backed by store. mirror may be nil.
func NewStoreMaterializer(store EventStore, mirror Mirror, logger *slog.Logger) *StoreMaterializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreMaterializer{store: store, mirror: mirror, logger: logger}
}

func (m *StoreMaterializer) CreateEvent(ctx context.Context, in EventInput) (*PersistedEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var createdBy *int64
	if in.CreatedBy != 0 {
		createdBy = &in.CreatedBy
	}

	event, err := m.store.CreateEvent(&database.Event{
		CalendarID:  in.CalendarID,
		CreatedBy:   createdBy,
		Title:       in.Title,
		Description: in.Description,
		StartTime:   in.Start,
		EndTime:     in.End,
		Source:      database.EventSourceChat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store event: %w", err)
	}

	if m.mirror != nil {
		m.mirrorEvent(ctx, event)
	}

	return &PersistedEvent{
		ID:          event.ID,
		CalendarID:  event.CalendarID,
		Title:       event.Title,
		Description: event.Description,
		StartTime:   timeutil.FormatStated(in.Start),
		EndTime:     timeutil.FormatStated(in.End),
	}, nil
}

// mirrorEvent failures never fail the local create.
func (m *StoreMaterializer) mirrorEvent(ctx context.Context, event *database.Event) {
	googleID, err := m.mirror.MirrorEvent(ctx, event)
	if err != nil {
		m.logger.Warn("failed to mirror event", "event_id", event.ID, "error", err)
		return
	}
	if googleID == "" {
		return
	}
	if err := m.store.SetEventGoogleID(event.ID, googleID); err != nil {
		m.logger.Warn("failed to record mirrored event id", "event_id", event.ID, "error", err)
	}
}
