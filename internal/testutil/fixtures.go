package testutil

import (
	"fmt"
	"time"

	"github.com/omriShneor/planit/internal/database"
)

// EventBuilder builds test events
type EventBuilder struct {
	calendarID  int64
	createdBy   *int64
	title       string
	description string
	startTime   time.Time
	duration    time.Duration
	source      database.EventSource
}

// NewEventBuilder creates a new event builder with defaults
func NewEventBuilder(calendarID int64) *EventBuilder {
	return &EventBuilder{
		calendarID: calendarID,
		title:      "Test Event",
		startTime:  time.Now().Add(24 * time.Hour).Truncate(time.Hour),
		duration:   time.Hour,
		source:     database.EventSourceManual,
	}
}

// WithTitle sets the title
func (b *EventBuilder) WithTitle(title string) *EventBuilder {
	b.title = title
	return b
}

// WithDescription sets the description
func (b *EventBuilder) WithDescription(desc string) *EventBuilder {
	b.description = desc
	return b
}

// At sets the start time
func (b *EventBuilder) At(start time.Time) *EventBuilder {
	b.startTime = start
	return b
}

// Lasting sets the duration
func (b *EventBuilder) Lasting(d time.Duration) *EventBuilder {
	b.duration = d
	return b
}

// By sets the creating user
func (b *EventBuilder) By(userID int64) *EventBuilder {
	b.createdBy = &userID
	return b
}

// FromChat marks the event as created by the chat assistant
func (b *EventBuilder) FromChat() *EventBuilder {
	b.source = database.EventSourceChat
	return b
}

// Build creates the event in the database
func (b *EventBuilder) Build(db *database.DB) (*database.Event, error) {
	return db.CreateEvent(&database.Event{
		CalendarID:  b.calendarID,
		CreatedBy:   b.createdBy,
		Title:       b.title,
		Description: b.description,
		StartTime:   b.startTime,
		EndTime:     b.startTime.Add(b.duration),
		Source:      b.source,
	})
}

// MustBuild creates the event or panics
func (b *EventBuilder) MustBuild(db *database.DB) *database.Event {
	event, err := b.Build(db)
	if err != nil {
		panic(fmt.Sprintf("failed to build event: %v", err))
	}
	return event
}

// PlanBuilder builds test celebration plans
type PlanBuilder struct {
	plan database.CelebrationPlan
}

// NewPlanBuilder creates a new plan builder with defaults
func NewPlanBuilder(userID int64) *PlanBuilder {
	return &PlanBuilder{plan: database.CelebrationPlan{
		UserID:    userID,
		Title:     "Birthday party",
		Celebrant: "Sam",
		PlanDate:  time.Now().AddDate(0, 1, 0).Truncate(time.Hour),
	}}
}

// WithTitle sets the title
func (b *PlanBuilder) WithTitle(title string) *PlanBuilder {
	b.plan.Title = title
	return b
}

// On sets the plan date
func (b *PlanBuilder) On(date time.Time) *PlanBuilder {
	b.plan.PlanDate = date
	return b
}

// WithBudget sets the budget in cents
func (b *PlanBuilder) WithBudget(cents int64) *PlanBuilder {
	b.plan.BudgetCents = cents
	return b
}

// ForGroup shares the plan with a group
func (b *PlanBuilder) ForGroup(groupID int64) *PlanBuilder {
	b.plan.GroupID = &groupID
	return b
}

// Build creates the plan in the database
func (b *PlanBuilder) Build(db *database.DB) (*database.CelebrationPlan, error) {
	plan := b.plan
	return db.CreatePlan(&plan)
}

// MustBuild creates the plan or panics
func (b *PlanBuilder) MustBuild(db *database.DB) *database.CelebrationPlan {
	plan, err := b.Build(db)
	if err != nil {
		panic(fmt.Sprintf("failed to build plan: %v", err))
	}
	return plan
}
