package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/omriShneor/planit/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNotifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, recipient string, msg Message) error {
	args := m.Called(ctx, recipient, msg)
	return args.Error(0)
}

func (m *MockNotifier) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockNotifier) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func TestIsEmailAvailable(t *testing.T) {
	db := database.NewTestDB(t)

	t.Run("available when notifier configured", func(t *testing.T) {
		emailNotifier := &MockNotifier{}
		emailNotifier.On("IsConfigured").Return(true)

		service := NewService(db, emailNotifier, "", nil)
		assert.True(t, service.IsEmailAvailable())

		emailNotifier.AssertExpectations(t)
	})

	t.Run("not available when notifier not configured", func(t *testing.T) {
		emailNotifier := &MockNotifier{}
		emailNotifier.On("IsConfigured").Return(false)

		service := NewService(db, emailNotifier, "", nil)
		assert.False(t, service.IsEmailAvailable())
	})

	t.Run("not available when notifier is nil", func(t *testing.T) {
		service := NewService(db, nil, "", nil)
		assert.False(t, service.IsEmailAvailable())
	})
}

func TestNotifyEventsCreated(t *testing.T) {
	start := time.Date(2025, 4, 1, 14, 0, 0, 0, time.UTC)
	events := []EventSummary{{Title: "Lunch", Start: start, End: start.Add(time.Hour)}}

	t.Run("sends to the preferred address", func(t *testing.T) {
		db := database.NewTestDB(t)
		user := database.CreateTestUser(t, db)
		require.NoError(t, db.UpdateEmailPrefs(user.ID, true, "me@example.com"))

		emailNotifier := &MockNotifier{}
		emailNotifier.On("IsConfigured").Return(true)
		emailNotifier.On("Send", mock.Anything, "me@example.com", mock.MatchedBy(func(msg Message) bool {
			return msg.Subject == "Added to your calendar: Lunch"
		})).Return(nil)

		service := NewService(db, emailNotifier, "http://localhost:8080", nil)
		service.NotifyEventsCreated(context.Background(), user.ID, events)

		emailNotifier.AssertExpectations(t)
	})

	t.Run("falls back to account email", func(t *testing.T) {
		db := database.NewTestDB(t)
		user := database.CreateTestUser(t, db)
		require.NoError(t, db.UpdateEmailPrefs(user.ID, true, ""))

		emailNotifier := &MockNotifier{}
		emailNotifier.On("IsConfigured").Return(true)
		emailNotifier.On("Send", mock.Anything, user.Email, mock.Anything).Return(nil)

		service := NewService(db, emailNotifier, "", nil)
		service.NotifyEventsCreated(context.Background(), user.ID, events)

		emailNotifier.AssertExpectations(t)
	})

	t.Run("disabled prefs send nothing", func(t *testing.T) {
		db := database.NewTestDB(t)
		user := database.CreateTestUser(t, db)

		emailNotifier := &MockNotifier{}
		emailNotifier.On("IsConfigured").Return(true)

		service := NewService(db, emailNotifier, "", nil)
		service.NotifyEventsCreated(context.Background(), user.ID, events)

		emailNotifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no events sends nothing", func(t *testing.T) {
		db := database.NewTestDB(t)
		emailNotifier := &MockNotifier{}

		service := NewService(db, emailNotifier, "", nil)
		service.NotifyEventsCreated(context.Background(), 1, nil)

		emailNotifier.AssertNotCalled(t, "IsConfigured")
	})
}

func TestNotifyPlanReminder(t *testing.T) {
	db := database.NewTestDB(t)
	user := database.CreateTestUser(t, db)
	require.NoError(t, db.UpdateEmailPrefs(user.ID, true, "plans@example.com"))

	plan := &database.CelebrationPlan{
		ID:          7,
		UserID:      user.ID,
		Title:       "Noa's birthday",
		Celebrant:   "Noa",
		PlanDate:    time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC),
		BudgetCents: 20000,
		SavedCents:  12550,
	}

	t.Run("delivered", func(t *testing.T) {
		emailNotifier := &MockNotifier{}
		emailNotifier.On("IsConfigured").Return(true)
		emailNotifier.On("Send", mock.Anything, "plans@example.com", mock.MatchedBy(func(msg Message) bool {
			return msg.Subject == "Coming up: Noa's birthday"
		})).Return(nil)

		service := NewService(db, emailNotifier, "https://planit.example", nil)
		assert.True(t, service.NotifyPlanReminder(context.Background(), plan))
		emailNotifier.AssertExpectations(t)
	})

	t.Run("send failure is reported, not raised", func(t *testing.T) {
		emailNotifier := &MockNotifier{}
		emailNotifier.On("IsConfigured").Return(true)
		emailNotifier.On("Name").Return("mock")
		emailNotifier.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

		service := NewService(db, emailNotifier, "", nil)
		assert.False(t, service.NotifyPlanReminder(context.Background(), plan))
	})
}
