package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/omriShneor/planit/internal/database"
)

const defaultSendTimeout = 15 * time.Second

// PrefsStore is the subset of the database the service reads recipients from
type PrefsStore interface {
	GetUserByID(id int64) (*database.User, error)
	GetNotificationPrefs(userID int64) (*database.NotificationPrefs, error)
}

// Service orchestrates notifications based on user preferences.
// Failures are logged and never returned to the caller's request path.
type Service struct {
	db            PrefsStore
	emailNotifier Notifier
	appURL        string
	timeout       time.Duration
	logger        *slog.Logger
}

// NewService creates a notification service. emailNotifier may be nil.
func NewService(db PrefsStore, emailNotifier Notifier, appURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:            db,
		emailNotifier: emailNotifier,
		appURL:        appURL,
		timeout:       defaultSendTimeout,
		logger:        logger,
	}
}

// IsEmailAvailable returns true if email notifications can be used
func (s *Service) IsEmailAvailable() bool {
	return s.emailNotifier != nil && s.emailNotifier.IsConfigured()
}

// NotifyEventsCreated emails the user a summary of events added from chat.
func (s *Service) NotifyEventsCreated(ctx context.Context, userID int64, events []EventSummary) {
	if len(events) == 0 {
		return
	}
	s.sendToUser(ctx, userID, EventsAddedMessage(events, s.appURL))
}

// NotifyPlanReminder emails the plan owner about an upcoming celebration.
// It reports whether the reminder was delivered.
func (s *Service) NotifyPlanReminder(ctx context.Context, plan *database.CelebrationPlan) bool {
	return s.sendToUser(ctx, plan.UserID, PlanReminderMessage(plan, s.appURL))
}

func (s *Service) sendToUser(ctx context.Context, userID int64, msg Message) bool {
	if !s.IsEmailAvailable() {
		s.logger.Debug("email notifier not configured, skipping", "user_id", userID)
		return false
	}

	prefs, err := s.db.GetNotificationPrefs(userID)
	if err != nil {
		s.logger.Warn("failed to load notification prefs", "user_id", userID, "error", err)
		return false
	}
	if !prefs.EmailEnabled {
		return false
	}

	recipient := prefs.EmailAddress
	if recipient == "" {
		user, err := s.db.GetUserByID(userID)
		if err != nil {
			s.logger.Warn("failed to load user for notification", "user_id", userID, "error", err)
			return false
		}
		recipient = user.Email
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.emailNotifier.Send(sendCtx, recipient, msg); err != nil {
		s.logger.Warn("email notification failed",
			"notifier", s.emailNotifier.Name(),
			"user_id", userID,
			"error", err,
		)
		return false
	}

	s.logger.Info("email notification sent", "user_id", userID, "subject", msg.Subject)
	return true
}
