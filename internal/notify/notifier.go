package notify

import (
	"context"
)

// Message is a rendered notification
type Message struct {
	Subject string
	HTML    string
}

// Notifier delivers a message to a recipient over one channel
type Notifier interface {
	// Send delivers msg to recipient
	Send(ctx context.Context, recipient string, msg Message) error
	// Name returns the notifier type name (for logging)
	Name() string
	// IsConfigured returns true if the notifier has server-side config
	IsConfigured() bool
}
