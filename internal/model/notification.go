package model

import "time"

// Notification records the arrival of a new message in a mailbox.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// MailboxID links this notification to the identity that received mail.
	MailboxID string `json:"mailbox_id"`

	// MessageID is the provider id of the message that arrived.
	MessageID string `json:"message_id"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at"`
}
