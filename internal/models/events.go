package models

import "time"

// Event types
const (
	EventTypeWorkSubmitted    = "WORK_SUBMITTED"
	EventTypeWorkModerated    = "WORK_MODERATED"
	EventTypeMailingRequested = "MAILING_REQUESTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// WorkSubmittedEvent published when a placement payment is confirmed
type WorkSubmittedEvent struct {
	BaseEvent
	WorkID    int64 `json:"work_id"`
	MasterID  int64 `json:"master_id"`
	InvoiceID int64 `json:"invoice_id"`
}

// WorkModeratedEvent published when an admin approves or rejects a work
type WorkModeratedEvent struct {
	BaseEvent
	WorkID      int64      `json:"work_id"`
	MasterID    int64      `json:"master_id"`
	Status      WorkStatus `json:"status"`
	ModeratorID int64      `json:"moderator_id"`
}

// MailingRequestedEvent carries an admin broadcast to every account
type MailingRequestedEvent struct {
	BaseEvent
	Text        string `json:"text"`
	PhotoFileID string `json:"photo_file_id,omitempty"`
	RequestedBy int64  `json:"requested_by"`
}
