package events

import "time"

const LeaveNotificationTopic = "school.leave.notifications.v1"

// LeaveNotificationEvent is queued to the outbox once per leave transition
// and materialized into a notification row by the consumer. NotificationID
// is assigned by the producer so redelivery cannot create duplicate rows.
type LeaveNotificationEvent struct {
	NotificationID string    `json:"notification_id"`
	RecipientID    string    `json:"recipient_id"`
	LeaveID        string    `json:"leave_id"`
	Message        string    `json:"message"`
	OccurredAt     time.Time `json:"occurred_at"`
}
