package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a persisted message for one recipient, written by the
// Kafka consumer from queued leave notification events.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	LeaveID     *uuid.UUID `gorm:"type:uuid" json:"leave_id,omitempty"`
	Message     string     `gorm:"type:text;not null" json:"message"`
	IsRead      bool       `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
