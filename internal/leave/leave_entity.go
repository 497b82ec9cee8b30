package leave

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending      = "PENDING"
	StatusPendingAdmin = "PENDING_ADMIN"
	StatusApproved     = "APPROVED"
	StatusDeclined     = "DECLINED"
)

type LeaveRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_student_dates"`

	StartDate time.Time `gorm:"type:date;not null;index:idx_leave_requests_student_dates"`
	EndDate   time.Time `gorm:"type:date;not null"`
	Reason    string    `gorm:"type:text;not null"`

	// IsEmergency is fixed at submission and decides both the eligibility
	// path (attendance gate skipped) and the approval routing (escalation
	// through PENDING_ADMIN).
	IsEmergency bool `gorm:"not null;default:false"`

	Status        string     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ReviewerID    *uuid.UUID `gorm:"type:uuid"`
	ReviewComment *string    `gorm:"type:text"`
	AdminApproved *bool

	CreatedAt time.Time

	Student *StudentRef `gorm:"foreignKey:StudentID;references:ID"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// StudentRef joins the minimal student columns needed for listings.
type StudentRef struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"column:name"`
	RollNumber   *string   `gorm:"column:roll_number"`
	StudentClass *string   `gorm:"column:student_class"`
}

func (StudentRef) TableName() string {
	return "users"
}
