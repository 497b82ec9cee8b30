package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleStudent     = "STUDENT"
	RoleCoordinator = "COORDINATOR"
	RoleAdmin       = "ADMIN"
)

// User is a single record for every actor in the system. Role-specific
// attributes are optional columns scoped by the Role tag; handlers and
// services branch on Role, never on a subtype.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email    string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password string    `gorm:"type:varchar(255);not null"`
	Name     string    `gorm:"type:varchar(255);not null"`
	Role     string    `gorm:"type:varchar(20);not null;index"`
	IsActive bool      `gorm:"default:true"`

	// Student fields
	RollNumber           *string  `gorm:"type:varchar(50);uniqueIndex"`
	StudentClass         *string  `gorm:"type:varchar(50);index"`
	AttendancePercentage *float64 `gorm:"type:numeric(5,2)"`

	// Coordinator fields
	AssignedClass *string `gorm:"type:varchar(50);index"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
