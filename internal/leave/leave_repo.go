package leave

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error)
	Update(ctx context.Context, l *LeaveRequest) error
	FindByStudent(ctx context.Context, studentID string) ([]LeaveRequest, error)
	FindAll(ctx context.Context, section string, date *time.Time) ([]LeaveRequest, error)
	FindPendingByClass(ctx context.Context, studentClass string, submittedOn *time.Time) ([]LeaveRequest, error)
	FindByClass(ctx context.Context, studentClass string) ([]LeaveRequest, error)
	FindEmergencyPendingAdmin(ctx context.Context) ([]LeaveRequest, error)
	CountApprovedInMonth(ctx context.Context, studentID string, month time.Month, year int) (int64, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db = db.Session(&gorm.Session{Context: ctx, NewDB: true})
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	return r.conn(ctx).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).
		Preload("Student").
		First(&l, "id = ?", id).Error
	return &l, err
}

// FindByIDForUpdate locks the leave row so concurrent reviews against the
// same request serialize; the loser of the race observes the new status.
func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	// Preload cannot ride along with FOR UPDATE on the joined row.
	var s StudentRef
	if err := r.conn(ctx).First(&s, "id = ?", l.StudentID).Error; err == nil {
		l.Student = &s
	}
	return &l, nil
}

func (r *repository) Update(ctx context.Context, l *LeaveRequest) error {
	return r.conn(ctx).Omit("Student").Save(l).Error
}

func (r *repository) FindByStudent(ctx context.Context, studentID string) ([]LeaveRequest, error) {
	var leaves []LeaveRequest
	err := r.conn(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&leaves).Error
	return leaves, err
}

// FindAll filters by class substring and/or a date falling inside the leave
// period. Empty section and nil date return everything.
func (r *repository) FindAll(ctx context.Context, section string, date *time.Time) ([]LeaveRequest, error) {
	db := r.conn(ctx).
		Model(&LeaveRequest{}).
		Preload("Student").
		Joins("JOIN users ON users.id = leave_requests.student_id")

	if section != "" {
		db = db.Where("LOWER(users.student_class) LIKE LOWER(?)", "%"+section+"%")
	}
	if date != nil {
		db = db.Where("? BETWEEN leave_requests.start_date AND leave_requests.end_date", *date)
	}

	var leaves []LeaveRequest
	err := db.Order("leave_requests.created_at DESC").Find(&leaves).Error
	return leaves, err
}

// FindPendingByClass returns PENDING leaves for a class. A nil submittedOn
// returns all of them so future-dated applications always show up; a set
// date filters by submission day (created_at), not by the leave period.
func (r *repository) FindPendingByClass(ctx context.Context, studentClass string, submittedOn *time.Time) ([]LeaveRequest, error) {
	db := r.conn(ctx).
		Model(&LeaveRequest{}).
		Preload("Student").
		Joins("JOIN users ON users.id = leave_requests.student_id").
		Where("leave_requests.status = ?", StatusPending).
		Where("users.student_class = ?", studentClass)

	if submittedOn != nil {
		dayStart := submittedOn.Truncate(24 * time.Hour)
		dayEnd := dayStart.Add(24 * time.Hour)
		db = db.Where("leave_requests.created_at >= ? AND leave_requests.created_at < ?", dayStart, dayEnd)
	}

	var leaves []LeaveRequest
	err := db.Order("leave_requests.created_at ASC").Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindByClass(ctx context.Context, studentClass string) ([]LeaveRequest, error) {
	var leaves []LeaveRequest
	err := r.conn(ctx).
		Model(&LeaveRequest{}).
		Preload("Student").
		Joins("JOIN users ON users.id = leave_requests.student_id").
		Where("LOWER(users.student_class) LIKE LOWER(?)", "%"+studentClass+"%").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindEmergencyPendingAdmin(ctx context.Context) ([]LeaveRequest, error) {
	var leaves []LeaveRequest
	err := r.conn(ctx).
		Preload("Student").
		Where("status = ?", StatusPendingAdmin).
		Where("is_emergency = TRUE").
		Order("created_at ASC").
		Find(&leaves).Error
	return leaves, err
}

// CountApprovedInMonth counts approved requests whose start date falls in
// the given calendar month. Eligibility math keys off the leave period's
// start, never the submission timestamp.
func (r *repository) CountApprovedInMonth(ctx context.Context, studentID string, month time.Month, year int) (int64, error) {
	var count int64
	err := r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("student_id = ?", studentID).
		Where("status = ?", StatusApproved).
		Where("EXTRACT(MONTH FROM start_date) = ?", int(month)).
		Where("EXTRACT(YEAR FROM start_date) = ?", year).
		Count(&count).Error
	return count, err
}
