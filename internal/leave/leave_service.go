package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	usererrors "github.com/Satyam0004/leave/internal/user/errors"

	"github.com/Satyam0004/leave/internal/events"
	leaveerrors "github.com/Satyam0004/leave/internal/leave/errors"
	"github.com/Satyam0004/leave/internal/messaging/kafka"
	"github.com/Satyam0004/leave/internal/shared/contextutil"
	"github.com/Satyam0004/leave/internal/user"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// StatsCacheKeyPrefix is the Redis key prefix for per-student stats entries.
const StatsCacheKeyPrefix = "leaves:stats:"

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Apply(ctx context.Context, studentID string, req ApplyLeaveRequest) (LeaveResponse, error)
	UpdateStatus(ctx context.Context, leaveID, reviewerID string, req UpdateStatusRequest) (LeaveResponse, error)
	AdminFinalize(ctx context.Context, leaveID, adminID string) (LeaveResponse, error)
	GetStudentLeaves(ctx context.Context, studentID string) ([]LeaveResponse, error)
	GetAll(ctx context.Context, filter ListLeavesFilterRequest) ([]LeaveResponse, error)
	GetStats(ctx context.Context, studentID string) (LeaveStatsResponse, error)
	GetPendingForCoordinator(ctx context.Context, coordinatorID, date string) ([]LeaveResponse, error)
	GetStudentSummary(ctx context.Context, coordinatorID string) ([]StudentSummaryResponse, error)
	GetEmergencyPending(ctx context.Context) ([]LeaveResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	users  user.Repository
	outbox kafka.OutboxRepository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	users user.Repository,
	outbox kafka.OutboxRepository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		users:  users,
		outbox: outbox,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) Apply(ctx context.Context, studentID string, req ApplyLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("apply leave requested",
		zap.String("student_id", studentID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
		zap.Bool("is_emergency", req.IsEmergency),
	)

	studentUUID, err := uuid.Parse(studentID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidStudentID
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("apply leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qusers := s.users.WithTx(tx)

	// Locking the student row serializes the quota read against the leave
	// insert for concurrent submissions by the same requester.
	student, err := qusers.FindByIDForUpdate(ctx, studentUUID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, usererrors.ErrStudentNotFound
		}
		return LeaveResponse{}, err
	}
	if student.Role != user.RoleStudent {
		return LeaveResponse{}, usererrors.ErrStudentNotFound
	}

	now := time.Now().UTC()
	approvedThisMonth, err := qtx.CountApprovedInMonth(ctx, studentUUID.String(), now.Month(), now.Year())
	if err != nil {
		s.logger.Error("apply leave quota count failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	decision := EvaluateEligibility(Submission{
		StartDate:   startDate,
		EndDate:     endDate,
		Reason:      req.Reason,
		IsEmergency: req.IsEmergency,
	}, student.AttendancePercentage, approvedThisMonth)
	if !decision.Eligible {
		s.logger.Info("apply leave rejected",
			zap.String("student_id", studentID),
			zap.String("rejected_kind", string(decision.Kind)),
		)
		return LeaveResponse{}, rejectionError(decision.Kind)
	}

	l := &LeaveRequest{
		ID:          uuid.New(),
		StudentID:   studentUUID,
		StartDate:   startDate,
		EndDate:     endDate,
		Reason:      req.Reason,
		IsEmergency: req.IsEmergency,
		Status:      StatusPending,
		CreatedAt:   now,
	}

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("apply leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if student.StudentClass != nil {
		coordinators, err := qusers.FindCoordinatorsByClass(ctx, *student.StudentClass)
		if err != nil {
			return LeaveResponse{}, err
		}

		rollNumber := ""
		if student.RollNumber != nil {
			rollNumber = *student.RollNumber
		}
		message := fmt.Sprintf("New leave request from %s (%s) for %s to %s",
			student.Name, rollNumber, formatDate(startDate), formatDate(endDate))

		for _, coordinator := range coordinators {
			if err := s.queueNotification(ctx, tx, coordinator.ID, l.ID, message); err != nil {
				return LeaveResponse{}, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("apply leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.invalidateStatsCache(ctx, studentUUID.String())
	s.logger.Info("apply leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("student_id", studentID),
		zap.Bool("is_emergency", l.IsEmergency),
	)

	l.Student = &StudentRef{
		ID:           student.ID,
		Name:         student.Name,
		RollNumber:   student.RollNumber,
		StudentClass: student.StudentClass,
	}
	return mapToResponse(*l), nil
}

func (s *service) UpdateStatus(ctx context.Context, leaveID, reviewerID string, req UpdateStatusRequest) (LeaveResponse, error) {
	s.logger.Debug("update leave status requested",
		zap.String("leave_id", leaveID),
		zap.String("reviewer_id", reviewerID),
		zap.String("decision", req.Status),
	)

	if _, err := uuid.Parse(leaveID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	reviewerUUID, err := uuid.Parse(reviewerID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidReviewerID
	}
	if req.Status != StatusApproved && req.Status != StatusDeclined {
		return LeaveResponse{}, leaveerrors.ErrInvalidDecision
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update leave status begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qusers := s.users.WithTx(tx)

	reviewer, err := qusers.FindByID(ctx, reviewerUUID.String())
	if err != nil || reviewer.Role != user.RoleCoordinator {
		return LeaveResponse{}, usererrors.ErrCoordinatorNotFound
	}

	l, err := qtx.FindByIDForUpdate(ctx, leaveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}

	// Approving an emergency request escalates instead of finalizing; the
	// admin confirms because the attendance gate was bypassed at submission.
	targetStatus := req.Status
	if targetStatus == StatusApproved && l.IsEmergency {
		targetStatus = StatusPendingAdmin
	}

	if !isAllowedStatusTransition(l.Status, targetStatus) {
		s.logger.Warn("update leave status invalid transition",
			zap.String("leave_id", leaveID),
			zap.String("from_status", l.Status),
			zap.String("to_status", targetStatus),
		)
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	comment := strings.TrimSpace(req.Comment)
	l.Status = targetStatus
	l.ReviewerID = &reviewerUUID
	l.ReviewComment = nil
	if comment != "" {
		l.ReviewComment = &comment
	}

	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("update leave status persist failed",
			zap.String("leave_id", leaveID),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	var statusMsg string
	switch targetStatus {
	case StatusPendingAdmin:
		statusMsg = "approved by coordinator and is now awaiting admin final approval"
	case StatusApproved:
		statusMsg = "approved by " + reviewer.Name
	case StatusDeclined:
		statusMsg = "declined by " + reviewer.Name
	}
	message := fmt.Sprintf("Your leave request from %s to %s has been %s.",
		formatDate(l.StartDate), formatDate(l.EndDate), statusMsg)
	if comment != "" {
		message += " Comment: " + comment
	}

	if err := s.queueNotification(ctx, tx, l.StudentID, l.ID, message); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update leave status commit failed",
			zap.String("leave_id", leaveID),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	s.invalidateStatsCache(ctx, l.StudentID.String())
	s.logger.Info("update leave status success",
		zap.String("leave_id", leaveID),
		zap.String("status", l.Status),
	)
	return mapToResponse(*l), nil
}

func (s *service) AdminFinalize(ctx context.Context, leaveID, adminID string) (LeaveResponse, error) {
	s.logger.Debug("admin finalize requested",
		zap.String("leave_id", leaveID),
		zap.String("admin_id", adminID),
	)

	if _, err := uuid.Parse(leaveID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	adminUUID, err := uuid.Parse(adminID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidReviewerID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("admin finalize begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qusers := s.users.WithTx(tx)

	admin, err := qusers.FindByID(ctx, adminUUID.String())
	if err != nil || admin.Role != user.RoleAdmin {
		return LeaveResponse{}, usererrors.ErrAdminNotFound
	}

	l, err := qtx.FindByIDForUpdate(ctx, leaveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}

	// Only the escalation path reaches PENDING_ADMIN; both guards below
	// must fail loudly rather than silently mutate state.
	if !l.IsEmergency {
		return LeaveResponse{}, leaveerrors.ErrNotEmergencyLeave
	}
	if l.Status != StatusPendingAdmin {
		s.logger.Warn("admin finalize invalid transition",
			zap.String("leave_id", leaveID),
			zap.String("from_status", l.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	approved := true
	l.Status = StatusApproved
	l.AdminApproved = &approved
	l.ReviewerID = &adminUUID

	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("admin finalize persist failed",
			zap.String("leave_id", leaveID),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	message := fmt.Sprintf("Your emergency leave request from %s to %s has been approved by admin.",
		formatDate(l.StartDate), formatDate(l.EndDate))
	if err := s.queueNotification(ctx, tx, l.StudentID, l.ID, message); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("admin finalize commit failed",
			zap.String("leave_id", leaveID),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	s.invalidateStatsCache(ctx, l.StudentID.String())
	s.logger.Info("admin finalize success", zap.String("leave_id", leaveID))
	return mapToResponse(*l), nil
}

func (s *service) GetStudentLeaves(ctx context.Context, studentID string) ([]LeaveResponse, error) {
	if _, err := uuid.Parse(studentID); err != nil {
		return nil, leaveerrors.ErrInvalidStudentID
	}
	leaves, err := s.repo.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) GetAll(ctx context.Context, filter ListLeavesFilterRequest) ([]LeaveResponse, error) {
	var date *time.Time
	if filter.Date != "" {
		d, err := parseDate(filter.Date)
		if err != nil {
			return nil, err
		}
		date = &d
	}

	leaves, err := s.repo.FindAll(ctx, filter.Section, date)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) GetStats(ctx context.Context, studentID string) (LeaveStatsResponse, error) {
	if _, err := uuid.Parse(studentID); err != nil {
		return LeaveStatsResponse{}, leaveerrors.ErrInvalidStudentID
	}

	cacheKey := StatsCacheKeyPrefix + studentID

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var resp LeaveStatsResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		student, err := s.users.FindByID(ctx, studentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, usererrors.ErrStudentNotFound
			}
			return nil, err
		}
		if student.Role != user.RoleStudent {
			return nil, usererrors.ErrStudentNotFound
		}

		leaves, err := s.repo.FindByStudent(ctx, studentID)
		if err != nil {
			return nil, err
		}

		resp := computeStats(leaves, student.AttendancePercentage, time.Now().UTC())

		if s.rdb != nil {
			if payload, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, payload, 5*time.Minute)
			}
		}

		return resp, nil
	})
	if err != nil {
		return LeaveStatsResponse{}, err
	}

	return v.(LeaveStatsResponse), nil
}

func (s *service) GetPendingForCoordinator(ctx context.Context, coordinatorID, date string) ([]LeaveResponse, error) {
	coordinator, err := s.users.FindByID(ctx, coordinatorID)
	if err != nil || coordinator.Role != user.RoleCoordinator || coordinator.AssignedClass == nil {
		return nil, usererrors.ErrCoordinatorNotFound
	}

	var submittedOn *time.Time
	if date != "" {
		d, err := parseDate(date)
		if err != nil {
			return nil, err
		}
		submittedOn = &d
	}

	leaves, err := s.repo.FindPendingByClass(ctx, *coordinator.AssignedClass, submittedOn)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) GetStudentSummary(ctx context.Context, coordinatorID string) ([]StudentSummaryResponse, error) {
	coordinator, err := s.users.FindByID(ctx, coordinatorID)
	if err != nil || coordinator.Role != user.RoleCoordinator || coordinator.AssignedClass == nil {
		return nil, usererrors.ErrCoordinatorNotFound
	}

	leaves, err := s.repo.FindByClass(ctx, *coordinator.AssignedClass)
	if err != nil {
		return nil, err
	}

	byStudent := make(map[uuid.UUID]*StudentSummaryResponse)
	order := make([]uuid.UUID, 0)
	for _, l := range leaves {
		summary, ok := byStudent[l.StudentID]
		if !ok {
			summary = &StudentSummaryResponse{StudentID: l.StudentID.String()}
			if l.Student != nil {
				summary.StudentName = l.Student.Name
				if l.Student.RollNumber != nil {
					summary.RollNumber = *l.Student.RollNumber
				}
			}
			byStudent[l.StudentID] = summary
			order = append(order, l.StudentID)
		}

		switch l.Status {
		case StatusApproved:
			summary.Approved++
		case StatusPending, StatusPendingAdmin:
			summary.Pending++
		case StatusDeclined:
			summary.Declined++
		}
	}

	result := make([]StudentSummaryResponse, 0, len(order))
	for _, id := range order {
		result = append(result, *byStudent[id])
	}
	return result, nil
}

func (s *service) GetEmergencyPending(ctx context.Context) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindEmergencyPendingAdmin(ctx)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

// queueNotification writes exactly one notification intent to the outbox
// inside the caller's transaction, so the intent and the state change
// commit or roll back together.
func (s *service) queueNotification(ctx context.Context, tx *sql.Tx, recipientID, leaveID uuid.UUID, message string) error {
	event := events.LeaveNotificationEvent{
		NotificationID: uuid.New().String(),
		RecipientID:    recipientID.String(),
		LeaveID:        leaveID.String(),
		Message:        message,
		OccurredAt:     time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   leaveID.String(),
		EventType:     "leave.notification.queued",
		Topic:         events.LeaveNotificationTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) invalidateStatsCache(ctx context.Context, studentID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, StatsCacheKeyPrefix+studentID).Err(); err != nil {
		s.logger.Warn("invalidate stats cache failed",
			zap.String("student_id", studentID),
			zap.Error(err),
		)
	}
}

func rejectionError(kind RejectedKind) error {
	switch kind {
	case RejectedMissingFields:
		return leaveerrors.ErrMissingFields
	case RejectedInvertedRange:
		return leaveerrors.ErrInvalidDateRange
	case RejectedLowAttendance:
		return leaveerrors.ErrLowAttendance
	case RejectedMonthlyQuota:
		return leaveerrors.ErrMonthlyQuotaExceeded
	default:
		return leaveerrors.ErrMissingFields
	}
}

func computeStats(leaves []LeaveRequest, attendance *float64, now time.Time) LeaveStatsResponse {
	var stats LeaveStatsResponse
	for _, l := range leaves {
		switch l.Status {
		case StatusApproved:
			stats.TotalApproved++
			if l.StartDate.Month() == now.Month() && l.StartDate.Year() == now.Year() {
				stats.UsedThisMonth++
			}
		case StatusPending, StatusPendingAdmin:
			stats.TotalPending++
		}
	}

	stats.RemainingThisMonth = MaxApprovedPerMonth - stats.UsedThisMonth
	if stats.RemainingThisMonth < 0 {
		stats.RemainingThisMonth = 0
	}
	stats.AttendancePercentage = attendance
	return stats
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:          l.ID.String(),
		StudentID:   l.StudentID.String(),
		StartDate:   formatDate(l.StartDate),
		EndDate:     formatDate(l.EndDate),
		Reason:      l.Reason,
		IsEmergency: l.IsEmergency,
		Status:      l.Status,
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
	}
	if l.Student != nil {
		resp.StudentName = l.Student.Name
		if l.Student.RollNumber != nil {
			resp.RollNumber = *l.Student.RollNumber
		}
		if l.Student.StudentClass != nil {
			resp.StudentClass = *l.Student.StudentClass
		}
	}
	if l.ReviewerID != nil {
		v := l.ReviewerID.String()
		resp.ReviewerID = &v
	}
	resp.ReviewComment = l.ReviewComment
	resp.AdminApproved = l.AdminApproved
	return resp
}

func mapToListResponse(leaves []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}
