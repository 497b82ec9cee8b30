package leave

import (
	"strings"
	"time"
)

const (
	// Students below this attendance percentage cannot submit a regular
	// leave request; flagging the request emergency bypasses the gate in
	// exchange for admin escalation of the approval.
	MinAttendancePercent = 75.0

	// Approved leaves whose start date falls in one calendar month.
	MaxApprovedPerMonth = 4
)

type RejectedKind string

const (
	RejectedMissingFields RejectedKind = "MISSING_FIELDS"
	RejectedInvertedRange RejectedKind = "INVERTED_RANGE"
	RejectedLowAttendance RejectedKind = "LOW_ATTENDANCE"
	RejectedMonthlyQuota  RejectedKind = "MONTHLY_QUOTA_EXCEEDED"
)

// Submission is the candidate request as seen by the eligibility gate.
type Submission struct {
	StartDate   time.Time
	EndDate     time.Time
	Reason      string
	IsEmergency bool
}

type Decision struct {
	Eligible bool
	Kind     RejectedKind
}

var accepted = Decision{Eligible: true}

func rejected(kind RejectedKind) Decision {
	return Decision{Kind: kind}
}

// EvaluateEligibility applies the submission rules in order; the first
// failure wins. attendance is nil when no attendance data exists for the
// student, which means no attendance constraint applies.
// approvedThisMonth counts the student's already-approved requests whose
// start date falls in the current wall-clock month. Pure: no side effects,
// fully determined by its arguments.
func EvaluateEligibility(sub Submission, attendance *float64, approvedThisMonth int64) Decision {
	if sub.StartDate.IsZero() || sub.EndDate.IsZero() || strings.TrimSpace(sub.Reason) == "" {
		return rejected(RejectedMissingFields)
	}

	if sub.EndDate.Before(sub.StartDate) {
		return rejected(RejectedInvertedRange)
	}

	if !sub.IsEmergency && attendance != nil && *attendance < MinAttendancePercent {
		return rejected(RejectedLowAttendance)
	}

	// The quota holds for emergency requests too.
	if approvedThisMonth >= MaxApprovedPerMonth {
		return rejected(RejectedMonthlyQuota)
	}

	return accepted
}

// isAllowedStatusTransition encodes the lifecycle graph. APPROVED and
// DECLINED are terminal; PENDING_ADMIN accepts only the admin's final
// approval.
func isAllowedStatusTransition(currentStatus, targetStatus string) bool {
	switch currentStatus {
	case StatusPending:
		return targetStatus == StatusApproved ||
			targetStatus == StatusDeclined ||
			targetStatus == StatusPendingAdmin
	case StatusPendingAdmin:
		return targetStatus == StatusApproved
	default:
		return false
	}
}
