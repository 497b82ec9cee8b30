package leaveerrors

import (
	"net/http"

	"github.com/Satyam0004/leave/internal/shared/apperror"
)

var (
	ErrInvalidStudentID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid student id",
		http.StatusBadRequest,
	)
	ErrInvalidReviewerID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid reviewer id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrMissingFields = apperror.New(
		apperror.CodeInvalidInput,
		"start date, end date and reason are required",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"end_date cannot be before start_date",
		http.StatusBadRequest,
	)
	ErrInvalidDecision = apperror.New(
		apperror.CodeInvalidInput,
		"status must be APPROVED or DECLINED",
		http.StatusBadRequest,
	)

	// Eligibility rejections are expected business outcomes, distinct from
	// validation failures by code.
	ErrLowAttendance = apperror.New(
		apperror.CodeEligibilityRejected,
		"attendance is below 75%, you may apply for emergency leave instead",
		http.StatusUnprocessableEntity,
	)
	ErrMonthlyQuotaExceeded = apperror.New(
		apperror.CodeEligibilityRejected,
		"you have already taken 4 approved leaves this month",
		http.StatusUnprocessableEntity,
	)

	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"leave request is not in a state that allows this action",
		http.StatusBadRequest,
	)
	ErrNotEmergencyLeave = apperror.New(
		apperror.CodeInvalidState,
		"this is not an emergency leave request",
		http.StatusBadRequest,
	)
)
