package usererrors

import (
	"net/http"

	"github.com/Satyam0004/leave/internal/shared/apperror"
)

var (
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrStudentNotFound = apperror.New(
		apperror.CodeNotFound,
		"student not found",
		http.StatusNotFound,
	)
	ErrCoordinatorNotFound = apperror.New(
		apperror.CodeNotFound,
		"coordinator not found",
		http.StatusNotFound,
	)
	ErrAdminNotFound = apperror.New(
		apperror.CodeNotFound,
		"admin not found",
		http.StatusNotFound,
	)
)
