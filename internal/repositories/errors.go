package repositories

import "errors"

var (
	ErrApplicantNotFound      = errors.New("applicant not found")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrStudentNotFound        = errors.New("student not found")
	ErrAdminNotFound          = errors.New("admin not found")
	ErrContactNotFound        = errors.New("contact not found")
	ErrEmailTaken             = errors.New("email already taken")
	ErrUsernameTaken          = errors.New("username already taken")
	ErrVersionConflict        = errors.New("record was modified concurrently")
	ErrPaymentStateChanged    = errors.New("payment status changed concurrently")
	ErrDuplicateApplicationID = errors.New("application id already assigned")
	ErrDatabaseOperation      = errors.New("database operation failed")
)
