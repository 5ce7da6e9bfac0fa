package errors

var (
	ErrNotDraft = &DomainError{
		Kind:    KindConflict,
		Code:    "NOT_DRAFT",
		Message: "application has already been submitted",
	}
	ErrNotSubmitted = &DomainError{
		Kind:    KindConflict,
		Code:    "NOT_SUBMITTED",
		Message: "application has not been submitted",
	}
	ErrTerminalState = &DomainError{
		Kind:    KindConflict,
		Code:    "TERMINAL_STATE",
		Message: "application is closed and cannot change",
	}
	ErrAlreadyPaid = &DomainError{
		Kind:    KindConflict,
		Code:    "ALREADY_PAID",
		Message: "payment has already been completed",
	}
	ErrActiveApplication = &DomainError{
		Kind:    KindConflict,
		Code:    "ACTIVE_APPLICATION",
		Message: "an active application already exists for this email",
	}
	ErrPaymentState = &DomainError{
		Kind:    KindConflict,
		Code:    "PAYMENT_STATE",
		Message: "payment is not in a state that allows this action",
	}
	ErrPaymentMismatch = &DomainError{
		Kind:    KindConflict,
		Code:    "PAYMENT_MISMATCH",
		Message: "payment does not belong to this application",
	}
	ErrVersionConflict = &DomainError{
		Kind:    KindConflict,
		Code:    "VERSION_CONFLICT",
		Message: "application was modified concurrently, please retry",
	}
	ErrApplicantNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "APPLICANT_NOT_FOUND",
		Message: "application not found",
	}
	ErrPaymentNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "PAYMENT_NOT_FOUND",
		Message: "payment not found",
	}
	ErrAdminRequired = &DomainError{
		Kind:    KindAuthorization,
		Code:    "ADMIN_REQUIRED",
		Message: "admin privileges required",
	}
	ErrNotOwner = &DomainError{
		Kind:    KindAuthorization,
		Code:    "NOT_OWNER",
		Message: "application belongs to another account",
	}
)
