package auth

import (
	"errors"
	"fmt"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked")
	ErrTokenRevoked       = errors.New("token has been revoked")

	ErrEmailTaken   = apperrors.Conflict("EMAIL_TAKEN", "an account with this email already exists")
	ErrAccessDenied = apperrors.Unauthorized("ACCESS_DENIED", "admin privileges required")
)

// CredentialsError is a failed password check. Remaining is the number of
// attempts left before the account locks, or zero when not tracked.
type CredentialsError struct {
	Remaining int
}

func (e *CredentialsError) Error() string {
	if e.Remaining > 0 && e.Remaining <= 3 {
		return fmt.Sprintf("invalid credentials, %d attempts remaining", e.Remaining)
	}
	return ErrInvalidCredentials.Error()
}

func (e *CredentialsError) Is(target error) bool { return target == ErrInvalidCredentials }

// LockedError reports how long an admin account stays locked.
type LockedError struct {
	Minutes int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account is locked, try again in %d minutes", e.Minutes)
}

func (e *LockedError) Is(target error) bool { return target == ErrAccountLocked }
