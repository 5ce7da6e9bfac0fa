package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
)

var specialChars = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>_\-+=\[\]\\/;'~` + "`" + `]`)

// HasSpecialChar checks if a string contains at least one special character
func HasSpecialChar(s string) bool {
	return specialChars.MatchString(s)
}

// AdminPassword enforces the admin password policy.
func AdminPassword(field, password string) error {
	var problems []apperrors.FieldError
	if n := utf8.RuneCountInString(password); n < MinAdminPasswordLength || n > MaxPasswordLength {
		problems = append(problems, apperrors.FieldError{
			Field:   field,
			Message: fmt.Sprintf("must be between %d and %d characters", MinAdminPasswordLength, MaxPasswordLength),
		})
	}
	if !HasSpecialChar(password) {
		problems = append(problems, apperrors.FieldError{Field: field, Message: "must contain a special character"})
	}
	if len(problems) > 0 {
		return apperrors.Validation(problems...)
	}
	return nil
}
