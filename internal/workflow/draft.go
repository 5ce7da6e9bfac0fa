package workflow

import (
	"fmt"
	"time"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
)

// NewDraft returns the initial (draft, pending) applicant for an email.
func NewDraft(email, fullName, phone string) models.Applicant {
	return models.Applicant{
		Email:         models.NormalizeEmail(email),
		FullName:      fullName,
		Phone:         phone,
		IsDraft:       true,
		CurrentStep:   MinStep,
		Status:        models.StatusDraft,
		PaymentStatus: models.PaymentPending,
		Version:       1,
	}
}

// SaveDraft merges form values into a draft and moves it to step.
func (e *Engine) SaveDraft(a models.Applicant, f Fields, docs Documents, step int) (models.Applicant, error) {
	if !a.IsDraft {
		return a, apperrors.ErrNotDraft
	}
	errs := f.validate()
	if a.Email == "" {
		errs = append(errs, apperrors.FieldError{Field: "email", Message: "is required"})
	}
	if len(errs) > 0 {
		return a, apperrors.Validation(errs...)
	}

	next := clone(a)
	f.applyTo(&next)
	docs.applyTo(&next)
	next.CurrentStep = clampStep(step)
	next.Status = models.StatusDraft
	next.ApplicationID = nil
	return next, nil
}

// SubmitApplication finalizes a draft. seq is the number of application ids
// already assigned plus one; now supplies the year and submission time.
func (e *Engine) SubmitApplication(a models.Applicant, f Fields, docs Documents, seq int, now time.Time) (models.Applicant, error) {
	if !a.IsDraft {
		return a, apperrors.ErrNotDraft
	}
	if errs := f.validate(); len(errs) > 0 {
		return a, apperrors.Validation(errs...)
	}

	next := clone(a)
	f.applyTo(&next)
	docs.applyTo(&next)

	if missing := missingRequired(next); len(missing) > 0 {
		return a, apperrors.Missing(missing...)
	}
	if seq < 1 {
		return a, apperrors.Validation(apperrors.FieldError{Field: "sequence", Message: "must be positive"})
	}

	id := e.ApplicationID(now.Year(), seq)
	submittedAt := now
	next.ApplicationID = &id
	next.IsDraft = false
	next.Status = models.StatusSubmitted
	next.CurrentStep = PaymentStep
	next.SubmittedAt = &submittedAt
	return next, nil
}

// ApplicationID formats prefix + year + zero-padded sequence, e.g. SU202600042.
func (e *Engine) ApplicationID(year, seq int) string {
	return fmt.Sprintf("%s%04d%05d", e.prefix, year, seq)
}
