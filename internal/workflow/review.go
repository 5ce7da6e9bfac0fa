package workflow

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"

	"github.com/shopspring/decimal"
)

// Decision is an admin's verdict on an application.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
	DecisionHold   Decision = "hold"
)

var decisionStatus = map[Decision]models.ApplicantStatus{
	DecisionAccept: models.StatusAccepted,
	DecisionReject: models.StatusRejected,
	DecisionHold:   models.StatusOnHold,
}

// ParseDecision accepts both verbs and resulting statuses ("accepted").
func ParseDecision(s string) (Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accept", "accepted", "approve":
		return DecisionAccept, true
	case "reject", "rejected":
		return DecisionReject, true
	case "hold", "on_hold":
		return DecisionHold, true
	}
	return "", false
}

// VerifyDecision is an admin's verdict on a manual transfer.
type VerifyDecision string

const (
	VerifyApprove VerifyDecision = "approve"
	VerifyReject  VerifyDecision = "reject"
)

func ParseVerifyDecision(s string) (VerifyDecision, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "accept", "verified", "verify":
		return VerifyApprove, true
	case "reject", "rejected":
		return VerifyReject, true
	}
	return "", false
}

func appendNote(a *models.Applicant, text string, actor models.Identity, now time.Time) {
	a.Notes = append(a.Notes, models.AdminNote{
		ApplicantID: a.ID,
		Note:        text,
		AdminName:   actor.Name,
		CreatedAt:   now,
	})
}

// AdminReview applies an admin decision and appends a note to the log.
func (e *Engine) AdminReview(a models.Applicant, actor models.Identity, d Decision, note string, now time.Time) (models.Applicant, error) {
	if !actor.IsAdmin() {
		return a, apperrors.ErrAdminRequired
	}
	if IsTerminal(a) {
		return a, apperrors.ErrTerminalState
	}
	if a.IsDraft {
		return a, apperrors.ErrNotSubmitted
	}
	status, ok := decisionStatus[d]
	if !ok {
		return a, apperrors.Validation(apperrors.FieldError{Field: "status", Message: "must be accept, reject or hold"})
	}

	next := clone(a)
	reviewedAt := now
	next.Status = status
	next.ReviewedAt = &reviewedAt

	text := strings.TrimSpace(note)
	if text == "" {
		text = fmt.Sprintf("Status changed to %s", status)
	}
	appendNote(&next, text, actor, now)
	return next, nil
}

// AdminVerifyPayment settles a manual transfer. A rejection of the transfer
// the applicant is waiting on returns it to pending so a new payment can be
// made; an under_review status goes back to submitted.
func (e *Engine) AdminVerifyPayment(a models.Applicant, p *models.Payment, actor models.Identity, d VerifyDecision, note string, now time.Time) (models.Applicant, models.Payment, error) {
	if !actor.IsAdmin() {
		return a, models.Payment{}, apperrors.ErrAdminRequired
	}
	if p == nil {
		return a, models.Payment{}, apperrors.ErrPaymentNotFound
	}
	pay := *p
	if pay.ApplicantID != a.ID {
		return a, pay, apperrors.ErrPaymentMismatch
	}
	if pay.Status != models.PaymentStatusUnderVerification {
		return a, pay, apperrors.ErrPaymentState
	}
	if IsTerminal(a) {
		return a, pay, apperrors.ErrTerminalState
	}

	next := clone(a)
	text := strings.TrimSpace(note)
	switch d {
	case VerifyApprove:
		verifiedAt := now
		pay.Status = models.PaymentStatusVerified
		pay.VerifiedAt = &verifiedAt
		next.PaymentStatus = models.PaymentVerified
		text = joinNote("Payment verified", text)
	case VerifyReject:
		pay.Status = models.PaymentStatusRejected
		// An applicant already settled by another payment keeps that settlement.
		if next.PaymentStatus == models.PaymentUnderVerification {
			next.PaymentStatus = models.PaymentPending
			next.AmountPaid = decimal.Zero
			if next.Status == models.StatusUnderReview {
				next.Status = models.StatusSubmitted
			}
		}
		text = joinNote("Payment rejected", text)
	default:
		return a, *p, apperrors.Validation(apperrors.FieldError{Field: "decision", Message: "must be approve or reject"})
	}

	pay.VerifiedBy = actor.Name
	pay.ReviewNote = strings.TrimSpace(note)
	appendNote(&next, text, actor, now)
	return next, pay, nil
}

func joinNote(prefix, note string) string {
	if note == "" {
		return prefix
	}
	return prefix + ": " + note
}
