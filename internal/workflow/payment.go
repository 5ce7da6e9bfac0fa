package workflow

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"

	"github.com/shopspring/decimal"
)

// canCollect checks the shared preconditions for starting any payment.
func canCollect(a models.Applicant) error {
	switch {
	case a.IsDraft:
		return apperrors.ErrNotSubmitted
	case IsTerminal(a):
		return apperrors.ErrTerminalState
	case a.PaymentStatus.Settled():
		return apperrors.ErrAlreadyPaid
	}
	return nil
}

func validAmount(amount decimal.Decimal, currency string) []apperrors.FieldError {
	var errs []apperrors.FieldError
	if !amount.IsPositive() {
		errs = append(errs, apperrors.FieldError{Field: "amount", Message: "must be greater than zero"})
	}
	if len(currency) != 3 {
		errs = append(errs, apperrors.FieldError{Field: "currency", Message: "must be a 3-letter code"})
	}
	return errs
}

// InitiateGatewayPayment returns the payment record to create before asking
// the gateway for an order. The applicant is not modified.
func (e *Engine) InitiateGatewayPayment(a models.Applicant, amount decimal.Decimal, currency string) (models.Payment, error) {
	if err := canCollect(a); err != nil {
		return models.Payment{}, err
	}
	if errs := validAmount(amount, currency); len(errs) > 0 {
		return models.Payment{}, apperrors.Validation(errs...)
	}
	return models.Payment{
		ApplicantID: a.ID,
		Method:      models.MethodGateway,
		Amount:      amount,
		Currency:    strings.ToUpper(currency),
		Status:      models.PaymentStatusCreated,
	}, nil
}

// AttachGatewayOrder records the gateway order reference on a created payment.
func (e *Engine) AttachGatewayOrder(p models.Payment, orderRef string) (models.Payment, error) {
	if p.Method != models.MethodGateway || p.Status != models.PaymentStatusCreated {
		return p, apperrors.ErrPaymentState
	}
	if strings.TrimSpace(orderRef) == "" {
		return p, apperrors.Validation(apperrors.FieldError{Field: "orderId", Message: "is required"})
	}
	p.OrderReference = orderRef
	p.Status = models.PaymentStatusPending
	return p, nil
}

// GatewayConfirmation is the outcome reported by the gateway callback.
type GatewayConfirmation struct {
	PaymentRef     string
	Signature      string
	SignatureValid bool
}

// ConfirmGatewayPayment settles a gateway payment. An invalid signature marks
// the payment failed and leaves the applicant untouched; callers inspect the
// returned payment status. Confirming an already paid payment is a no-op.
func (e *Engine) ConfirmGatewayPayment(a models.Applicant, p *models.Payment, c GatewayConfirmation, now time.Time) (models.Applicant, models.Payment, error) {
	if p == nil {
		return a, models.Payment{}, apperrors.ErrPaymentNotFound
	}
	pay := *p
	if pay.ApplicantID != a.ID {
		return a, pay, apperrors.ErrPaymentMismatch
	}
	if pay.Method != models.MethodGateway {
		return a, pay, apperrors.ErrPaymentState
	}
	if pay.Status == models.PaymentStatusPaid {
		return a, pay, nil
	}
	if pay.Status != models.PaymentStatusCreated && pay.Status != models.PaymentStatusPending {
		return a, pay, apperrors.ErrPaymentState
	}
	if IsTerminal(a) {
		return a, pay, apperrors.ErrTerminalState
	}

	pay.TransactionReference = c.PaymentRef
	pay.Signature = c.Signature
	if !c.SignatureValid {
		pay.Status = models.PaymentStatusFailed
		return a, pay, nil
	}

	paidAt := now
	pay.Status = models.PaymentStatusPaid
	pay.PaidAt = &paidAt

	next := clone(a)
	next.PaymentStatus = models.PaymentPaid
	next.Status = models.StatusUnderReview
	next.PaymentMethod = models.MethodGateway
	next.AmountPaid = pay.Amount
	return next, pay, nil
}

// ManualTransfer is a bank transfer proven by a UTR number and optional proof.
type ManualTransfer struct {
	Reference string
	ProofRef  string
	Amount    decimal.Decimal
	Currency  string
}

// SubmitManualTransfer records a bank transfer awaiting admin verification.
func (e *Engine) SubmitManualTransfer(a models.Applicant, t ManualTransfer) (models.Applicant, models.Payment, error) {
	if err := canCollect(a); err != nil {
		return a, models.Payment{}, err
	}

	ref := strings.TrimSpace(t.Reference)
	var errs []apperrors.FieldError
	switch {
	case len(ref) < e.minRefLen:
		errs = append(errs, apperrors.FieldError{Field: "utrNumber", Message: fmt.Sprintf("must be at least %d characters", e.minRefLen)})
	case len(ref) > e.maxRefLen:
		errs = append(errs, apperrors.FieldError{Field: "utrNumber", Message: "is too long"})
	}
	errs = append(errs, validAmount(t.Amount, t.Currency)...)
	if len(errs) > 0 {
		return a, models.Payment{}, apperrors.Validation(errs...)
	}

	pay := models.Payment{
		ApplicantID:       a.ID,
		Method:            models.MethodManualTransfer,
		Amount:            t.Amount,
		Currency:          strings.ToUpper(t.Currency),
		Status:            models.PaymentStatusUnderVerification,
		TransferReference: ref,
		ProofRef:          t.ProofRef,
	}

	next := clone(a)
	next.PaymentStatus = models.PaymentUnderVerification
	next.Status = models.StatusUnderReview
	next.PaymentMethod = models.MethodManualTransfer
	next.TransferReference = ref
	next.PaymentProofRef = t.ProofRef
	next.AmountPaid = t.Amount
	return next, pay, nil
}
