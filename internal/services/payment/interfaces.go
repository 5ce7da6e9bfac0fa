package payment

import (
	"context"
	"errors"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/storage"
)

var (
	// ErrGatewayUnavailable means no online gateway is configured; manual
	// transfers still work.
	ErrGatewayUnavailable = errors.New("payment gateway not configured, please use bank transfer")

	ErrSignatureInvalid = &apperrors.DomainError{
		Kind:    apperrors.KindValidation,
		Code:    "SIGNATURE_INVALID",
		Message: "payment verification failed",
	}
)

// Service defines the payment service interface
type Service interface {
	// Gateway payments
	CreateGatewayOrder(ctx context.Context, id models.Identity, applicationID string) (*OrderView, error)
	ConfirmGatewayPayment(ctx context.Context, id models.Identity, in ConfirmInput) (*models.Applicant, *models.Payment, error)

	// Bank transfers
	SubmitManualTransfer(ctx context.Context, id models.Identity, in TransferInput) (*models.Applicant, *models.Payment, error)

	History(ctx context.Context, id models.Identity) ([]models.Payment, error)
}

// OrderView is what the browser needs to open the gateway checkout.
type OrderView struct {
	OrderID       string `json:"orderId"`
	ClientSecret  string `json:"clientSecret,omitempty"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	PublicKey     string `json:"key"`
	ApplicationID string `json:"applicationId"`
}

type ConfirmInput struct {
	OrderID   string `json:"orderId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type TransferInput struct {
	ApplicationID string
	Reference     string
	Proof         *storage.File
}
