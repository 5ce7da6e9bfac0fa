package repositories

import (
	"context"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"

	"github.com/shopspring/decimal"
)

// PaymentRepository is the append-style payment ledger.
type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error

	// FindByReference looks a payment up by gateway order, gateway
	// transaction or bank transfer reference.
	FindByReference(ctx context.Context, ref string) (*models.Payment, error)

	FindByID(ctx context.Context, id uint) (*models.Payment, error)

	// Update writes p only if its stored status still equals from, which
	// keeps status changes forward-only under concurrency.
	Update(ctx context.Context, p *models.Payment, from models.PaymentStatus) error

	ListByApplicant(ctx context.Context, applicantID uint) ([]models.Payment, error)
	ListByStatus(ctx context.Context, status models.PaymentStatus) ([]models.Payment, error)

	// SumRevenue totals paid and verified payments.
	SumRevenue(ctx context.Context) (decimal.Decimal, error)
}
