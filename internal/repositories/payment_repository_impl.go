package repositories

import (
	"context"
	"strings"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *models.Payment) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error, nil)
}

func (r *paymentRepository) FindByReference(ctx context.Context, ref string) (*models.Payment, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrPaymentNotFound
	}
	var p models.Payment
	err := r.db.WithContext(ctx).
		Where("order_reference = ? OR transaction_reference = ? OR transfer_reference = ?", ref, ref, ref).
		Order("id DESC").
		First(&p).Error
	if err != nil {
		return nil, translate(err, ErrPaymentNotFound)
	}
	return &p, nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err, ErrPaymentNotFound)
	}
	return &p, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *models.Payment, from models.PaymentStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", p.ID, from).
		Updates(map[string]interface{}{
			"status":                p.Status,
			"order_reference":       p.OrderReference,
			"transaction_reference": p.TransactionReference,
			"signature":             p.Signature,
			"paid_at":               p.PaidAt,
			"verified_at":           p.VerifiedAt,
			"verified_by":           p.VerifiedBy,
			"review_note":           p.ReviewNote,
		})
	if result.Error != nil {
		return translate(result.Error, ErrPaymentNotFound)
	}
	if result.RowsAffected == 0 {
		return ErrPaymentStateChanged
	}
	return nil
}

func (r *paymentRepository) ListByApplicant(ctx context.Context, applicantID uint) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).Where("applicant_id = ?", applicantID).Order("created_at DESC").Find(&rows).Error
	return rows, translate(err, nil)
}

func (r *paymentRepository) ListByStatus(ctx context.Context, status models.PaymentStatus) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("created_at ASC").Find(&rows).Error
	return rows, translate(err, nil)
}

func (r *paymentRepository) SumRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Select("SUM(amount)").
		Where("status IN ?", []models.PaymentStatus{models.PaymentStatusPaid, models.PaymentStatusVerified}).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, translate(err, nil)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
