package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type applicantRepository struct {
	db *gorm.DB
}

// NewApplicantRepository creates a new instance of ApplicantRepository
func NewApplicantRepository(db *gorm.DB) ApplicantRepository {
	return &applicantRepository{db: db}
}

func orderedNotes(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateApplicationID
	}
	return fmt.Errorf("%w: %v", ErrDatabaseOperation, err)
}

func (r *applicantRepository) Create(ctx context.Context, a *models.Applicant) error {
	a.Email = models.NormalizeEmail(a.Email)
	a.Version = 1
	return translate(r.db.WithContext(ctx).Create(a).Error, nil)
}

// columns lists every mutable field written by Save.
func columns(a *models.Applicant, version int) map[string]interface{} {
	return map[string]interface{}{
		"email":              a.Email,
		"phone":              a.Phone,
		"full_name":          a.FullName,
		"date_of_birth":      a.DateOfBirth,
		"gender":             a.Gender,
		"address":            a.Address,
		"city":               a.City,
		"state":              a.State,
		"pincode":            a.Pincode,
		"father_name":        a.FatherName,
		"mother_name":        a.MotherName,
		"category":           a.Category,
		"qualification":      a.Qualification,
		"board_university":   a.BoardUniversity,
		"passing_year":       a.PassingYear,
		"percentage":         a.Percentage,
		"program_type":       a.ProgramType,
		"course_name":        a.CourseName,
		"photo_ref":          a.PhotoRef,
		"id_proof_ref":       a.IDProofRef,
		"certificate_ref":    a.CertificateRef,
		"is_draft":           a.IsDraft,
		"current_step":       a.CurrentStep,
		"status":             a.Status,
		"payment_status":     a.PaymentStatus,
		"application_id":     a.ApplicationID,
		"payment_method":     a.PaymentMethod,
		"transfer_reference": a.TransferReference,
		"payment_proof_ref":  a.PaymentProofRef,
		"amount_paid":        a.AmountPaid,
		"submitted_at":       a.SubmittedAt,
		"reviewed_at":        a.ReviewedAt,
		"version":            version,
		"updated_at":         time.Now(),
	}
}

func (r *applicantRepository) Save(ctx context.Context, a *models.Applicant) error {
	if a.ID == 0 {
		return r.Create(ctx, a)
	}
	next := a.Version + 1
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Applicant{}).
			Where("id = ? AND version = ?", a.ID, a.Version).
			Updates(columns(a, next))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}
		for i := range a.Notes {
			if a.Notes[i].ID != 0 {
				continue
			}
			a.Notes[i].ApplicantID = a.ID
			if err := tx.Create(&a.Notes[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrVersionConflict) {
		return err
	}
	if err != nil {
		return translate(err, ErrApplicantNotFound)
	}
	a.Version = next
	return nil
}

func (r *applicantRepository) first(ctx context.Context, query *gorm.DB) (*models.Applicant, error) {
	var a models.Applicant
	err := query.WithContext(ctx).Preload("Notes", orderedNotes).First(&a).Error
	if err != nil {
		return nil, translate(err, ErrApplicantNotFound)
	}
	return &a, nil
}

func (r *applicantRepository) FindByID(ctx context.Context, id uint) (*models.Applicant, error) {
	return r.first(ctx, r.db.Where("id = ?", id))
}

func (r *applicantRepository) FindByApplicationID(ctx context.Context, applicationID string) (*models.Applicant, error) {
	return r.first(ctx, r.db.Where("application_id = ?", strings.ToUpper(strings.TrimSpace(applicationID))))
}

func (r *applicantRepository) LatestDraft(ctx context.Context, email string) (*models.Applicant, error) {
	return r.first(ctx, r.db.
		Where("email = ? AND is_draft = ?", models.NormalizeEmail(email), true).
		Order("updated_at DESC"))
}

func (r *applicantRepository) LatestSubmitted(ctx context.Context, email string) (*models.Applicant, error) {
	return r.first(ctx, r.db.
		Where("email = ? AND is_draft = ?", models.NormalizeEmail(email), false).
		Order("submitted_at DESC NULLS LAST, id DESC"))
}

func (r *applicantRepository) FindActive(ctx context.Context, email string) (*models.Applicant, error) {
	return r.first(ctx, r.db.
		Where("email = ? AND is_draft = ?", models.NormalizeEmail(email), false).
		Where("payment_status IN ?", []models.ApplicantPaymentStatus{
			models.PaymentPaid, models.PaymentVerified, models.PaymentUnderVerification,
		}).
		Order("id DESC"))
}

func (r *applicantRepository) filtered(ctx context.Context, f models.ApplicantFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Applicant{}).Where("is_draft = ?", false)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.ProgramType != "" {
		q = q.Where("program_type = ?", f.ProgramType)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("full_name ILIKE ? OR email ILIKE ? OR phone ILIKE ? OR application_id ILIKE ?", like, like, like, like)
	}
	return q
}

func (r *applicantRepository) Query(ctx context.Context, f models.ApplicantFilter) ([]models.Applicant, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, translate(err, nil)
	}

	q := r.filtered(ctx, f).Order("created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var rows []models.Applicant
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, translate(err, nil)
	}
	return rows, total, nil
}

func (r *applicantRepository) CountAssignedIDs(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Applicant{}).
		Where("application_id IS NOT NULL").Count(&n).Error
	return n, translate(err, nil)
}

func (r *applicantRepository) DeleteDrafts(ctx context.Context, email string) ([]models.Applicant, error) {
	var drafts []models.Applicant
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("email = ? AND is_draft = ?", models.NormalizeEmail(email), true).
			Find(&drafts).Error; err != nil {
			return err
		}
		if len(drafts) == 0 {
			return nil
		}
		ids := make([]uint, 0, len(drafts))
		for _, d := range drafts {
			ids = append(ids, d.ID)
		}
		if err := tx.Where("applicant_id IN ?", ids).Delete(&models.AdminNote{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("id IN ?", ids).Delete(&models.Applicant{}).Error
	})
	if err != nil {
		return nil, translate(err, nil)
	}
	return drafts, nil
}

// Delete soft-deletes the applicant. Notes and payments stay, and the row
// keeps its application id so CountAssignedIDs never shrinks.
func (r *applicantRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Applicant{}, id)
	if result.Error != nil {
		return translate(result.Error, ErrApplicantNotFound)
	}
	if result.RowsAffected == 0 {
		return ErrApplicantNotFound
	}
	return nil
}

// statusCount is one row of the status x payment status breakdown.
type statusCount struct {
	Status        models.ApplicantStatus
	PaymentStatus models.ApplicantPaymentStatus
	N             int64
}

func (r *applicantRepository) Stats(ctx context.Context) (models.DashboardStats, error) {
	var rows []statusCount
	err := r.db.WithContext(ctx).Model(&models.Applicant{}).
		Select("status, payment_status, COUNT(*) AS n").
		Where("is_draft = ?", false).
		Group("status, payment_status").
		Scan(&rows).Error
	if err != nil {
		return models.DashboardStats{}, translate(err, nil)
	}

	stats := aggregateStats(rows)
	if err := r.db.WithContext(ctx).Where("is_draft = ?", false).
		Order("created_at DESC").Limit(5).Find(&stats.RecentApplications).Error; err != nil {
		return models.DashboardStats{}, translate(err, nil)
	}
	return stats, nil
}

// StatsOf computes dashboard counts from already loaded non-draft rows.
func StatsOf(applicants []models.Applicant) models.DashboardStats {
	rows := make([]statusCount, 0, len(applicants))
	for _, a := range applicants {
		rows = append(rows, statusCount{Status: a.Status, PaymentStatus: a.PaymentStatus, N: 1})
	}
	return aggregateStats(rows)
}

func aggregateStats(rows []statusCount) models.DashboardStats {
	var s models.DashboardStats
	for _, row := range rows {
		s.TotalApplications += row.N
		switch row.PaymentStatus {
		case models.PaymentPaid, models.PaymentVerified:
			s.PaidApplications += row.N
		case models.PaymentUnderVerification:
			s.UnderVerification += row.N
		default:
			s.PendingPayments += row.N
		}
		switch row.Status {
		case models.StatusAccepted:
			s.Accepted += row.N
		case models.StatusRejected:
			s.Rejected += row.N
		case models.StatusOnHold:
			s.OnHold += row.N
		}
	}
	return s
}
