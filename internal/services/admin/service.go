package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/metrics"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories/cache"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/storage"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/validation"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/workflow"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrWrongPassword   = apperrors.Validation(apperrors.FieldError{Field: "currentPassword", Message: "is incorrect"})
	ErrEmailTaken      = apperrors.Conflict("EMAIL_TAKEN", "email is already used by another admin")
	ErrContactNotFound = apperrors.NotFound("CONTACT_NOT_FOUND", "contact not found")
	ErrAdminNotFound   = apperrors.NotFound("ADMIN_NOT_FOUND", "admin not found")
)

// IdentityInvalidator drops cached identities after account changes.
type IdentityInvalidator interface {
	InvalidateIdentity(ctx context.Context, kind models.IdentityKind, id uint) error
}

// Deps are the collaborators of the admin service.
type Deps struct {
	Engine     *workflow.Engine
	Store      repositories.Transactor
	Applicants repositories.ApplicantRepository
	Payments   repositories.PaymentRepository
	Admins     repositories.AdminRepository
	Contacts   repositories.ContactRepository
	Storage    storage.Storage
	Locker     cache.Locker
	Identities IdentityInvalidator
	Log        *zap.Logger
	Metrics    metrics.Collector
	HashCost   int
}

type service struct {
	Deps
	now func() time.Time
}

func NewService(d Deps) Service {
	if d.Metrics == nil {
		d.Metrics = metrics.NoopCollector{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.HashCost == 0 {
		d.HashCost = bcrypt.DefaultCost
	}
	return &service{Deps: d, now: time.Now}
}

func (s *service) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.Applicants.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	revenue, err := s.Payments.SumRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	stats.TotalRevenue = revenue
	return &stats, nil
}

func checkFilter(f models.ApplicantFilter) error {
	var errs []apperrors.FieldError
	if f.Status != "" && !f.Status.Valid() {
		errs = append(errs, apperrors.FieldError{Field: "status", Message: "is not a known status"})
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		errs = append(errs, apperrors.FieldError{Field: "paymentStatus", Message: "is not a known payment status"})
	}
	if len(errs) > 0 {
		return apperrors.Validation(errs...)
	}
	return nil
}

func (s *service) ListApplicants(ctx context.Context, f models.ApplicantFilter) ([]models.Applicant, int64, error) {
	if err := checkFilter(f); err != nil {
		return nil, 0, err
	}
	rows, total, err := s.Applicants.Query(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applicants: %w", err)
	}
	return rows, total, nil
}

func (s *service) GetApplicant(ctx context.Context, id uint) (*ApplicantDetail, error) {
	a, err := s.Applicants.FindByID(ctx, id)
	if err != nil {
		return nil, services.TranslateRepoError(err)
	}
	payments, err := s.Payments.ListByApplicant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	return &ApplicantDetail{Applicant: *a, Payments: payments, Progress: workflow.Project(a)}, nil
}

// locked runs fn on a fresh copy of applicant id while holding its lock.
func (s *service) locked(ctx context.Context, id uint, fn func(a *models.Applicant) error) error {
	a, err := s.Applicants.FindByID(ctx, id)
	if err != nil {
		return services.TranslateRepoError(err)
	}
	release, err := s.Locker.Acquire(ctx, services.ApplicantLockKey(a.Email))
	if err != nil {
		return fmt.Errorf("failed to lock application: %w", err)
	}
	defer release()

	if a, err = s.Applicants.FindByID(ctx, id); err != nil {
		return services.TranslateRepoError(err)
	}
	return fn(a)
}

func (s *service) Review(ctx context.Context, actor models.Identity, id uint, decision, note string) (result *models.Applicant, err error) {
	defer func() { s.Metrics.RecordTransition("admin_review", metrics.Result(err)) }()

	d, ok := workflow.ParseDecision(decision)
	if !ok {
		return nil, apperrors.Validation(apperrors.FieldError{Field: "status", Message: "must be accepted, rejected or on_hold"})
	}
	if len(note) > validation.MaxNoteLength {
		return nil, apperrors.Validation(apperrors.FieldError{Field: "note", Message: "is too long"})
	}

	err = s.locked(ctx, id, func(a *models.Applicant) error {
		next, err := s.Engine.AdminReview(*a, actor, d, note, s.now())
		if err != nil {
			return err
		}
		if err := s.Applicants.Save(ctx, &next); err != nil {
			return services.TranslateRepoError(err)
		}
		result = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("application reviewed",
		zap.Uint("applicant_id", id),
		zap.String("status", string(result.Status)),
		zap.String("admin", actor.Name))
	return result, nil
}

func (s *service) PendingVerifications(ctx context.Context) ([]PendingVerification, error) {
	payments, err := s.Payments.ListByStatus(ctx, models.PaymentStatusUnderVerification)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	out := make([]PendingVerification, 0, len(payments))
	for _, p := range payments {
		a, err := s.Applicants.FindByID(ctx, p.ApplicantID)
		if errors.Is(err, repositories.ErrApplicantNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load applicant: %w", err)
		}
		out = append(out, PendingVerification{Payment: p, Applicant: *a})
	}
	return out, nil
}

func (s *service) VerifyPayment(ctx context.Context, actor models.Identity, paymentID uint, decision, note string) (applicant *models.Applicant, payment *models.Payment, err error) {
	defer func() { s.Metrics.RecordTransition("admin_verify_payment", metrics.Result(err)) }()

	d, ok := workflow.ParseVerifyDecision(decision)
	if !ok {
		return nil, nil, apperrors.Validation(apperrors.FieldError{Field: "decision", Message: "must be approve or reject"})
	}
	p, err := s.Payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, nil, services.TranslateRepoError(err)
	}

	err = s.locked(ctx, p.ApplicantID, func(a *models.Applicant) error {
		current, err := s.Payments.FindByID(ctx, paymentID)
		if err != nil {
			return services.TranslateRepoError(err)
		}
		next, pay, err := s.Engine.AdminVerifyPayment(*a, current, actor, d, note, s.now())
		if err != nil {
			return err
		}
		err = s.Store.Transaction(ctx, func(applicants repositories.ApplicantRepository, payments repositories.PaymentRepository) error {
			if err := payments.Update(ctx, &pay, current.Status); err != nil {
				return err
			}
			return applicants.Save(ctx, &next)
		})
		if err != nil {
			return services.TranslateRepoError(err)
		}
		applicant, payment = &next, &pay
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.Metrics.RecordPayment(string(payment.Method), string(payment.Status))
	s.Log.Info("payment verified",
		zap.Uint("payment_id", payment.ID),
		zap.String("status", string(payment.Status)),
		zap.String("admin", actor.Name))
	return applicant, payment, nil
}

func (s *service) DeleteApplicant(ctx context.Context, id uint) error {
	return s.locked(ctx, id, func(a *models.Applicant) error {
		payments, err := s.Payments.ListByApplicant(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load payments: %w", err)
		}
		if err := s.Applicants.Delete(ctx, id); err != nil {
			return services.TranslateRepoError(err)
		}

		// Payment proofs stay with the retained payment rows.
		proofs := make(map[string]bool, len(payments)+1)
		proofs[a.PaymentProofRef] = true
		for _, p := range payments {
			proofs[p.ProofRef] = true
		}
		var files []string
		for _, ref := range a.DocumentRefs() {
			if !proofs[ref] {
				files = append(files, ref)
			}
		}
		services.RemoveFiles(ctx, s.Storage, s.Log, files...)
		s.Log.Info("applicant deleted", zap.Uint("applicant_id", id), zap.String("application_id", a.AppID()))
		return nil
	})
}

func (s *service) UpdateProfile(ctx context.Context, actor models.Identity, in ProfileInput) (*models.Admin, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.Admins.UpdateProfile(ctx, actor.ID, in.Name, in.Email); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	s.invalidate(ctx, actor)
	return s.Admins.GetByID(ctx, actor.ID)
}

func (s *service) ChangePassword(ctx context.Context, actor models.Identity, in PasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	admin, err := s.Admins.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return ErrAdminNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return ErrWrongPassword
	}
	if err := validation.AdminPassword("newPassword", in.NewPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.HashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.Admins.UpdatePassword(ctx, actor.ID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.invalidate(ctx, actor)
	s.Log.Info("admin password changed", zap.Uint("admin_id", actor.ID))
	return nil
}

func (s *service) invalidate(ctx context.Context, actor models.Identity) {
	if s.Identities == nil {
		return
	}
	if err := s.Identities.InvalidateIdentity(ctx, models.KindAdmin, actor.ID); err != nil {
		s.Log.Warn("failed to invalidate identity cache", zap.Uint("admin_id", actor.ID), zap.Error(err))
	}
}

func (s *service) ListContacts(ctx context.Context, status string, offset, limit int) ([]models.Contact, int64, error) {
	st := models.ContactStatus(status)
	if st != "" && !st.Valid() {
		return nil, 0, apperrors.Validation(apperrors.FieldError{Field: "status", Message: "must be new, contacted or resolved"})
	}
	return s.Contacts.List(ctx, st, offset, limit)
}

func (s *service) UpdateContactStatus(ctx context.Context, id uint, status string) error {
	st := models.ContactStatus(status)
	if !st.Valid() {
		return apperrors.Validation(apperrors.FieldError{Field: "status", Message: "must be new, contacted or resolved"})
	}
	err := s.Contacts.UpdateStatus(ctx, id, st)
	if errors.Is(err, repositories.ErrContactNotFound) {
		return ErrContactNotFound
	}
	return err
}

func (s *service) DeleteContact(ctx context.Context, id uint) error {
	err := s.Contacts.Delete(ctx, id)
	if errors.Is(err, repositories.ErrContactNotFound) {
		return ErrContactNotFound
	}
	return err
}
