package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/gateway"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/metrics"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories/cache"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/storage"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/validation"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/workflow"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Options struct {
	Fee      decimal.Decimal
	Currency string
}

type service struct {
	engine     *workflow.Engine
	store      repositories.Transactor
	applicants repositories.ApplicantRepository
	payments   repositories.PaymentRepository
	gateway    gateway.Gateway
	storage    storage.Storage
	locker     cache.Locker
	log        *zap.Logger
	metrics    metrics.Collector
	opts       Options
	now        func() time.Time
}

// NewService builds the payment service. gw may be nil when no gateway is
// configured.
func NewService(
	engine *workflow.Engine,
	store repositories.Transactor,
	applicants repositories.ApplicantRepository,
	payments repositories.PaymentRepository,
	gw gateway.Gateway,
	files storage.Storage,
	locker cache.Locker,
	log *zap.Logger,
	mc metrics.Collector,
	opts Options,
) Service {
	if mc == nil {
		mc = metrics.NoopCollector{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		engine:     engine,
		store:      store,
		applicants: applicants,
		payments:   payments,
		gateway:    gw,
		storage:    files,
		locker:     locker,
		log:        log,
		metrics:    mc,
		opts:       opts,
		now:        time.Now,
	}
}

// owned resolves the applicant a student is paying for. An empty
// applicationID means the student's latest submitted application.
func (s *service) owned(ctx context.Context, id models.Identity, applicationID string) (*models.Applicant, error) {
	var (
		a   *models.Applicant
		err error
	)
	if applicationID = strings.TrimSpace(applicationID); applicationID == "" {
		a, err = s.applicants.LatestSubmitted(ctx, id.Email)
	} else {
		a, err = s.applicants.FindByApplicationID(ctx, applicationID)
	}
	if err != nil {
		return nil, services.TranslateRepoError(err)
	}
	if a.Email != models.NormalizeEmail(id.Email) {
		return nil, apperrors.ErrNotOwner
	}
	return a, nil
}

// lock takes the applicant lock and re-reads the applicant under it.
func (s *service) lock(ctx context.Context, a *models.Applicant) (*models.Applicant, func(), error) {
	release, err := s.locker.Acquire(ctx, services.ApplicantLockKey(a.Email))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock application: %w", err)
	}
	fresh, err := s.applicants.FindByID(ctx, a.ID)
	if err != nil {
		release()
		return nil, nil, services.TranslateRepoError(err)
	}
	return fresh, release, nil
}

func (s *service) CreateGatewayOrder(ctx context.Context, id models.Identity, applicationID string) (view *OrderView, err error) {
	defer func() { s.metrics.RecordTransition("initiate_gateway_payment", metrics.Result(err)) }()

	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}
	a, err := s.owned(ctx, id, applicationID)
	if err != nil {
		return nil, err
	}
	a, release, err := s.lock(ctx, a)
	if err != nil {
		return nil, err
	}
	defer release()

	pay, err := s.engine.InitiateGatewayPayment(*a, s.opts.Fee, s.opts.Currency)
	if err != nil {
		return nil, err
	}
	order, err := s.gateway.CreateOrder(ctx, pay.Amount, pay.Currency, map[string]string{
		"applicationId": a.AppID(),
		"applicantId":   strconv.FormatUint(uint64(a.ID), 10),
		"email":         a.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}
	pay, err = s.engine.AttachGatewayOrder(pay, order.Reference)
	if err != nil {
		return nil, err
	}
	if err := s.payments.Create(ctx, &pay); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	s.metrics.RecordPayment(string(pay.Method), string(pay.Status))
	s.log.Info("gateway order created",
		zap.Uint("applicant_id", a.ID),
		zap.Uint("payment_id", pay.ID),
		zap.String("order_id", order.Reference))

	return &OrderView{
		OrderID:       order.Reference,
		ClientSecret:  order.ClientSecret,
		Amount:        gateway.MinorUnits(pay.Amount),
		Currency:      pay.Currency,
		PublicKey:     s.gateway.PublicKey(),
		ApplicationID: a.AppID(),
	}, nil
}

func (s *service) ConfirmGatewayPayment(ctx context.Context, id models.Identity, in ConfirmInput) (applicant *models.Applicant, payment *models.Payment, err error) {
	defer func() { s.metrics.RecordTransition("confirm_gateway_payment", metrics.Result(err)) }()

	if s.gateway == nil {
		return nil, nil, ErrGatewayUnavailable
	}
	if err := validation.Struct(in); err != nil {
		return nil, nil, err
	}
	valid := s.gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature)

	p, err := s.payments.FindByReference(ctx, in.OrderID)
	if err != nil {
		return nil, nil, services.TranslateRepoError(err)
	}
	a, err := s.applicants.FindByID(ctx, p.ApplicantID)
	if err != nil {
		return nil, nil, services.TranslateRepoError(err)
	}
	if a.Email != models.NormalizeEmail(id.Email) {
		return nil, nil, apperrors.ErrNotOwner
	}

	a, release, err := s.lock(ctx, a)
	if err != nil {
		return nil, nil, err
	}
	defer release()
	if p, err = s.payments.FindByID(ctx, p.ID); err != nil {
		return nil, nil, services.TranslateRepoError(err)
	}

	next, pay, err := s.engine.ConfirmGatewayPayment(*a, p, workflow.GatewayConfirmation{
		PaymentRef:     in.PaymentID,
		Signature:      in.Signature,
		SignatureValid: valid,
	}, s.now())
	if err != nil {
		return nil, nil, err
	}
	if pay.Status == p.Status {
		// Already settled by an earlier confirmation.
		return a, p, nil
	}

	err = s.store.Transaction(ctx, func(applicants repositories.ApplicantRepository, payments repositories.PaymentRepository) error {
		if err := payments.Update(ctx, &pay, p.Status); err != nil {
			return err
		}
		if pay.Status != models.PaymentStatusPaid {
			return nil
		}
		return applicants.Save(ctx, &next)
	})
	if err != nil {
		return nil, nil, services.TranslateRepoError(err)
	}
	s.metrics.RecordPayment(string(pay.Method), string(pay.Status))

	if pay.Status == models.PaymentStatusFailed {
		s.log.Warn("gateway signature rejected",
			zap.Uint("applicant_id", a.ID),
			zap.Uint("payment_id", pay.ID))
		return nil, nil, ErrSignatureInvalid
	}
	s.log.Info("gateway payment confirmed",
		zap.Uint("applicant_id", next.ID),
		zap.Uint("payment_id", pay.ID))
	return &next, &pay, nil
}

func (s *service) SubmitManualTransfer(ctx context.Context, id models.Identity, in TransferInput) (applicant *models.Applicant, payment *models.Payment, err error) {
	defer func() { s.metrics.RecordTransition("submit_manual_transfer", metrics.Result(err)) }()

	a, err := s.owned(ctx, id, in.ApplicationID)
	if err != nil {
		return nil, nil, err
	}
	a, release, err := s.lock(ctx, a)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	up := services.NewUploads(s.storage, s.metrics)
	proofRef, err := up.Put(ctx, in.Proof)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to store payment proof: %w", err)
	}

	next, pay, err := s.engine.SubmitManualTransfer(*a, workflow.ManualTransfer{
		Reference: in.Reference,
		ProofRef:  proofRef,
		Amount:    s.opts.Fee,
		Currency:  s.opts.Currency,
	})
	if err != nil {
		up.Discard(ctx, s.log)
		return nil, nil, err
	}

	err = s.store.Transaction(ctx, func(applicants repositories.ApplicantRepository, payments repositories.PaymentRepository) error {
		if err := payments.Create(ctx, &pay); err != nil {
			return err
		}
		return applicants.Save(ctx, &next)
	})
	if err != nil {
		up.Discard(ctx, s.log)
		return nil, nil, services.TranslateRepoError(err)
	}
	s.metrics.RecordPayment(string(pay.Method), string(pay.Status))
	s.log.Info("bank transfer submitted",
		zap.Uint("applicant_id", next.ID),
		zap.Uint("payment_id", pay.ID))
	return &next, &pay, nil
}

func (s *service) History(ctx context.Context, id models.Identity) ([]models.Payment, error) {
	a, err := s.applicants.LatestSubmitted(ctx, id.Email)
	if errors.Is(err, repositories.ErrApplicantNotFound) {
		return []models.Payment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	payments, err := s.payments.ListByApplicant(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	return payments, nil
}
