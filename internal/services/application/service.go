package application

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
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/workflow"

	"go.uber.org/zap"
)

// submitAttempts bounds retries when a concurrent submit takes the same id.
const submitAttempts = 3

type Service interface {
	CheckStatus(ctx context.Context, id models.Identity) (workflow.StepView, *models.Applicant, error)
	LoadDraft(ctx context.Context, id models.Identity) (*models.Applicant, error)
	SaveDraft(ctx context.Context, id models.Identity, in FormInput) (*models.Applicant, error)
	ClearDraft(ctx context.Context, id models.Identity) (int, error)
	Submit(ctx context.Context, id models.Identity, in FormInput) (*models.Applicant, error)
	Status(ctx context.Context, id models.Identity) (*models.Applicant, []models.Payment, error)
	Success(ctx context.Context, applicationID string) (*SuccessView, error)
}

// Files are the validated document uploads of one form post.
type Files struct {
	Photo       *storage.File
	IDProof     *storage.File
	Certificate *storage.File
}

// FormInput is one save or submit of the application form. Step is the
// step to resume at; zero keeps the current one.
type FormInput struct {
	Fields workflow.Fields
	Step   int
	Files  Files
}

// SuccessView is the public completion page payload.
type SuccessView struct {
	ApplicationID string            `json:"applicationId"`
	FullName      string            `json:"fullName"`
	CourseName    string            `json:"courseName,omitempty"`
	View          workflow.StepView `json:"progress"`
}

type service struct {
	engine     *workflow.Engine
	applicants repositories.ApplicantRepository
	payments   repositories.PaymentRepository
	students   repositories.StudentRepository
	storage    storage.Storage
	locker     cache.Locker
	log        *zap.Logger
	metrics    metrics.Collector
	now        func() time.Time
}

func NewService(
	engine *workflow.Engine,
	applicants repositories.ApplicantRepository,
	payments repositories.PaymentRepository,
	students repositories.StudentRepository,
	store storage.Storage,
	locker cache.Locker,
	log *zap.Logger,
	mc metrics.Collector,
) Service {
	if mc == nil {
		mc = metrics.NoopCollector{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		engine:     engine,
		applicants: applicants,
		payments:   payments,
		students:   students,
		storage:    store,
		locker:     locker,
		log:        log,
		metrics:    mc,
		now:        time.Now,
	}
}

func (s *service) CheckStatus(ctx context.Context, id models.Identity) (workflow.StepView, *models.Applicant, error) {
	a, err := s.applicants.LatestSubmitted(ctx, id.Email)
	if errors.Is(err, repositories.ErrApplicantNotFound) {
		a, err = s.applicants.LatestDraft(ctx, id.Email)
	}
	if errors.Is(err, repositories.ErrApplicantNotFound) {
		return workflow.Project(nil), nil, nil
	}
	if err != nil {
		return workflow.StepView{}, nil, fmt.Errorf("failed to load application: %w", err)
	}
	return workflow.Project(a), a, nil
}

func (s *service) LoadDraft(ctx context.Context, id models.Identity) (*models.Applicant, error) {
	a, err := s.applicants.LatestDraft(ctx, id.Email)
	if err != nil {
		return nil, services.TranslateRepoError(err)
	}
	return a, nil
}

// newDraft seeds an unsaved draft from the student's account.
func (s *service) newDraft(ctx context.Context, id models.Identity) (models.Applicant, error) {
	name, phone := id.Name, ""
	if s.students != nil {
		student, err := s.students.GetByID(ctx, id.ID)
		if err != nil && !errors.Is(err, repositories.ErrStudentNotFound) {
			return models.Applicant{}, fmt.Errorf("failed to load student: %w", err)
		}
		if student != nil {
			name, phone = student.Name, student.Phone
		}
	}
	return workflow.NewDraft(id.Email, name, phone), nil
}

func (s *service) currentDraft(ctx context.Context, id models.Identity) (models.Applicant, error) {
	a, err := s.applicants.LatestDraft(ctx, id.Email)
	switch {
	case err == nil:
		return *a, nil
	case errors.Is(err, repositories.ErrApplicantNotFound):
		return s.newDraft(ctx, id)
	default:
		return models.Applicant{}, fmt.Errorf("failed to load draft: %w", err)
	}
}

func (s *service) storeFiles(ctx context.Context, up *services.Uploads, files Files) (workflow.Documents, error) {
	var docs workflow.Documents
	var err error
	if docs.Photo, err = up.Put(ctx, files.Photo); err != nil {
		return docs, err
	}
	if docs.IDProof, err = up.Put(ctx, files.IDProof); err != nil {
		return docs, err
	}
	if docs.Certificate, err = up.Put(ctx, files.Certificate); err != nil {
		return docs, err
	}
	return docs, nil
}

// replaced lists stored documents of before that after no longer references.
func replaced(before, after models.Applicant) []string {
	var out []string
	for _, pair := range [][2]string{
		{before.PhotoRef, after.PhotoRef},
		{before.IDProofRef, after.IDProofRef},
		{before.CertificateRef, after.CertificateRef},
	} {
		if pair[0] != "" && pair[0] != pair[1] {
			out = append(out, pair[0])
		}
	}
	return out
}

func (s *service) SaveDraft(ctx context.Context, id models.Identity, in FormInput) (result *models.Applicant, err error) {
	defer func() { s.metrics.RecordTransition("save_draft", metrics.Result(err)) }()

	release, err := s.locker.Acquire(ctx, services.ApplicantLockKey(id.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to lock application: %w", err)
	}
	defer release()

	draft, err := s.currentDraft(ctx, id)
	if err != nil {
		return nil, err
	}

	up := services.NewUploads(s.storage, s.metrics)
	docs, err := s.storeFiles(ctx, up, in.Files)
	if err != nil {
		up.Discard(ctx, s.log)
		return nil, fmt.Errorf("failed to store documents: %w", err)
	}

	step := in.Step
	if step == 0 {
		step = draft.CurrentStep
	}
	next, err := s.engine.SaveDraft(draft, in.Fields, docs, step)
	if err != nil {
		up.Discard(ctx, s.log)
		return nil, err
	}
	if err := s.applicants.Save(ctx, &next); err != nil {
		up.Discard(ctx, s.log)
		return nil, services.TranslateRepoError(err)
	}

	services.RemoveFiles(ctx, s.storage, s.log, replaced(draft, next)...)
	s.log.Debug("draft saved", zap.Uint("applicant_id", next.ID), zap.Int("step", next.CurrentStep))
	return &next, nil
}

func (s *service) ClearDraft(ctx context.Context, id models.Identity) (int, error) {
	release, err := s.locker.Acquire(ctx, services.ApplicantLockKey(id.Email))
	if err != nil {
		return 0, fmt.Errorf("failed to lock application: %w", err)
	}
	defer release()

	drafts, err := s.applicants.DeleteDrafts(ctx, id.Email)
	if err != nil {
		return 0, fmt.Errorf("failed to clear drafts: %w", err)
	}
	for _, d := range drafts {
		services.RemoveFiles(ctx, s.storage, s.log, d.DocumentRefs()...)
	}
	return len(drafts), nil
}

func (s *service) Submit(ctx context.Context, id models.Identity, in FormInput) (result *models.Applicant, err error) {
	defer func() { s.metrics.RecordTransition("submit", metrics.Result(err)) }()

	release, err := s.locker.Acquire(ctx, services.ApplicantLockKey(id.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to lock application: %w", err)
	}
	defer release()

	if _, err := s.applicants.FindActive(ctx, id.Email); err == nil {
		return nil, apperrors.ErrActiveApplication
	} else if !errors.Is(err, repositories.ErrApplicantNotFound) {
		return nil, fmt.Errorf("failed to check existing applications: %w", err)
	}

	draft, err := s.currentDraft(ctx, id)
	if err != nil {
		return nil, err
	}

	up := services.NewUploads(s.storage, s.metrics)
	docs, err := s.storeFiles(ctx, up, in.Files)
	if err != nil {
		up.Discard(ctx, s.log)
		return nil, fmt.Errorf("failed to store documents: %w", err)
	}

	next, err := s.submit(ctx, draft, in.Fields, docs)
	if err != nil {
		up.Discard(ctx, s.log)
		return nil, err
	}

	services.RemoveFiles(ctx, s.storage, s.log, replaced(draft, *next)...)
	if leftovers, err := s.applicants.DeleteDrafts(ctx, id.Email); err != nil {
		s.log.Warn("failed to remove leftover drafts", zap.String("email", id.Email), zap.Error(err))
	} else {
		for _, d := range leftovers {
			services.RemoveFiles(ctx, s.storage, s.log, d.DocumentRefs()...)
		}
	}

	s.log.Info("application submitted",
		zap.Uint("applicant_id", next.ID),
		zap.String("application_id", next.AppID()))
	return next, nil
}

// submit assigns the next application id and persists, retrying when a
// concurrent submit already took the id.
func (s *service) submit(ctx context.Context, draft models.Applicant, fields workflow.Fields, docs workflow.Documents) (*models.Applicant, error) {
	for attempt := 0; attempt < submitAttempts; attempt++ {
		assigned, err := s.applicants.CountAssignedIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count applications: %w", err)
		}
		next, err := s.engine.SubmitApplication(draft, fields, docs, int(assigned)+1+attempt, s.now())
		if err != nil {
			return nil, err
		}
		err = s.applicants.Save(ctx, &next)
		if errors.Is(err, repositories.ErrDuplicateApplicationID) {
			s.log.Warn("application id taken, retrying",
				zap.String("application_id", next.AppID()), zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, services.TranslateRepoError(err)
		}
		return &next, nil
	}
	return nil, apperrors.Conflict("APPLICATION_ID_EXHAUSTED", "could not assign an application id, please retry")
}

func (s *service) Status(ctx context.Context, id models.Identity) (*models.Applicant, []models.Payment, error) {
	a, err := s.applicants.LatestSubmitted(ctx, id.Email)
	if err != nil {
		return nil, nil, services.TranslateRepoError(err)
	}
	payments, err := s.payments.ListByApplicant(ctx, a.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load payments: %w", err)
	}
	return a, payments, nil
}

func (s *service) Success(ctx context.Context, applicationID string) (*SuccessView, error) {
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return nil, apperrors.ErrApplicantNotFound
	}
	a, err := s.applicants.FindByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, services.TranslateRepoError(err)
	}
	return &SuccessView{
		ApplicationID: a.AppID(),
		FullName:      a.FullName,
		CourseName:    a.CourseName,
		View:          workflow.Project(a),
	}, nil
}
