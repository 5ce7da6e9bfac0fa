package admin

import (
	"context"
	"io"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/workflow"
)

// Service defines the admin console operations
type Service interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)

	// Applicants
	ListApplicants(ctx context.Context, f models.ApplicantFilter) ([]models.Applicant, int64, error)
	GetApplicant(ctx context.Context, id uint) (*ApplicantDetail, error)
	Review(ctx context.Context, actor models.Identity, id uint, decision, note string) (*models.Applicant, error)
	ExportCSV(ctx context.Context, f models.ApplicantFilter, w io.Writer) error
	DeleteApplicant(ctx context.Context, id uint) error

	// Bank transfer verification
	PendingVerifications(ctx context.Context) ([]PendingVerification, error)
	VerifyPayment(ctx context.Context, actor models.Identity, paymentID uint, decision, note string) (*models.Applicant, *models.Payment, error)

	// Settings
	UpdateProfile(ctx context.Context, actor models.Identity, in ProfileInput) (*models.Admin, error)
	ChangePassword(ctx context.Context, actor models.Identity, in PasswordInput) error

	// Contact enquiries
	ListContacts(ctx context.Context, status string, offset, limit int) ([]models.Contact, int64, error)
	UpdateContactStatus(ctx context.Context, id uint, status string) error
	DeleteContact(ctx context.Context, id uint) error
}

type ApplicantDetail struct {
	Applicant models.Applicant  `json:"applicant"`
	Payments  []models.Payment  `json:"payments"`
	Progress  workflow.StepView `json:"progress"`
}

type PendingVerification struct {
	Payment   models.Payment   `json:"payment"`
	Applicant models.Applicant `json:"applicant"`
}

type ProfileInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
}

type PasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}
