package repositories

import (
	"context"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
)

// ApplicantRepository is the document store for admission attempts.
type ApplicantRepository interface {
	// Create inserts a new applicant with Version 1.
	Create(ctx context.Context, a *models.Applicant) error

	// Save writes a only if the stored version still equals a.Version, then
	// bumps a.Version. New notes (ID == 0) are inserted; stored notes are
	// never touched. Returns ErrVersionConflict when the row moved on.
	Save(ctx context.Context, a *models.Applicant) error

	FindByID(ctx context.Context, id uint) (*models.Applicant, error)
	FindByApplicationID(ctx context.Context, applicationID string) (*models.Applicant, error)

	// LatestDraft returns the most recently updated draft for an email.
	LatestDraft(ctx context.Context, email string) (*models.Applicant, error)

	// LatestSubmitted returns the most recent non-draft applicant for an email.
	LatestSubmitted(ctx context.Context, email string) (*models.Applicant, error)

	// FindActive returns a non-draft applicant that is paid or awaiting
	// verification, if any.
	FindActive(ctx context.Context, email string) (*models.Applicant, error)

	Query(ctx context.Context, filter models.ApplicantFilter) ([]models.Applicant, int64, error)

	// CountAssignedIDs counts every application id ever assigned, including
	// soft-deleted rows.
	CountAssignedIDs(ctx context.Context) (int64, error)

	// DeleteDrafts hard-deletes every draft for an email and returns them.
	DeleteDrafts(ctx context.Context, email string) ([]models.Applicant, error)

	// Delete soft-deletes an applicant. Its notes and payments are kept.
	Delete(ctx context.Context, id uint) error

	Stats(ctx context.Context) (models.DashboardStats, error)
}
