package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newMockDB opens gorm over sqlmock with the same settings InitDB uses.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)
	return db, mock
}

func submittedRow() *models.Applicant {
	id := "SU202600001"
	at := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)
	return &models.Applicant{
		Email:         "Asha@Example.com",
		FullName:      "Asha Patel",
		IsDraft:       false,
		CurrentStep:   5,
		Status:        models.StatusSubmitted,
		PaymentStatus: models.PaymentPending,
		ApplicationID: &id,
		SubmittedAt:   &at,
	}
}

func TestApplicantRepository_CreateSubmitted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicantRepository(db)
	a := submittedRow()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "applicants" .*"is_draft"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, uint(1), a.ID)
	assert.False(t, a.IsDraft, "a submitted row is never stored as a draft")
	assert.Equal(t, "SU202600001", a.AppID())
	assert.Equal(t, "asha@example.com", a.Email)
	assert.Equal(t, 1, a.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantRepository_CreateDuplicateID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicantRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "applicants"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_applicants_application_id"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), submittedRow())
	assert.ErrorIs(t, err, ErrDuplicateApplicationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantRepository_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("stale version", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewApplicantRepository(db)
		a := submittedRow()
		a.ID, a.Version = 9, 3

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "applicants" SET .*WHERE .*id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.Save(ctx, a), ErrVersionConflict)
		assert.Equal(t, 3, a.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("current version writes new notes", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewApplicantRepository(db)
		a := submittedRow()
		a.ID, a.Version = 9, 3
		a.Notes = []models.AdminNote{{Note: "Status changed to on_hold", AdminName: "Registrar", CreatedAt: time.Now()}}

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "applicants" SET .*WHERE .*id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO "admin_notes"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(41))
		mock.ExpectCommit()

		require.NoError(t, repo.Save(ctx, a))
		assert.Equal(t, 4, a.Version)
		assert.Equal(t, uint(41), a.Notes[0].ID)
		assert.Equal(t, uint(9), a.Notes[0].ApplicantID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestApplicantRepository_DeleteIsSoft(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewApplicantRepository(db)

	// Only the applicant row is touched. Notes and payments stay.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "applicants" SET "deleted_at"=.* WHERE "applicants"\."id" = .* AND "applicants"\."deleted_at" IS NULL`).
		WithArgs(sqlmock.AnyArg(), 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Delete(ctx, 4))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "applicants" SET "deleted_at"=`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	assert.ErrorIs(t, repo.Delete(ctx, 4), ErrApplicantNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantRepository_CountAssignedIDsIncludesDeleted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicantRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "applicants" WHERE application_id IS NOT NULL$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

	n, err := repo.CountAssignedIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_UpdateGuardsStatus(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)
	paidAt := time.Now()
	p := &models.Payment{Status: models.PaymentStatusPaid, TransactionReference: "ch_1", PaidAt: &paidAt}
	p.ID = 3

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET .*WHERE .*id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Update(ctx, p, models.PaymentStatusPending))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	assert.ErrorIs(t, repo.Update(ctx, p, models.PaymentStatusPending), ErrPaymentStateChanged)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepository_CreateInactive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAdminRepository(db)
	admin := &models.Admin{
		Username:     "clerk",
		Email:        "Clerk@Example.com",
		PasswordHash: "hash",
		Role:         models.RoleAdmin,
		IsActive:     false,
		TokenVersion: 1,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "admins" .*"is_active"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), admin))
	assert.False(t, admin.IsActive)
	assert.Equal(t, "clerk@example.com", admin.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}
