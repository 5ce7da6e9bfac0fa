package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AdminRepository defines the interface for admin account operations
type AdminRepository interface {
	Create(ctx context.Context, a *models.Admin) error
	GetByID(ctx context.Context, id uint) (*models.Admin, error)

	// GetByLogin finds an active admin by username or email.
	GetByLogin(ctx context.Context, login string) (*models.Admin, error)

	// Exists reports whether any admin uses the username or email.
	Exists(ctx context.Context, username, email string) (bool, error)

	// RecordFailedLogin atomically increments the failure counter and
	// returns the new count.
	RecordFailedLogin(ctx context.Context, id uint) (int, error)

	Lock(ctx context.Context, id uint, until time.Time) error

	// ClearLock resets the failure counter after a lock window has passed.
	ClearLock(ctx context.Context, id uint) error

	// ResetLogin clears the failure counter and lock and stamps the login.
	ResetLogin(ctx context.Context, id uint, at time.Time) error

	UpdateProfile(ctx context.Context, id uint, name, email string) error

	// UpdatePassword stores a new hash and bumps the token version.
	UpdatePassword(ctx context.Context, id uint, hash string) error

	IncrementTokenVersion(ctx context.Context, id uint) error
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func (r *adminRepository) Create(ctx context.Context, a *models.Admin) error {
	a.Email = models.NormalizeEmail(a.Email)
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if isDuplicate(err) {
			return ErrUsernameTaken
		}
		return translate(err, nil)
	}
	return nil
}

func (r *adminRepository) GetByID(ctx context.Context, id uint) (*models.Admin, error) {
	var a models.Admin
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translate(err, ErrAdminNotFound)
	}
	return &a, nil
}

func (r *adminRepository) GetByLogin(ctx context.Context, login string) (*models.Admin, error) {
	login = strings.TrimSpace(login)
	var a models.Admin
	err := r.db.WithContext(ctx).
		Where("(username = ? OR email = ?) AND is_active = ?", login, models.NormalizeEmail(login), true).
		First(&a).Error
	if err != nil {
		return nil, translate(err, ErrAdminNotFound)
	}
	return &a, nil
}

func (r *adminRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Admin{}).
		Where("username = ? OR email = ?", username, models.NormalizeEmail(email)).
		Count(&n).Error
	return n > 0, translate(err, nil)
}

func (r *adminRepository) RecordFailedLogin(ctx context.Context, id uint) (int, error) {
	var a models.Admin
	result := r.db.WithContext(ctx).Model(&a).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "failed_login_attempts"}}}).
		Where("id = ?", id).
		UpdateColumn("failed_login_attempts", gorm.Expr("failed_login_attempts + 1"))
	if result.Error != nil {
		return 0, translate(result.Error, ErrAdminNotFound)
	}
	if result.RowsAffected == 0 {
		return 0, ErrAdminNotFound
	}
	return a.FailedLoginAttempts, nil
}

func (r *adminRepository) Lock(ctx context.Context, id uint, until time.Time) error {
	return translate(r.db.WithContext(ctx).Model(&models.Admin{}).Where("id = ?", id).
		UpdateColumn("lock_until", until).Error, ErrAdminNotFound)
}

func (r *adminRepository) ClearLock(ctx context.Context, id uint) error {
	return translate(r.db.WithContext(ctx).Model(&models.Admin{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"failed_login_attempts": 0,
			"lock_until":            nil,
		}).Error, ErrAdminNotFound)
}

func (r *adminRepository) ResetLogin(ctx context.Context, id uint, at time.Time) error {
	return translate(r.db.WithContext(ctx).Model(&models.Admin{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"failed_login_attempts": 0,
			"lock_until":            nil,
			"last_login_at":         at,
		}).Error, ErrAdminNotFound)
}

func (r *adminRepository) UpdateProfile(ctx context.Context, id uint, name, email string) error {
	err := r.db.WithContext(ctx).Model(&models.Admin{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "email": models.NormalizeEmail(email)}).Error
	if isDuplicate(err) {
		return ErrEmailTaken
	}
	return translate(err, ErrAdminNotFound)
}

func (r *adminRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return translate(r.db.WithContext(ctx).Model(&models.Admin{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": hash,
			"token_version": gorm.Expr("token_version + 1"),
		}).Error, ErrAdminNotFound)
}

func (r *adminRepository) IncrementTokenVersion(ctx context.Context, id uint) error {
	return translate(r.db.WithContext(ctx).Model(&models.Admin{}).Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + 1")).Error, ErrAdminNotFound)
}
