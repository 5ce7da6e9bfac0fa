package repositories

import (
	"context"
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"

	"gorm.io/gorm"
)

// StudentRepository defines the interface for student account operations
type StudentRepository interface {
	Create(ctx context.Context, s *models.Student) error
	GetByID(ctx context.Context, id uint) (*models.Student, error)
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	TouchLogin(ctx context.Context, id uint, at time.Time) error
	IncrementTokenVersion(ctx context.Context, id uint) error
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, s *models.Student) error {
	s.Email = models.NormalizeEmail(s.Email)
	err := r.db.WithContext(ctx).Create(s).Error
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailTaken
		}
		return translate(err, nil)
	}
	return nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	var s models.Student
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, translate(err, ErrStudentNotFound)
	}
	return &s, nil
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	var s models.Student
	if err := r.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&s).Error; err != nil {
		return nil, translate(err, ErrStudentNotFound)
	}
	return &s, nil
}

func (r *studentRepository) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	return translate(r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ?", id).UpdateColumn("last_login_at", at).Error, ErrStudentNotFound)
}

func (r *studentRepository) IncrementTokenVersion(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + 1"))
	if result.Error != nil {
		return translate(result.Error, ErrStudentNotFound)
	}
	if result.RowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}
