package repositories

import (
	"context"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"

	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(ctx context.Context, c *models.Contact) error
	List(ctx context.Context, status models.ContactStatus, offset, limit int) ([]models.Contact, int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.ContactStatus) error
	Delete(ctx context.Context, id uint) error
}

type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, c *models.Contact) error {
	return translate(r.db.WithContext(ctx).Create(c).Error, nil)
}

func (r *contactRepository) List(ctx context.Context, status models.ContactStatus, offset, limit int) ([]models.Contact, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Contact{})
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	}
	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, translate(err, nil)
	}
	var rows []models.Contact
	if err := scoped().Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, translate(err, nil)
	}
	return rows, total, nil
}

func (r *contactRepository) UpdateStatus(ctx context.Context, id uint, status models.ContactStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Contact{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return translate(result.Error, ErrContactNotFound)
	}
	if result.RowsAffected == 0 {
		return ErrContactNotFound
	}
	return nil
}

func (r *contactRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Contact{}, id)
	if result.Error != nil {
		return translate(result.Error, ErrContactNotFound)
	}
	if result.RowsAffected == 0 {
		return ErrContactNotFound
	}
	return nil
}
