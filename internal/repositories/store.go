package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Transactor runs fn with applicant and payment repositories bound to one
// atomic unit of work.
type Transactor interface {
	Transaction(ctx context.Context, fn func(applicants ApplicantRepository, payments PaymentRepository) error) error
}

// Store groups the applicant and payment repositories so a transition that
// touches both can commit atomically.
type Store struct {
	db         *gorm.DB
	Applicants ApplicantRepository
	Payments   PaymentRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Applicants: NewApplicantRepository(db),
		Payments:   NewPaymentRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single transaction.
func (s *Store) Transaction(ctx context.Context, fn func(applicants ApplicantRepository, payments PaymentRepository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewApplicantRepository(tx), NewPaymentRepository(tx))
	})
}
