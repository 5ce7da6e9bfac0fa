// Package contact accepts enquiries from the public contact form.
package contact

import (
	"context"
	"fmt"
	"strings"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/validation"

	"go.uber.org/zap"
)

type Service interface {
	Submit(ctx context.Context, in Input) (*models.Contact, error)
}

type Input struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=2000"`
}

type service struct {
	contacts repositories.ContactRepository
	log      *zap.Logger
}

func NewService(contacts repositories.ContactRepository, log *zap.Logger) Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &service{contacts: contacts, log: log}
}

func (s *service) Submit(ctx context.Context, in Input) (*models.Contact, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	c := &models.Contact{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Subject: in.Subject,
		Message: in.Message,
		Status:  models.ContactNew,
	}
	if err := s.contacts.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save contact: %w", err)
	}
	s.log.Info("contact enquiry received", zap.Uint("contact_id", c.ID), zap.String("email", c.Email))
	return c, nil
}
