package models

import "gorm.io/gorm"

type ContactStatus string

const (
	ContactNew       ContactStatus = "new"
	ContactContacted ContactStatus = "contacted"
	ContactResolved  ContactStatus = "resolved"
)

func (s ContactStatus) Valid() bool {
	return s == ContactNew || s == ContactContacted || s == ContactResolved
}

// Contact is an enquiry submitted through the public contact form.
type Contact struct {
	gorm.Model
	Name    string        `gorm:"not null" json:"name"`
	Email   string        `gorm:"not null" json:"email"`
	Phone   string        `json:"phone"`
	Subject string        `json:"subject"`
	Message string        `gorm:"type:text;not null" json:"message"`
	Status  ContactStatus `gorm:"type:varchar(16);default:'new'" json:"status"`
}
