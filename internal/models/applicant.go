package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ApplicantStatus is the review-side state of an application.
type ApplicantStatus string

const (
	StatusDraft               ApplicantStatus = "draft"
	StatusSubmitted           ApplicantStatus = "submitted"
	StatusUnderReview         ApplicantStatus = "under_review"
	StatusAccepted            ApplicantStatus = "accepted"
	StatusRejected            ApplicantStatus = "rejected"
	StatusOnHold              ApplicantStatus = "on_hold"
	StatusPendingVerification ApplicantStatus = "pending_verification"
)

// Valid reports whether s is a known status.
func (s ApplicantStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusAccepted,
		StatusRejected, StatusOnHold, StatusPendingVerification:
		return true
	}
	return false
}

// ApplicantPaymentStatus is the payment-side state of an application.
type ApplicantPaymentStatus string

const (
	PaymentPending           ApplicantPaymentStatus = "pending"
	PaymentPaid              ApplicantPaymentStatus = "paid"
	PaymentFailed            ApplicantPaymentStatus = "failed"
	PaymentUnderVerification ApplicantPaymentStatus = "under_verification"
	PaymentVerified          ApplicantPaymentStatus = "verified"
)

func (s ApplicantPaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentUnderVerification, PaymentVerified:
		return true
	}
	return false
}

// Settled reports whether the fee has been collected.
func (s ApplicantPaymentStatus) Settled() bool {
	return s == PaymentPaid || s == PaymentVerified
}

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Applicant is one admission attempt. It starts as a draft and is locked to
// an ApplicationID on submission.
type Applicant struct {
	gorm.Model

	Email string `gorm:"index;not null" json:"email"`
	Phone string `json:"phone"`

	FullName        string     `json:"fullName"`
	DateOfBirth     *time.Time `json:"dateOfBirth"`
	Gender          string     `json:"gender"`
	Address         string     `json:"address"`
	City            string     `json:"city"`
	State           string     `json:"state"`
	Pincode         string     `json:"pincode"`
	FatherName      string     `json:"fatherName"`
	MotherName      string     `json:"motherName"`
	Category        string     `json:"category"`
	Qualification   string     `json:"qualification"`
	BoardUniversity string     `json:"boardUniversity"`
	PassingYear     *int       `json:"passingYear"`
	Percentage      *float64   `json:"percentage"`
	ProgramType     string     `json:"programType"`
	CourseName      string     `json:"courseName"`

	PhotoRef       string `json:"photo"`
	IDProofRef     string `json:"idProof"`
	CertificateRef string `json:"certificate"`

	IsDraft       bool                   `gorm:"index;not null" json:"isDraft"`
	CurrentStep   int                    `gorm:"default:1" json:"currentStep"`
	Status        ApplicantStatus        `gorm:"type:varchar(32);index;default:'draft'" json:"status"`
	PaymentStatus ApplicantPaymentStatus `gorm:"type:varchar(32);index;default:'pending'" json:"paymentStatus"`
	ApplicationID *string                `gorm:"uniqueIndex" json:"applicationId"`

	PaymentMethod     PaymentMethod   `gorm:"type:varchar(32)" json:"paymentMethod"`
	TransferReference string          `json:"utrNumber"`
	PaymentProofRef   string          `json:"paymentProof"`
	AmountPaid        decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"amountPaid"`

	SubmittedAt *time.Time `json:"submittedAt"`
	ReviewedAt  *time.Time `json:"reviewedAt"`

	Notes   []AdminNote `gorm:"foreignKey:ApplicantID" json:"adminNotes"`
	Version int         `gorm:"not null;default:1" json:"-"`
}

// HasAllDocuments reports whether photo, ID proof and certificate are stored.
func (a *Applicant) HasAllDocuments() bool {
	return a.PhotoRef != "" && a.IDProofRef != "" && a.CertificateRef != ""
}

// DocumentRefs returns every stored file locator held by the applicant.
func (a *Applicant) DocumentRefs() []string {
	var refs []string
	for _, r := range []string{a.PhotoRef, a.IDProofRef, a.CertificateRef, a.PaymentProofRef} {
		if r != "" {
			refs = append(refs, r)
		}
	}
	return refs
}

// AppID returns the application id or an empty string for drafts.
func (a *Applicant) AppID() string {
	if a.ApplicationID == nil {
		return ""
	}
	return *a.ApplicationID
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AdminNote is an append-only review note. Rows are inserted, never updated.
type AdminNote struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	ApplicantID uint      `gorm:"index;not null" json:"-"`
	Note        string    `gorm:"type:text;not null" json:"note"`
	AdminName   string    `json:"adminName"`
	CreatedAt   time.Time `json:"date"`
}
