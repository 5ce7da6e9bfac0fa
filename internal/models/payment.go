package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	MethodGateway        PaymentMethod = "gateway"
	MethodManualTransfer PaymentMethod = "manual_transfer"
)

type PaymentStatus string

const (
	PaymentStatusCreated           PaymentStatus = "created"
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusUnderVerification PaymentStatus = "under_verification"
	PaymentStatusVerified          PaymentStatus = "verified"
	PaymentStatusRejected          PaymentStatus = "rejected"
	PaymentStatusRefunded          PaymentStatus = "refunded"
)

// Payment is one attempt to collect the application fee.
type Payment struct {
	gorm.Model
	ApplicantID uint            `gorm:"index;not null" json:"applicantId"`
	Method      PaymentMethod   `gorm:"type:varchar(32);not null" json:"method"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency    string          `gorm:"type:varchar(3);default:'INR'" json:"currency"`
	Status      PaymentStatus   `gorm:"type:varchar(32);index;not null" json:"status"`

	OrderReference       string `gorm:"index" json:"orderId,omitempty"`
	TransactionReference string `gorm:"index" json:"paymentId,omitempty"`
	Signature            string `json:"-"`

	TransferReference string `gorm:"index" json:"utrNumber,omitempty"`
	ProofRef          string `json:"paymentProof,omitempty"`

	PaidAt     *time.Time `json:"paidAt,omitempty"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
	VerifiedBy string     `json:"verifiedBy,omitempty"`
	ReviewNote string     `json:"reviewNote,omitempty"`
}
