package models

import "github.com/shopspring/decimal"

// DashboardStats summarizes non-draft applications for the admin dashboard.
type DashboardStats struct {
	TotalApplications  int64           `json:"totalApplications"`
	PaidApplications   int64           `json:"paidApplications"`
	PendingPayments    int64           `json:"pendingPayments"`
	UnderVerification  int64           `json:"underVerification"`
	Accepted           int64           `json:"accepted"`
	Rejected           int64           `json:"rejected"`
	OnHold             int64           `json:"onHold"`
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	RecentApplications []Applicant     `json:"recentApplications"`
}

// ApplicantFilter narrows admin listings and exports.
type ApplicantFilter struct {
	Status        ApplicantStatus
	PaymentStatus ApplicantPaymentStatus
	ProgramType   string
	Search        string
	Offset        int
	Limit         int
}
