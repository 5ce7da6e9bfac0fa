package workflow

import "github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"

// View names the screen a client should show for an applicant.
type View string

const (
	ViewNew          View = "new"
	ViewForm         View = "form"
	ViewPayment      View = "payment"
	ViewVerification View = "verification"
	ViewComplete     View = "complete"
	ViewStatus       View = "status"
)

// StepView is the derived, read-only position of an applicant in the flow.
type StepView struct {
	Step          int                           `json:"currentStep"`
	View          View                          `json:"view"`
	IsDraft       bool                          `json:"isDraft"`
	Terminal      bool                          `json:"terminal"`
	ApplicationID string                        `json:"applicationId,omitempty"`
	Status        models.ApplicantStatus        `json:"status,omitempty"`
	PaymentStatus models.ApplicantPaymentStatus `json:"paymentStatus,omitempty"`
}

// Project derives the current step from stored state. The stored
// CurrentStep is only trusted while the applicant is a draft.
func Project(a *models.Applicant) StepView {
	if a == nil {
		return StepView{Step: MinStep, View: ViewNew}
	}
	v := StepView{
		IsDraft:       a.IsDraft,
		Terminal:      IsTerminal(*a),
		ApplicationID: a.AppID(),
		Status:        a.Status,
		PaymentStatus: a.PaymentStatus,
	}
	switch {
	case a.IsDraft || a.Status == models.StatusDraft:
		v.Step, v.View = clampStep(a.CurrentStep), ViewForm
	case a.Status == models.StatusSubmitted && a.HasAllDocuments():
		v.Step, v.View = PaymentStep, ViewPayment
	case a.Status == models.StatusUnderReview && a.PaymentStatus == models.PaymentUnderVerification:
		v.Step, v.View = VerificationStep, ViewVerification
	case a.PaymentStatus.Settled() || a.Status == models.StatusAccepted:
		v.Step, v.View = MaxStep, ViewComplete
	default:
		v.Step, v.View = clampStep(a.CurrentStep), ViewStatus
	}
	return v
}
