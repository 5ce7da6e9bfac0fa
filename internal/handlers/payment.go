package handlers

import (
	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/payment"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/storage"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService payment.Service
	log            *zap.Logger
}

func NewPaymentHandler(paymentService payment.Service, log *zap.Logger) *PaymentHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentHandler{
		paymentService: paymentService,
		log:            log,
	}
}

// CreateOrder opens a gateway order for the application fee.
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	id, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}

	var input struct {
		ApplicationID string `json:"applicationId"`
	}
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return utils.BadRequest(c, "Invalid request body")
	}

	order, err := h.paymentService.CreateGatewayOrder(c.UserContext(), id, input.ApplicationID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "", order)
}

// Verify confirms a gateway payment using the signature the checkout
// returned to the browser.
func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	id, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}

	var input payment.ConfirmInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	applicant, pay, err := h.paymentService.ConfirmGatewayPayment(c.UserContext(), id, input)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "Payment verified successfully", fiber.Map{
		"application": applicant,
		"payment":     pay,
	})
}

// SubmitTransfer records a bank transfer reference (UTR) with optional
// proof for manual verification.
func (h *PaymentHandler) SubmitTransfer(c *fiber.Ctx) error {
	id, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}

	input := payment.TransferInput{
		ApplicationID: c.FormValue("applicationId"),
		Reference:     c.FormValue("utrNumber"),
	}
	if form, err := c.MultipartForm(); err == nil {
		proof, err := inspect(form, "paymentProof", storage.PaymentProofLimit)
		if err != nil {
			return respondError(c, h.log, err)
		}
		input.Proof = proof
	}
	if input.Reference == "" {
		return respondError(c, h.log, apperrors.Missing("utrNumber"))
	}

	applicant, pay, err := h.paymentService.SubmitManualTransfer(c.UserContext(), id, input)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Created(c, "Payment details submitted for verification", fiber.Map{
		"application": applicant,
		"payment":     pay,
	})
}

func (h *PaymentHandler) History(c *fiber.Ctx) error {
	id, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}

	payments, err := h.paymentService.History(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "", payments)
}
