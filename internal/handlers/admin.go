package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/admin"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AdminHandler struct {
	adminService admin.Service
	log          *zap.Logger
}

func NewAdminHandler(adminService admin.Service, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{
		adminService: adminService,
		log:          log,
	}
}

func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.adminService.Dashboard(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "", stats)
}

func applicantFilter(c *fiber.Ctx, p utils.Pagination) models.ApplicantFilter {
	return models.ApplicantFilter{
		Status:        models.ApplicantStatus(c.Query("status")),
		PaymentStatus: models.ApplicantPaymentStatus(c.Query("paymentStatus")),
		ProgramType:   c.Query("programType"),
		Search:        c.Query("search"),
		Offset:        p.Offset,
		Limit:         p.Limit,
	}
}

// ListApplicants supports ?status, ?paymentStatus, ?programType, ?search,
// ?page and ?limit.
func (h *AdminHandler) ListApplicants(c *fiber.Ctx) error {
	p := utils.GetPagination(c)

	rows, total, err := h.adminService.ListApplicants(c.UserContext(), applicantFilter(c, p))
	if err != nil {
		return respondError(c, h.log, err)
	}

	p.SetTotal(total)
	return c.JSON(utils.NewPaginatedResponse(rows, p))
}

// ExportApplicants streams every applicant matching the filters as CSV.
func (h *AdminHandler) ExportApplicants(c *fiber.Ctx) error {
	f := applicantFilter(c, utils.Pagination{})

	var buf bytes.Buffer
	if err := h.adminService.ExportCSV(c.UserContext(), f, &buf); err != nil {
		return respondError(c, h.log, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="applicants-%s.csv"`, time.Now().Format("2006-01-02")))
	return c.Send(buf.Bytes())
}

func (h *AdminHandler) GetApplicant(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	detail, err := h.adminService.GetApplicant(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "", detail)
}

// UpdateStatus records an accept, reject or hold decision with a note.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var input struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	applicant, err := h.adminService.Review(c.UserContext(), actor, id, input.Status, input.Note)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "Status updated", applicant)
}

func (h *AdminHandler) DeleteApplicant(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	if err := h.adminService.DeleteApplicant(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "Applicant deleted", nil)
}

func (h *AdminHandler) PendingPayments(c *fiber.Ctx) error {
	pending, err := h.adminService.PendingVerifications(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "", pending)
}

// VerifyPayment approves or rejects a bank transfer.
func (h *AdminHandler) VerifyPayment(c *fiber.Ctx) error {
	actor, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var input struct {
		Decision string `json:"decision"`
		Note     string `json:"note"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	applicant, pay, err := h.adminService.VerifyPayment(c.UserContext(), actor, id, input.Decision, input.Note)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "Payment "+string(pay.Status), fiber.Map{
		"application": applicant,
		"payment":     pay,
	})
}

func (h *AdminHandler) ListContacts(c *fiber.Ctx) error {
	p := utils.GetPagination(c)

	rows, total, err := h.adminService.ListContacts(c.UserContext(), c.Query("status"), p.Offset, p.Limit)
	if err != nil {
		return respondError(c, h.log, err)
	}

	p.SetTotal(total)
	return c.JSON(utils.NewPaginatedResponse(rows, p))
}

func (h *AdminHandler) UpdateContact(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	if err := h.adminService.UpdateContactStatus(c.UserContext(), id, input.Status); err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "Contact updated", nil)
}

func (h *AdminHandler) DeleteContact(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	if err := h.adminService.DeleteContact(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "Contact deleted", nil)
}

func (h *AdminHandler) UpdateProfile(c *fiber.Ctx) error {
	actor, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}

	var input admin.ProfileInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	updated, err := h.adminService.UpdateProfile(c.UserContext(), actor, input)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "Profile updated", updated)
}

func (h *AdminHandler) ChangePassword(c *fiber.Ctx) error {
	actor, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}

	var input admin.PasswordInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	if err := h.adminService.ChangePassword(c.UserContext(), actor, input); err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "Password changed, please login again", nil)
}
