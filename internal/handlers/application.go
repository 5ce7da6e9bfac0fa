package handlers

import (
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/application"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ApplicationHandler serves the student side of the admission workflow.
type ApplicationHandler struct {
	applicationService application.Service
	log                *zap.Logger
}

func NewApplicationHandler(applicationService application.Service, log *zap.Logger) *ApplicationHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ApplicationHandler{
		applicationService: applicationService,
		log:                log,
	}
}

// CheckStatus tells the client which step of the flow to show.
func (h *ApplicationHandler) CheckStatus(c *fiber.Ctx) error {
	id, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}

	view, applicant, err := h.applicationService.CheckStatus(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "", fiber.Map{
		"progress":    view,
		"application": applicant,
	})
}

func (h *ApplicationHandler) LoadDraft(c *fiber.Ctx) error {
	id, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}

	draft, err := h.applicationService.LoadDraft(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "", draft)
}

func (h *ApplicationHandler) SaveDraft(c *fiber.Ctx) error {
	id, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}

	input, err := parseForm(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	draft, err := h.applicationService.SaveDraft(c.UserContext(), id, input)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "Draft saved", draft)
}

func (h *ApplicationHandler) ClearDraft(c *fiber.Ctx) error {
	id, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}

	removed, err := h.applicationService.ClearDraft(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "Draft cleared", fiber.Map{"deleted": removed})
}

// Submit finalizes the draft and assigns the application id.
func (h *ApplicationHandler) Submit(c *fiber.Ctx) error {
	id, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}

	input, err := parseForm(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	applicant, err := h.applicationService.Submit(c.UserContext(), id, input)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Created(c, "Application submitted successfully", applicant)
}

// Status is the student dashboard: the submitted application and its payments.
func (h *ApplicationHandler) Status(c *fiber.Ctx) error {
	id, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}

	applicant, payments, err := h.applicationService.Status(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "", fiber.Map{
		"application": applicant,
		"payments":    payments,
	})
}

// Success is public so the completion page can be bookmarked.
func (h *ApplicationHandler) Success(c *fiber.Ctx) error {
	view, err := h.applicationService.Success(c.UserContext(), c.Params("applicationId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "", view)
}
