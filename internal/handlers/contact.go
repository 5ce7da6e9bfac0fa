package handlers

import (
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/contact"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ContactHandler struct {
	contactService contact.Service
	log            *zap.Logger
}

func NewContactHandler(contactService contact.Service, log *zap.Logger) *ContactHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContactHandler{contactService: contactService, log: log}
}

func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var input contact.Input
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	if _, err := h.contactService.Submit(c.UserContext(), input); err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Created(c, "Thank you for contacting us, we will get back to you soon", nil)
}
