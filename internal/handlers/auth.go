package handlers

import (
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/middleware"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/auth"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService  auth.Service
	secureCookie bool
	log          *zap.Logger
}

// NewAuthHandler builds the auth handler. secureCookie should be true
// whenever the API is served over HTTPS.
func NewAuthHandler(authService auth.Service, secureCookie bool, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
		log:          log,
	}
}

// Register creates a student account and logs it in.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input auth.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	session, err := h.authService.RegisterStudent(c.UserContext(), input)
	if err != nil {
		return respondError(c, h.log, err)
	}

	h.setSessionCookie(c, middleware.StudentCookie, session)
	return utils.Created(c, "Registration successful", session)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input auth.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	session, err := h.authService.LoginStudent(c.UserContext(), input)
	if err != nil {
		return respondError(c, h.log, err)
	}

	h.setSessionCookie(c, middleware.StudentCookie, session)
	return utils.Success(c, "Login successful", session)
}

// AdminLogin authenticates an admin by username or email. Repeated
// failures lock the account.
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var input auth.AdminLoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	session, err := h.authService.LoginAdmin(c.UserContext(), input)
	if err != nil {
		return respondError(c, h.log, err)
	}

	h.setSessionCookie(c, middleware.AdminCookie, session)
	return utils.Success(c, "Login successful", session)
}

// Me returns the logged-in student's account.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}

	student, err := h.authService.Me(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, "", student)
}

// AdminMe returns the identity resolved for the current admin session and
// when the session expires.
func (h *AuthHandler) AdminMe(c *fiber.Ctx) error {
	id, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}

	body := fiber.Map{"admin": id}
	if claims, err := utils.GetUserClaims(c); err == nil && claims.ExpiresAt != nil {
		body["expiresAt"] = claims.ExpiresAt.Time
	}
	return utils.Success(c, "", body)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return h.logout(c, middleware.StudentCookie)
}

func (h *AuthHandler) AdminLogout(c *fiber.Ctx) error {
	return h.logout(c, middleware.AdminCookie)
}

// logout bumps the token version so every issued token stops working.
func (h *AuthHandler) logout(c *fiber.Ctx, cookie string) error {
	id, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}

	if err := h.authService.Logout(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     cookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		Path:     "/",
	})
	return utils.Success(c, "Logged out successfully", nil)
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, name string, session *auth.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    session.Token,
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		Path:     "/",
		SameSite: "Strict",
	})
}
