// Package middleware provides HTTP middleware components for the application.
// It resolves bearer tokens and session cookies to student or admin
// identities before requests reach the handlers.
package middleware

import (
	"errors"
	"strings"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/auth"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	StudentCookie = "student_token"
	AdminCookie   = "admin_token"
)

// AuthMiddleware handles JWT validation and identity resolution.
type AuthMiddleware struct {
	tokens      *utils.TokenManager
	authService auth.Service
	log         *zap.Logger
}

func NewAuthMiddleware(tokens *utils.TokenManager, authService auth.Service, log *zap.Logger) *AuthMiddleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthMiddleware{
		tokens:      tokens,
		authService: authService,
		log:         log,
	}
}

// StudentAuth admits requests carrying a valid student token.
func (m *AuthMiddleware) StudentAuth(c *fiber.Ctx) error {
	return m.authenticate(c, models.KindStudent, StudentCookie)
}

// AdminAuth admits requests carrying a valid admin token whose account is
// still active and holds an admin role.
func (m *AuthMiddleware) AdminAuth(c *fiber.Ctx) error {
	return m.authenticate(c, models.KindAdmin, AdminCookie)
}

// tokenFrom prefers the Authorization header and falls back to the cookie.
func tokenFrom(c *fiber.Ctx, cookie string) string {
	if header := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Cookies(cookie)
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx, kind models.IdentityKind, cookie string) error {
	token := tokenFrom(c, cookie)
	if token == "" {
		return utils.Unauthorized(c, "Please login to continue")
	}

	claims, err := m.tokens.Parse(token)
	if err != nil {
		m.log.Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
		return utils.Unauthorized(c, "Invalid or expired session")
	}
	if claims.Kind != kind {
		return utils.Forbidden(c, "Access denied")
	}

	id, err := m.authService.ResolveIdentity(c.UserContext(), claims)
	if err != nil {
		if errors.Is(err, auth.ErrTokenRevoked) {
			return utils.Unauthorized(c, "Session expired, please login again")
		}
		m.log.Error("failed to resolve identity", zap.Uint("user_id", claims.UserID), zap.Error(err))
		return utils.InternalError(c, "Authentication failed")
	}
	if kind == models.KindAdmin && !id.IsAdmin() {
		return utils.Forbidden(c, "Admin privileges required")
	}

	c.Locals("claims", claims)
	c.Locals("identity", id)
	return c.Next()
}

// RequireSuperadmin must run after AdminAuth.
func RequireSuperadmin(c *fiber.Ctx) error {
	id, err := utils.GetIdentity(c)
	if err != nil {
		return utils.Unauthorized(c, "Please login to continue")
	}
	if id.Role != models.RoleSuperadmin {
		return utils.Forbidden(c, "Superadmin privileges required")
	}
	return c.Next()
}
