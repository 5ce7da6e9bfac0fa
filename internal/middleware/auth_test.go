package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/auth"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) RegisterStudent(ctx context.Context, in auth.RegisterInput) (*auth.Session, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockAuthService) LoginStudent(ctx context.Context, in auth.LoginInput) (*auth.Session, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockAuthService) LoginAdmin(ctx context.Context, in auth.AdminLoginInput) (*auth.Session, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, id models.Identity) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, id models.Identity) (*models.Student, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockAuthService) ResolveIdentity(ctx context.Context, claims *models.UserClaims) (models.Identity, error) {
	args := m.Called(ctx, claims)
	return args.Get(0).(models.Identity), args.Error(1)
}

var (
	student = models.Identity{Kind: models.KindStudent, ID: 1, Name: "Asha", Email: "asha@example.com"}
	admin   = models.Identity{Kind: models.KindAdmin, ID: 2, Name: "Ops", Email: "ops@example.com", Role: models.RoleAdmin}
	super   = models.Identity{Kind: models.KindAdmin, ID: 3, Name: "Root", Email: "root@example.com", Role: models.RoleSuperadmin}
)

func setup(t *testing.T) (*fiber.App, *utils.TokenManager, *MockAuthService) {
	t.Helper()
	tokens := utils.NewTokenManager("test-secret", time.Hour, time.Hour)
	svc := new(MockAuthService)
	m := NewAuthMiddleware(tokens, svc, nil)

	app := fiber.New()
	whoami := func(c *fiber.Ctx) error {
		id, err := utils.GetIdentity(c)
		require.NoError(t, err)
		return c.SendString(id.Name)
	}
	app.Get("/student", m.StudentAuth, whoami)
	app.Get("/admin", m.AdminAuth, whoami)
	app.Delete("/super", m.AdminAuth, RequireSuperadmin, whoami)
	return app, tokens, svc
}

func sign(t *testing.T, tokens *utils.TokenManager, id models.Identity) string {
	t.Helper()
	token, _, err := tokens.Generate(id, 1)
	require.NoError(t, err)
	return token
}

func TestStudentAuth(t *testing.T) {
	app, tokens, svc := setup(t)
	svc.On("ResolveIdentity", mock.Anything, mock.AnythingOfType("*models.UserClaims")).Return(student, nil)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodGet, "/student", nil)
		req.Header.Set("Authorization", "Bearer "+sign(t, tokens, student))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodGet, "/student", nil)
		req.Header.Set("Cookie", StudentCookie+"="+sign(t, tokens, student))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("missing token", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/student", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodGet, "/student", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("admin token on student route", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodGet, "/student", nil)
		req.Header.Set("Authorization", "Bearer "+sign(t, tokens, admin))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})
}

func TestStudentAuth_Revoked(t *testing.T) {
	app, tokens, svc := setup(t)
	svc.On("ResolveIdentity", mock.Anything, mock.Anything).Return(models.Identity{}, auth.ErrTokenRevoked)

	req := httptest.NewRequest(fiber.MethodGet, "/student", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, tokens, student))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminAuth(t *testing.T) {
	app, tokens, svc := setup(t)
	svc.On("ResolveIdentity", mock.Anything, mock.MatchedBy(func(c *models.UserClaims) bool { return c.UserID == admin.ID })).
		Return(admin, nil)
	svc.On("ResolveIdentity", mock.Anything, mock.MatchedBy(func(c *models.UserClaims) bool { return c.UserID == super.ID })).
		Return(super, nil)

	req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req.Header.Set("Cookie", AdminCookie+"="+sign(t, tokens, admin))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, tokens, student))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodDelete, "/super", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, tokens, admin))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodDelete, "/super", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, tokens, super))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminAuth_RoleDowngraded(t *testing.T) {
	app, tokens, svc := setup(t)
	downgraded := admin
	downgraded.Role = "viewer"
	svc.On("ResolveIdentity", mock.Anything, mock.Anything).Return(downgraded, nil)

	req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, tokens, admin))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
