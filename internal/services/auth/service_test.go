package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/metrics"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories/cache"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) Create(ctx context.Context, s *models.Student) error {
	args := m.Called(ctx, s)
	if args.Error(0) == nil {
		s.ID = 1
	}
	return args.Error(0)
}

func (m *MockStudentRepository) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*models.Student), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStudentRepository) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	args := m.Called(ctx, email)
	if s := args.Get(0); s != nil {
		return s.(*models.Student), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStudentRepository) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockStudentRepository) IncrementTokenVersion(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) Create(ctx context.Context, a *models.Admin) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAdminRepository) GetByID(ctx context.Context, id uint) (*models.Admin, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*models.Admin), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAdminRepository) GetByLogin(ctx context.Context, login string) (*models.Admin, error) {
	args := m.Called(ctx, login)
	if a := args.Get(0); a != nil {
		return a.(*models.Admin), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAdminRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdminRepository) RecordFailedLogin(ctx context.Context, id uint) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockAdminRepository) Lock(ctx context.Context, id uint, until time.Time) error {
	return m.Called(ctx, id, until).Error(0)
}

func (m *MockAdminRepository) ClearLock(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAdminRepository) ResetLogin(ctx context.Context, id uint, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockAdminRepository) UpdateProfile(ctx context.Context, id uint, name, email string) error {
	return m.Called(ctx, id, name, email).Error(0)
}

func (m *MockAdminRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *MockAdminRepository) IncrementTokenVersion(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type fixture struct {
	svc      *service
	students *MockStudentRepository
	admins   *MockAdminRepository
	tokens   *utils.TokenManager
	now      time.Time
}

func newFixture(t *testing.T, identities IdentityCache) *fixture {
	t.Helper()
	f := &fixture{
		students: new(MockStudentRepository),
		admins:   new(MockAdminRepository),
		tokens:   utils.NewTokenManager("test-secret", 7*24*time.Hour, 24*time.Hour),
		now:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	svc := NewService(f.students, f.admins, f.tokens, identities, zaptest.NewLogger(t), metrics.NoopCollector{},
		Options{MaxLoginAttempts: 5, LockDuration: 2 * time.Hour, HashCost: bcrypt.MinCost}).(*service)
	svc.now = func() time.Time { return f.now }
	f.svc = svc
	return f
}

func hash(t *testing.T, pw string) string {
	t.Helper()
	h, err := HashPassword(pw, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestRegisterStudent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.students.On("Create", ctx, mock.MatchedBy(func(s *models.Student) bool {
		return s.Email == "asha@example.com" && s.PasswordHash != "secret1"
	})).Return(nil).Once()

	session, err := f.svc.RegisterStudent(ctx, RegisterInput{
		Name: " Asha ", Email: "Asha@Example.com", Phone: "9876543210", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.KindStudent, session.Identity.Kind)

	claims, err := f.tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", claims.Email)
	assert.Equal(t, 1, claims.TokenVersion)
	f.students.AssertExpectations(t)
}

func TestRegisterStudent_Errors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.RegisterStudent(ctx, RegisterInput{Name: "A", Email: "bad", Phone: "12", Password: "x"})
	de, ok := apperrors.As(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"email", "phone", "password"}, de.FieldNames())

	f.students.On("Create", ctx, mock.Anything).Return(repositories.ErrEmailTaken).Once()
	_, err = f.svc.RegisterStudent(ctx, RegisterInput{Name: "A", Email: "a@x.com", Phone: "9876543210", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.True(t, apperrors.IsConflict(err))
}

func TestLoginStudent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	student := &models.Student{Name: "Asha", Email: "asha@example.com", PasswordHash: hash(t, "secret1"), TokenVersion: 2}
	student.ID = 7

	f.students.On("GetByEmail", ctx, "asha@example.com").Return(student, nil)
	f.students.On("TouchLogin", ctx, uint(7), f.now).Return(nil).Once()

	session, err := f.svc.LoginStudent(ctx, LoginInput{Email: "asha@example.com", Password: "secret1"})
	require.NoError(t, err)
	claims, err := f.tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, 2, claims.TokenVersion)

	_, err = f.svc.LoginStudent(ctx, LoginInput{Email: "asha@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	f.students.On("GetByEmail", ctx, "nobody@example.com").Return(nil, repositories.ErrStudentNotFound)
	_, err = f.svc.LoginStudent(ctx, LoginInput{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func newAdmin(t *testing.T, attempts int, lockUntil *time.Time) *models.Admin {
	a := &models.Admin{
		Username:            "registrar",
		Email:               "registrar@example.com",
		PasswordHash:        hash(t, "Str0ng!pass"),
		Role:                models.RoleAdmin,
		IsActive:            true,
		FailedLoginAttempts: attempts,
		LockUntil:           lockUntil,
		TokenVersion:        1,
	}
	a.ID = 3
	return a
}

func TestLoginAdmin_Lockout(t *testing.T) {
	tests := []struct {
		name       string
		recorded   int
		wantLocked bool
		wantMsg    string
	}{
		{"first failure hides count", 1, false, "invalid credentials"},
		{"three left is reported", 2, false, "invalid credentials, 3 attempts remaining"},
		{"one left is reported", 4, false, "invalid credentials, 1 attempts remaining"},
		{"fifth failure locks", 5, true, "account is locked, try again in 120 minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			ctx := context.Background()
			f.admins.On("GetByLogin", ctx, "registrar").Return(newAdmin(t, tt.recorded-1, nil), nil)
			f.admins.On("RecordFailedLogin", ctx, uint(3)).Return(tt.recorded, nil).Once()
			if tt.wantLocked {
				f.admins.On("Lock", ctx, uint(3), f.now.Add(2*time.Hour)).Return(nil).Once()
			}

			_, err := f.svc.LoginAdmin(ctx, AdminLoginInput{Username: "registrar", Password: "nope"})
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Equal(t, tt.wantLocked, errors.Is(err, ErrAccountLocked))
			assert.Equal(t, !tt.wantLocked, errors.Is(err, ErrInvalidCredentials))
			f.admins.AssertExpectations(t)
		})
	}
}

func TestLoginAdmin_LockedAccount(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	until := f.now.Add(90 * time.Minute)
	f.admins.On("GetByLogin", ctx, "registrar").Return(newAdmin(t, 5, &until), nil)

	_, err := f.svc.LoginAdmin(ctx, AdminLoginInput{Username: "registrar", Password: "Str0ng!pass"})
	var locked *LockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 90, locked.Minutes)
	f.admins.AssertNotCalled(t, "ResetLogin", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginAdmin_ExpiredLockAndSuccess(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	expired := f.now.Add(-time.Minute)
	f.admins.On("GetByLogin", ctx, "registrar").Return(newAdmin(t, 5, &expired), nil)
	f.admins.On("ClearLock", ctx, uint(3)).Return(nil).Once()
	f.admins.On("ResetLogin", ctx, uint(3), f.now).Return(nil).Once()

	session, err := f.svc.LoginAdmin(ctx, AdminLoginInput{Username: "registrar", Password: "Str0ng!pass"})
	require.NoError(t, err)
	assert.True(t, session.Identity.IsAdmin())
	assert.WithinDuration(t, f.now.Add(24*time.Hour), session.ExpiresAt, time.Minute)
	f.admins.AssertExpectations(t)
}

func TestLoginAdmin_UnknownAndDenied(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.admins.On("GetByLogin", ctx, "ghost").Return(nil, repositories.ErrAdminNotFound)
	_, err := f.svc.LoginAdmin(ctx, AdminLoginInput{Username: "ghost", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	viewer := newAdmin(t, 0, nil)
	viewer.Role = "viewer"
	f.admins.On("GetByLogin", ctx, "viewer").Return(viewer, nil)
	_, err = f.svc.LoginAdmin(ctx, AdminLoginInput{Username: "viewer", Password: "Str0ng!pass"})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestResolveIdentity_CachesAndRevokes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	identities := cache.NewCacheService(client, time.Minute)

	f := newFixture(t, identities)
	ctx := context.Background()
	student := &models.Student{Name: "Asha", Email: "asha@example.com", TokenVersion: 1}
	student.ID = 7
	f.students.On("GetByID", ctx, uint(7)).Return(student, nil).Once()

	claims := &models.UserClaims{UserID: 7, Kind: models.KindStudent, TokenVersion: 1}
	id, err := f.svc.ResolveIdentity(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", id.Email)

	// Served from redis; the repository expectation above is Once.
	_, err = f.svc.ResolveIdentity(ctx, claims)
	require.NoError(t, err)

	stale := &models.UserClaims{UserID: 7, Kind: models.KindStudent, TokenVersion: 0}
	_, err = f.svc.ResolveIdentity(ctx, stale)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	f.students.On("IncrementTokenVersion", ctx, uint(7)).Return(nil).Once()
	require.NoError(t, f.svc.Logout(ctx, id))

	bumped := *student
	bumped.TokenVersion = 2
	f.students.On("GetByID", ctx, uint(7)).Return(&bumped, nil).Once()
	_, err = f.svc.ResolveIdentity(ctx, claims)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	f.students.AssertExpectations(t)
}
