package auth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/metrics"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories/cache"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/utils"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const DefaultHashCost = 12

type Service interface {
	RegisterStudent(ctx context.Context, in RegisterInput) (*Session, error)
	LoginStudent(ctx context.Context, in LoginInput) (*Session, error)
	LoginAdmin(ctx context.Context, in AdminLoginInput) (*Session, error)
	Logout(ctx context.Context, id models.Identity) error
	Me(ctx context.Context, id models.Identity) (*models.Student, error)
	// ResolveIdentity checks a parsed token against the current account state.
	ResolveIdentity(ctx context.Context, claims *models.UserClaims) (models.Identity, error)
}

// IdentityCache is the subset of cache.CacheService used by the auth gate.
type IdentityCache interface {
	CacheIdentity(ctx context.Context, entry cache.IdentityEntry) error
	GetIdentity(ctx context.Context, kind models.IdentityKind, id uint) (*cache.IdentityEntry, error)
	InvalidateIdentity(ctx context.Context, kind models.IdentityKind, id uint) error
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AdminLoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is an issued token together with who it was issued to.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Identity  models.Identity `json:"user"`
}

type Options struct {
	MaxLoginAttempts int
	LockDuration     time.Duration
	HashCost         int
}

type service struct {
	students repositories.StudentRepository
	admins   repositories.AdminRepository
	tokens   *utils.TokenManager
	cache    IdentityCache
	log      *zap.Logger
	metrics  metrics.Collector
	opts     Options
	now      func() time.Time
}

// NewService builds the auth service. identities may be nil, in which case every
// request is checked against the database.
func NewService(
	students repositories.StudentRepository,
	admins repositories.AdminRepository,
	tokens *utils.TokenManager,
	identities IdentityCache,
	log *zap.Logger,
	mc metrics.Collector,
	opts Options,
) Service {
	if opts.MaxLoginAttempts <= 0 {
		opts.MaxLoginAttempts = 5
	}
	if opts.LockDuration <= 0 {
		opts.LockDuration = 2 * time.Hour
	}
	if opts.HashCost == 0 {
		opts.HashCost = DefaultHashCost
	}
	if mc == nil {
		mc = metrics.NoopCollector{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		students: students,
		admins:   admins,
		tokens:   tokens,
		cache:    identities,
		log:      log,
		metrics:  mc,
		opts:     opts,
		now:      time.Now,
	}
}

// HashPassword hashes a password with the given bcrypt cost.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *service) issue(id models.Identity, tokenVersion int) (*Session, error) {
	token, exp, err := s.tokens.Generate(id, tokenVersion)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: exp, Identity: id}, nil
}

func (s *service) RegisterStudent(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password, s.opts.HashCost)
	if err != nil {
		return nil, err
	}
	student := &models.Student{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		TokenVersion: 1,
	}
	if err := s.students.Create(ctx, student); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	s.log.Info("student registered", zap.Uint("student_id", student.ID))
	return s.issue(student.Identity(), student.TokenVersion)
}

func (s *service) LoginStudent(ctx context.Context, in LoginInput) (*Session, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	student, err := s.students.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrStudentNotFound) {
			return nil, &CredentialsError{}
		}
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(in.Password)); err != nil {
		s.log.Info("student login failed", zap.Uint("student_id", student.ID))
		return nil, &CredentialsError{}
	}

	if err := s.students.TouchLogin(ctx, student.ID, s.now()); err != nil {
		s.log.Warn("failed to record login", zap.Uint("student_id", student.ID), zap.Error(err))
	}
	return s.issue(student.Identity(), student.TokenVersion)
}

func (s *service) LoginAdmin(ctx context.Context, in AdminLoginInput) (*Session, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	admin, err := s.admins.GetByLogin(ctx, in.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			s.metrics.RecordAdminLogin("unknown")
			return nil, &CredentialsError{}
		}
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}

	now := s.now()
	if admin.IsLocked(now) {
		s.metrics.RecordAdminLogin("locked")
		return nil, &LockedError{Minutes: minutesUntil(now, *admin.LockUntil)}
	}
	if admin.LockUntil != nil {
		if err := s.admins.ClearLock(ctx, admin.ID); err != nil {
			return nil, fmt.Errorf("failed to clear lock: %w", err)
		}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(in.Password)); err != nil {
		return nil, s.failAdminLogin(ctx, admin, now)
	}

	if admin.Role != models.RoleAdmin && admin.Role != models.RoleSuperadmin {
		s.metrics.RecordAdminLogin("denied")
		return nil, ErrAccessDenied
	}
	if err := s.admins.ResetLogin(ctx, admin.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	s.metrics.RecordAdminLogin("ok")
	s.log.Info("admin logged in", zap.Uint("admin_id", admin.ID), zap.String("username", admin.Username))
	return s.issue(admin.Identity(), admin.TokenVersion)
}

func (s *service) failAdminLogin(ctx context.Context, admin *models.Admin, now time.Time) error {
	attempts, err := s.admins.RecordFailedLogin(ctx, admin.ID)
	if err != nil {
		return fmt.Errorf("failed to record failed login: %w", err)
	}
	if attempts >= s.opts.MaxLoginAttempts {
		if err := s.admins.Lock(ctx, admin.ID, now.Add(s.opts.LockDuration)); err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}
		s.metrics.RecordAdminLogin("locked")
		s.log.Warn("admin account locked", zap.Uint("admin_id", admin.ID), zap.Int("attempts", attempts))
		return &LockedError{Minutes: int(s.opts.LockDuration.Minutes())}
	}
	s.metrics.RecordAdminLogin("invalid")
	return &CredentialsError{Remaining: s.opts.MaxLoginAttempts - attempts}
}

func minutesUntil(now, until time.Time) int {
	return int(math.Ceil(until.Sub(now).Minutes()))
}

func (s *service) Logout(ctx context.Context, id models.Identity) error {
	var err error
	if id.Kind == models.KindAdmin {
		err = s.admins.IncrementTokenVersion(ctx, id.ID)
	} else {
		err = s.students.IncrementTokenVersion(ctx, id.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *service) invalidate(ctx context.Context, id models.Identity) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateIdentity(ctx, id.Kind, id.ID); err != nil {
		s.log.Warn("failed to invalidate identity cache", zap.Uint("id", id.ID), zap.Error(err))
	}
}

func (s *service) Me(ctx context.Context, id models.Identity) (*models.Student, error) {
	student, err := s.students.GetByID(ctx, id.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrStudentNotFound) {
			return nil, ErrTokenRevoked
		}
		return nil, err
	}
	return student, nil
}

func (s *service) ResolveIdentity(ctx context.Context, claims *models.UserClaims) (models.Identity, error) {
	entry, err := s.lookup(ctx, claims.Kind, claims.UserID)
	if err != nil {
		return models.Identity{}, err
	}
	if !entry.Active || entry.TokenVersion != claims.TokenVersion {
		return models.Identity{}, ErrTokenRevoked
	}
	return entry.Identity, nil
}

func (s *service) lookup(ctx context.Context, kind models.IdentityKind, id uint) (*cache.IdentityEntry, error) {
	if s.cache != nil {
		entry, err := s.cache.GetIdentity(ctx, kind, id)
		if err != nil {
			s.log.Warn("identity cache read failed", zap.Uint("id", id), zap.Error(err))
		} else if entry != nil {
			return entry, nil
		}
	}

	var entry cache.IdentityEntry
	switch kind {
	case models.KindStudent:
		student, err := s.students.GetByID(ctx, id)
		if errors.Is(err, repositories.ErrStudentNotFound) {
			return nil, ErrTokenRevoked
		}
		if err != nil {
			return nil, err
		}
		entry = cache.IdentityEntry{Identity: student.Identity(), TokenVersion: student.TokenVersion, Active: true}
	case models.KindAdmin:
		admin, err := s.admins.GetByID(ctx, id)
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return nil, ErrTokenRevoked
		}
		if err != nil {
			return nil, err
		}
		entry = cache.IdentityEntry{Identity: admin.Identity(), TokenVersion: admin.TokenVersion, Active: admin.IsActive}
	default:
		return nil, ErrTokenRevoked
	}

	if s.cache != nil {
		if err := s.cache.CacheIdentity(ctx, entry); err != nil {
			s.log.Warn("identity cache write failed", zap.Uint("id", id), zap.Error(err))
		}
	}
	return &entry, nil
}
