package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "admissions-api"

var (
	ErrMissingSecret = errors.New("JWT secret not configured")
	ErrInvalidToken  = errors.New("invalid token claims")
)

// TokenManager signs and parses the HS256 tokens handed to students and admins.
type TokenManager struct {
	secret     []byte
	studentTTL time.Duration
	adminTTL   time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, studentTTL, adminTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		studentTTL: studentTTL,
		adminTTL:   adminTTL,
		now:        time.Now,
	}
}

// TTL returns the token lifetime for the given identity kind.
func (m *TokenManager) TTL(kind models.IdentityKind) time.Duration {
	if kind == models.KindAdmin {
		return m.adminTTL
	}
	return m.studentTTL
}

// Generate signs a token for id. The expiry is returned so callers can set
// matching cookie lifetimes.
func (m *TokenManager) Generate(id models.Identity, tokenVersion int) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}

	now := m.now()
	exp := now.Add(m.TTL(id.Kind))
	claims := models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(id.ID), 10),
		},
		UserID:       id.ID,
		Kind:         id.Kind,
		Email:        id.Email,
		Name:         id.Name,
		Role:         id.Role,
		TokenVersion: tokenVersion,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Parse validates a token string and returns its claims.
func (m *TokenManager) Parse(tokenStr string) (*models.UserClaims, error) {
	if len(m.secret) == 0 {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(tokenStr, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
