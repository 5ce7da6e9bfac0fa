package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// IdentityKind separates the two credential holders.
type IdentityKind string

const (
	KindStudent IdentityKind = "student"
	KindAdmin   IdentityKind = "admin"
)

// Identity is what the auth gate resolves a request to.
type Identity struct {
	Kind  IdentityKind `json:"kind"`
	ID    uint         `json:"id"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
	Role  string       `json:"role,omitempty"`
}

// IsAdmin reports whether the identity may perform admin transitions.
func (i Identity) IsAdmin() bool {
	return i.Kind == KindAdmin && (i.Role == RoleAdmin || i.Role == RoleSuperadmin)
}

type Student struct {
	gorm.Model
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Phone        string     `json:"phone"`
	PasswordHash string     `gorm:"not null" json:"-"`
	TokenVersion int        `gorm:"default:1" json:"-"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

func (s *Student) Identity() Identity {
	return Identity{Kind: KindStudent, ID: s.ID, Name: s.Name, Email: s.Email}
}

type Admin struct {
	gorm.Model
	Username            string     `gorm:"uniqueIndex;not null" json:"username"`
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Name                string     `json:"name"`
	PasswordHash        string     `gorm:"not null" json:"-"`
	Role                string     `gorm:"default:'admin'" json:"role"`
	IsActive            bool       `gorm:"not null" json:"isActive"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockUntil           *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"lastLoginAt,omitempty"`
	TokenVersion        int        `gorm:"default:1" json:"-"`
}

// IsLocked reports whether the lockout window is still open at now.
func (a *Admin) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// DisplayName prefers the full name and falls back to the username.
func (a *Admin) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Username
}

func (a *Admin) Identity() Identity {
	return Identity{Kind: KindAdmin, ID: a.ID, Name: a.DisplayName(), Email: a.Email, Role: a.Role}
}
