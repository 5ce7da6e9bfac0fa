package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims is the JWT payload for both students and admins.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID       uint         `json:"user_id"`
	Kind         IdentityKind `json:"kind"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	Role         string       `json:"role,omitempty"`
	TokenVersion int          `json:"token_version"`
}

// Identity converts the claims into the identity handed to services.
func (c *UserClaims) Identity() Identity {
	return Identity{Kind: c.Kind, ID: c.UserID, Name: c.Name, Email: c.Email, Role: c.Role}
}
