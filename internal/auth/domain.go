package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/NordCoder/storefront-auth/internal/domain/session"
)

type Claims struct {
	UserID     int64        `json:"id"`
	Role       session.Role `json:"role"`
	IsVerified bool         `json:"isVerified"`
	jwt.RegisteredClaims
}

func claimsFor(id session.Identity) Claims {
	return Claims{UserID: id.ID, Role: id.Role, IsVerified: id.IsVerified}
}

func (c Claims) Identity() session.Identity {
	return session.Identity{ID: c.UserID, Role: c.Role, IsVerified: c.IsVerified}
}
