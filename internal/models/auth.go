package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates roles issued by the external auth system.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleStaff UserRole = "staff"
)

// JWTClaims represents the JWT payload for access tokens. Tokens are issued
// by the surrounding admin-panel auth service; this API only validates them.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
