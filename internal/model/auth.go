package model

import "github.com/golang-jwt/jwt/v5"

// StaffClaims are JWT claims for presenter and admin authentication
type StaffClaims struct {
	UserID       int64  `json:"id"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	TokenVersion int    `json:"tokenVersion"`
	jwt.RegisteredClaims
}

// Identity returns the staff identity carried by the claims.
func (c *StaffClaims) Identity() StaffIdentity {
	return StaffIdentity{UserID: c.UserID, Role: c.Role}
}

// StaffIdentity is bound to an authenticated staff connection.
type StaffIdentity struct {
	UserID int64 `json:"userId"`
	Role   Role  `json:"role"`
}

// LoginRequest is the request body for staff login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the request body for presenter registration
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ChangePasswordRequest is the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
