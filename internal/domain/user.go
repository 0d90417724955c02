package domain

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user account can hold.
const (
	RoleFan    = "fan"
	RoleArtist = "artist"
	RoleAdmin  = "admin"
)

// User represents a registered user. Artists own tiers and content; fans
// subscribe to tiers.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Password    string    `json:"-"` // bcrypt hash, never serialized
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LoginRequest is the validated input for logging in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// LoginResponse is the API response after successful login.
type LoginResponse struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

// LoginUser is the user info returned after login.
type LoginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// JWTClaims represents the session JWT payload.
type JWTClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// RegisterRequest is the input for self-service sign up.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"displayName" validate:"required,min=1,max=80"`
	Role        string `json:"role" validate:"omitempty,oneof=fan artist"`
}

// CreateUserRequest is the validated input for creating a user (admin).
type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"omitempty,max=80"`
	Role        string `json:"role" validate:"omitempty,oneof=fan artist admin"`
}

// UserResponse is the safe API response for a user (no password).
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewUserID generates a new UUID for a user.
func NewUserID() string {
	return uuid.New().String()
}

// ToResponse strips the password hash.
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}
