package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,min=2"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT used for API authorization.
	AccessToken string `json:"token"`

	// RefreshToken is used to obtain new token pairs.
	RefreshToken string `json:"refresh_token,omitempty"`

	User *UserResponse `json:"user,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse builds the public view of a user.
func NewUserResponse(user *domain.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
	}
}

// UpdateProfileRequest defines the payload for the profile update endpoint.
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

// ChangePasswordRequest defines the payload for the password change endpoint.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=6,max=72"`
}

// CreateTodoRequest defines the payload for todo creation.
type CreateTodoRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	Priority    *string    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,oneof=personal work study other"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// UpdateTodoRequest defines the payload for todo updates. Absent fields are
// left unchanged; due_date is cleared by sending clear_due_date=true.
type UpdateTodoRequest struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	Completed    *bool      `json:"completed,omitempty"`
	Priority     *string    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Category     *string    `json:"category,omitempty" validate:"omitempty,oneof=personal work study other"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	ClearDueDate bool       `json:"clear_due_date,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
}

// ShareTodoRequest defines the payload for sharing a todo with another user.
type ShareTodoRequest struct {
	UserEmail string `json:"userEmail" validate:"required,email"`
}

// ShareNotificationRequest defines the payload for creating an addressed
// share notification.
type ShareNotificationRequest struct {
	TodoID        uuid.UUID `json:"todoId"        validate:"required"`
	ReceiverEmail string    `json:"receiverEmail" validate:"required,email"`
	Message       string    `json:"message,omitempty"`
}
