package dto

import (
	"time"

	"github.com/mirea/edupulse/internal/app/models"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest creates an account linked to an existing student or teacher profile
type RegisterRequest struct {
	Email     string      `json:"email" binding:"required,email"`
	Password  string      `json:"password" binding:"required,min=8"`
	Role      models.Role `json:"role" binding:"required,oneof=student teacher admin"`
	StudentID *int64      `json:"student_id,omitempty" binding:"omitempty,min=1"`
	TeacherID *int64      `json:"teacher_id,omitempty" binding:"omitempty,min=1"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"Bearer"`
	ExpiresIn   int64  `json:"expires_in"`
}

// UserResponse represents basic user information
type UserResponse struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	StudentID *int64      `json:"student_id,omitempty"`
	TeacherID *int64      `json:"teacher_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// NewUserResponse strips credentials from a user
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		StudentID: u.StudentID,
		TeacherID: u.TeacherID,
		CreatedAt: u.CreatedAt,
	}
}
