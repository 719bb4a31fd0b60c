package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/gulfreturn/gulf-api/internal/models"
)

// UserResponse is the public view of a user. It never carries the password hash.
type UserResponse struct {
	ID             uuid.UUID           `json:"id"`
	Email          string              `json:"email"`
	Username       string              `json:"username"`
	FullName       string              `json:"full_name"`
	Bio            string              `json:"bio"`
	Role           models.Role         `json:"role"`
	Status         models.Status       `json:"status"`
	EmailVerified  bool                `json:"email_verified"`
	AuthProvider   models.AuthProvider `json:"auth_provider"`
	ProfilePicture *string             `json:"profile_picture,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		FullName:       u.FullName,
		Bio:            u.Bio,
		Role:           u.Role,
		Status:         u.Status,
		EmailVerified:  u.EmailVerified,
		AuthProvider:   u.AuthProvider,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

type AdminStatsResponse struct {
	AdminCount     int `json:"admin_count"`
	ModeratorCount int `json:"moderator_count"`
}
