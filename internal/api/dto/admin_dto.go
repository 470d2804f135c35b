package dto

import (
	"time"

	"github.com/neos-mentors/mentor-queue/internal/domain"
)

// AdminLoginRequest payload.
type AdminLoginRequest struct {
	Password string `json:"password"`
}

// AdminLoginResponse payload.
type AdminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateMentorRequest payload.
type CreateMentorRequest struct {
	DisplayName string `json:"display_name"`
}

// MentorResponse is the admin-facing mentor representation. Token is only
// populated on creation.
type MentorResponse struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Token       string    `json:"token,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewMentorResponse converts a domain mentor, omitting the token.
func NewMentorResponse(mentor *domain.Mentor) MentorResponse {
	return MentorResponse{
		ID:          mentor.ID,
		DisplayName: mentor.DisplayName,
		CreatedAt:   mentor.CreatedAt,
	}
}
