package dto

import (
	"time"

	"github.com/neos-mentors/mentor-queue/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ExternalUserID string `json:"external_user_id"`
	DisplayName    string `json:"display_name,omitempty"`
	Description    string `json:"description,omitempty"`
}

// MentorRef is the user-visible slice of a mentor. The token never leaves
// the admin surface.
type MentorRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// TicketResponse is the wire representation of a ticket.
type TicketResponse struct {
	ID               string              `json:"id"`
	RequesterID      string              `json:"requester_id"`
	RequesterName    string              `json:"requester_name"`
	Description      string              `json:"description,omitempty"`
	Status           domain.TicketStatus `json:"status"`
	Mentor           *MentorRef          `json:"mentor,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	ClaimedAt        *time.Time          `json:"claimed_at,omitempty"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
	CanceledAt       *time.Time          `json:"canceled_at,omitempty"`
	DiscordMessageID *string             `json:"discord_message_id,omitempty"`
}

// NewTicketResponse converts a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:               ticket.ID,
		RequesterID:      ticket.RequesterID,
		RequesterName:    ticket.RequesterName,
		Description:      ticket.Description,
		Status:           ticket.Status,
		CreatedAt:        ticket.CreatedAt,
		ClaimedAt:        ticket.ClaimedAt,
		CompletedAt:      ticket.CompletedAt,
		CanceledAt:       ticket.CanceledAt,
		DiscordMessageID: ticket.DiscordMessageID,
	}
	if ticket.Mentor != nil {
		resp.Mentor = &MentorRef{ID: ticket.Mentor.ID, DisplayName: ticket.Mentor.DisplayName}
	}
	return resp
}
