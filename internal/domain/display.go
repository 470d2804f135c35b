package domain

import "time"

// DisplayPayload is the channel-agnostic rendering of a ticket. It is a
// pure projection of ticket fields: the same ticket state always produces
// the same payload.
type DisplayPayload struct {
	Title       string
	Description string
	Status      TicketStatus
	Requester   string
	Mentor      string
	Color       int
	CreatedAt   time.Time
	ClaimedAt   *time.Time
	ResolvedAt  *time.Time
}

var statusColors = map[TicketStatus]int{
	TicketStatusRequested:  0xE67E22,
	TicketStatusResponding: 0x3498DB,
	TicketStatusCompleted:  0x2ECC71,
	TicketStatusCanceled:   0x95A5A6,
}

// DisplayPayload projects the ticket into its display representation.
func (t *Ticket) DisplayPayload() DisplayPayload {
	payload := DisplayPayload{
		Title:       "Help requested by " + t.RequesterName,
		Description: t.Description,
		Status:      t.Status,
		Requester:   t.RequesterName,
		Color:       statusColors[t.Status],
		CreatedAt:   t.CreatedAt,
		ClaimedAt:   t.ClaimedAt,
	}
	if t.Mentor != nil {
		payload.Mentor = t.Mentor.DisplayName
	}
	switch t.Status {
	case TicketStatusCompleted:
		payload.ResolvedAt = t.CompletedAt
	case TicketStatusCanceled:
		payload.ResolvedAt = t.CanceledAt
	}
	return payload
}
