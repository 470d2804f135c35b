package events

import (
	"time"

	"github.com/neos-mentors/mentor-queue/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketUpdated EventType = "ticket_updated"
)

// Event carries a snapshot of a ticket taken at the moment a mutation
// committed. Subscribers receive independent copies and must treat the
// snapshot as read-only history, not current state.
type Event struct {
	ID        string
	Type      EventType
	Ticket    domain.Ticket
	Timestamp time.Time
}
