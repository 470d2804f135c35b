package domain

import "time"

// TicketStatus enumerates lifecycle states for help tickets.
type TicketStatus string

const (
	TicketStatusRequested  TicketStatus = "REQUESTED"
	TicketStatusResponding TicketStatus = "RESPONDING"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusCanceled   TicketStatus = "CANCELED"
)

// IsTerminal reports whether no transition leaves s.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusCanceled
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusRequested:  {TicketStatusResponding, TicketStatusCanceled},
	TicketStatusResponding: {TicketStatusRequested, TicketStatusCompleted, TicketStatusCanceled},
	TicketStatusCompleted:  {},
	TicketStatusCanceled:   {},
}

// CanTransition reports whether the lifecycle permits moving from s to next.
func (s TicketStatus) CanTransition(next TicketStatus) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for a single help request. Mentor is present
// exactly while the ticket is RESPONDING or COMPLETED; ClaimedAt survives
// into COMPLETED. DiscordMessageID is set at most once and remains
// assignable on a terminal ticket while unset.
type Ticket struct {
	ID               string
	RequesterID      string
	RequesterName    string
	Description      string
	Status           TicketStatus
	Mentor           *Mentor
	CreatedAt        time.Time
	ClaimedAt        *time.Time
	CompletedAt      *time.Time
	CanceledAt       *time.Time
	DiscordMessageID *string
}

// Clone returns a deep copy so event subscribers can read a snapshot
// without racing the service's working copy.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Mentor != nil {
		mentor := *t.Mentor
		clone.Mentor = &mentor
	}
	clone.ClaimedAt = cloneTime(t.ClaimedAt)
	clone.CompletedAt = cloneTime(t.CompletedAt)
	clone.CanceledAt = cloneTime(t.CanceledAt)
	if t.DiscordMessageID != nil {
		id := *t.DiscordMessageID
		clone.DiscordMessageID = &id
	}
	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
