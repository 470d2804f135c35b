package service

import (
	"context"
	"errors"
	"iter"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/neos-mentors/mentor-queue/internal/clock"
	"github.com/neos-mentors/mentor-queue/internal/directory"
	"github.com/neos-mentors/mentor-queue/internal/domain"
	"github.com/neos-mentors/mentor-queue/internal/events"
	"github.com/neos-mentors/mentor-queue/internal/repository"
	apperrors "github.com/neos-mentors/mentor-queue/pkg/util"
)

// Outcome reports whether a transition changed ticket state. Transitions
// requested from a state that does not permit them return the ticket
// unchanged with OutcomeNoOp and publish nothing.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeNoOp
)

// TicketService owns the ticket lifecycle. It is the sole writer of ticket
// state and publishes one event per committed mutation.
type TicketService struct {
	tickets   repository.TicketRepository
	mentors   repository.MentorRepository
	users     directory.UserDirectory
	publisher events.Publisher
	clock     clock.Clock
	logger    *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	MentorRepo repository.MentorRepository
	Users      directory.UserDirectory
	Publisher  events.Publisher
	Clock      clock.Clock
	Logger     *zap.Logger
}

// TicketCreateInput describes a ticket creation request.
type TicketCreateInput struct {
	ExternalUserID string
	DisplayName    string
	Description    string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:   deps.TicketRepo,
		mentors:   deps.MentorRepo,
		users:     deps.Users,
		publisher: deps.Publisher,
		clock:     clk,
		logger:    logger,
	}
}

// CreateTicket validates the requester against the user directory and
// persists a new REQUESTED ticket. Nothing is stored when the identity
// does not resolve.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	externalID := strings.TrimSpace(input.ExternalUserID)
	if externalID == "" {
		return nil, apperrors.NewValidationError("external user id required", nil)
	}
	profile, err := s.users.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperrors.NewValidationError("unknown user identity", map[string]any{
			"external_user_id": externalID,
		})
	}

	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		name = profile.Username
	}

	ticket := &domain.Ticket{
		ID:            uuid.NewString(),
		RequesterID:   profile.ID,
		RequesterName: name,
		Description:   strings.TrimSpace(input.Description),
		Status:        domain.TicketStatusRequested,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.tickets.Insert(ctx, ticket); err != nil {
		return nil, err
	}
	s.publish(events.EventTicketCreated, ticket)
	return ticket, nil
}

// ClaimTicket assigns the mentor identified by token to a REQUESTED
// ticket. Claiming a ticket in any other state is a no-op that returns
// the ticket unchanged.
func (s *TicketService) ClaimTicket(ctx context.Context, ticketID, mentorToken string) (*domain.Ticket, Outcome, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, OutcomeNoOp, err
	}
	mentor, err := s.mentors.GetByToken(ctx, mentorToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, OutcomeNoOp, apperrors.NewNotFound("ticket", nil)
		}
		return nil, OutcomeNoOp, err
	}
	if ticket.Status != domain.TicketStatusRequested {
		return ticket, OutcomeNoOp, nil
	}

	now := s.clock.Now()
	ticket.Mentor = mentor
	ticket.Status = domain.TicketStatusResponding
	ticket.ClaimedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, OutcomeNoOp, err
	}
	s.publish(events.EventTicketUpdated, ticket)
	return ticket, OutcomeApplied, nil
}

// UnclaimTicket releases a RESPONDING ticket back to the queue. The token
// must belong to the ticket's current mentor; any mismatch is reported as
// not-found, indistinguishable from a missing ticket.
func (s *TicketService) UnclaimTicket(ctx context.Context, ticketID, mentorToken string) (*domain.Ticket, Outcome, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, OutcomeNoOp, err
	}
	if ticket.Mentor == nil || ticket.Mentor.Token != mentorToken {
		return nil, OutcomeNoOp, apperrors.NewNotFound("ticket", nil)
	}
	if ticket.Status != domain.TicketStatusResponding {
		return ticket, OutcomeNoOp, nil
	}

	ticket.Status = domain.TicketStatusRequested
	ticket.Mentor = nil
	ticket.ClaimedAt = nil
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, OutcomeNoOp, err
	}
	s.publish(events.EventTicketUpdated, ticket)
	return ticket, OutcomeApplied, nil
}

// CompleteTicket finishes a RESPONDING ticket. Same authorization rule as
// UnclaimTicket. COMPLETED is terminal.
func (s *TicketService) CompleteTicket(ctx context.Context, ticketID, mentorToken string) (*domain.Ticket, Outcome, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, OutcomeNoOp, err
	}
	if ticket.Mentor == nil || ticket.Mentor.Token != mentorToken {
		return nil, OutcomeNoOp, apperrors.NewNotFound("ticket", nil)
	}
	if ticket.Status != domain.TicketStatusResponding {
		return ticket, OutcomeNoOp, nil
	}

	now := s.clock.Now()
	ticket.Status = domain.TicketStatusCompleted
	ticket.CompletedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, OutcomeNoOp, err
	}
	s.publish(events.EventTicketUpdated, ticket)
	return ticket, OutcomeApplied, nil
}

// CancelTicket cancels any non-terminal ticket. No mentor authorization:
// the caller only needs the ticket id.
func (s *TicketService) CancelTicket(ctx context.Context, ticketID string) (*domain.Ticket, Outcome, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, OutcomeNoOp, err
	}
	if ticket.Status.IsTerminal() {
		return ticket, OutcomeNoOp, nil
	}

	now := s.clock.Now()
	ticket.Status = domain.TicketStatusCanceled
	ticket.CanceledAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, OutcomeNoOp, err
	}
	s.publish(events.EventTicketUpdated, ticket)
	return ticket, OutcomeApplied, nil
}

// AssignDiscordMessage records the message id for a ticket if none is set
// yet. It never publishes an event: the write-back originates from the
// reconciler and an event here would loop. The first assignment wins;
// later calls return the ticket with the surviving association.
func (s *TicketService) AssignDiscordMessage(ctx context.Context, ticketID, messageID string) (*domain.Ticket, error) {
	assigned, err := s.tickets.AssignDiscordMessage(ctx, ticketID, messageID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !assigned && ticket.DiscordMessageID != nil && *ticket.DiscordMessageID != messageID {
		s.logger.Debug("discord message already assigned",
			zap.String("ticket_id", ticketID),
			zap.String("kept_message_id", *ticket.DiscordMessageID),
			zap.String("rejected_message_id", messageID))
	}
	return ticket, nil
}

// GetTicket returns the ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.loadTicket(ctx, ticketID)
}

// ListIncomplete lazily yields all REQUESTED and RESPONDING tickets in
// creation order. Ranging the sequence again re-runs the query.
func (s *TicketService) ListIncomplete(ctx context.Context) iter.Seq2[domain.Ticket, error] {
	return s.tickets.ListIncomplete(ctx)
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) publish(eventType events.EventType, ticket *domain.Ticket) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Ticket:    *ticket.Clone(),
		Timestamp: s.clock.Now(),
	})
}
