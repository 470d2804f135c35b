package repository

import (
	"context"
	"iter"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neos-mentors/mentor-queue/internal/domain"
)

// TicketRepository encapsulates ticket persistence. Absent rows surface as
// pgx.ErrNoRows.
type TicketRepository interface {
	Insert(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// AssignDiscordMessage sets the message id only while it is unset.
	// It reports whether this call won the assignment.
	AssignDiscordMessage(ctx context.Context, ticketID, messageID string) (bool, error)
	// ListIncomplete lazily yields REQUESTED and RESPONDING tickets in
	// creation order. Ranging again re-runs the query.
	ListIncomplete(ctx context.Context) iter.Seq2[domain.Ticket, error]
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `t.id, t.requester_id, t.requester_name, t.description, t.status,
            t.created_at, t.claimed_at, t.completed_at, t.canceled_at, t.discord_message_id,
            m.id, m.display_name, m.token, m.created_at`

func (r *ticketRepository) Insert(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, requester_id, requester_name, description, status, mentor_id, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.RequesterID,
		ticket.RequesterName,
		ticket.Description,
		ticket.Status,
		mentorID(ticket),
		ticket.CreatedAt,
	)
	return err
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, mentor_id=$2, claimed_at=$3, completed_at=$4, canceled_at=$5
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Status,
		mentorID(ticket),
		ticket.ClaimedAt,
		ticket.CompletedAt,
		ticket.CanceledAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `
        SELECT ` + ticketColumns + `
        FROM tickets t LEFT JOIN mentors m ON m.id = t.mentor_id
        WHERE t.id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) AssignDiscordMessage(ctx context.Context, ticketID, messageID string) (bool, error) {
	const query = `
        UPDATE tickets SET discord_message_id=$2
        WHERE id=$1 AND discord_message_id IS NULL`
	cmd, err := r.pool.Exec(ctx, query, ticketID, messageID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *ticketRepository) ListIncomplete(ctx context.Context) iter.Seq2[domain.Ticket, error] {
	query := `
        SELECT ` + ticketColumns + `
        FROM tickets t LEFT JOIN mentors m ON m.id = t.mentor_id
        WHERE t.status = $1 OR t.status = $2
        ORDER BY t.created_at ASC`
	return func(yield func(domain.Ticket, error) bool) {
		rows, err := r.pool.Query(ctx, query, domain.TicketStatusRequested, domain.TicketStatusResponding)
		if err != nil {
			yield(domain.Ticket{}, err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			ticket, err := scanTicket(rows)
			if err != nil {
				yield(domain.Ticket{}, err)
				return
			}
			if !yield(*ticket, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(domain.Ticket{}, err)
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket        domain.Ticket
		mentorID      *string
		mentorName    *string
		mentorToken   *string
		mentorCreated *time.Time
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.RequesterID,
		&ticket.RequesterName,
		&ticket.Description,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.ClaimedAt,
		&ticket.CompletedAt,
		&ticket.CanceledAt,
		&ticket.DiscordMessageID,
		&mentorID,
		&mentorName,
		&mentorToken,
		&mentorCreated,
	); err != nil {
		return nil, err
	}
	if mentorID != nil {
		ticket.Mentor = &domain.Mentor{
			ID:          *mentorID,
			DisplayName: *mentorName,
			Token:       *mentorToken,
			CreatedAt:   *mentorCreated,
		}
	}
	return &ticket, nil
}

func mentorID(ticket *domain.Ticket) *string {
	if ticket.Mentor == nil {
		return nil
	}
	return &ticket.Mentor.ID
}
