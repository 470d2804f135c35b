package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neos-mentors/mentor-queue/internal/domain"
)

// MentorRepository defines persistence access for mentors. Lookups by
// token are how mentors authorize ticket mutations.
type MentorRepository interface {
	Insert(ctx context.Context, mentor *domain.Mentor) error
	GetByID(ctx context.Context, id string) (*domain.Mentor, error)
	GetByToken(ctx context.Context, token string) (*domain.Mentor, error)
	List(ctx context.Context) ([]domain.Mentor, error)
}

type mentorRepository struct {
	pool *pgxpool.Pool
}

// NewMentorRepository returns a Postgres-backed implementation.
func NewMentorRepository(pool *pgxpool.Pool) MentorRepository {
	return &mentorRepository{pool: pool}
}

func (r *mentorRepository) Insert(ctx context.Context, mentor *domain.Mentor) error {
	const query = `
        INSERT INTO mentors (id, display_name, token, created_at)
        VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query,
		mentor.ID,
		mentor.DisplayName,
		mentor.Token,
		mentor.CreatedAt,
	)
	return err
}

func (r *mentorRepository) GetByID(ctx context.Context, id string) (*domain.Mentor, error) {
	const query = `
        SELECT id, display_name, token, created_at
        FROM mentors WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *mentorRepository) GetByToken(ctx context.Context, token string) (*domain.Mentor, error) {
	const query = `
        SELECT id, display_name, token, created_at
        FROM mentors WHERE token=$1`
	return r.fetchSingle(ctx, query, token)
}

func (r *mentorRepository) List(ctx context.Context) ([]domain.Mentor, error) {
	const query = `
        SELECT id, display_name, token, created_at
        FROM mentors ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Mentor
	for rows.Next() {
		var mentor domain.Mentor
		if err := rows.Scan(&mentor.ID, &mentor.DisplayName, &mentor.Token, &mentor.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, mentor)
	}
	return result, rows.Err()
}

func (r *mentorRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Mentor, error) {
	var mentor domain.Mentor
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&mentor.ID,
		&mentor.DisplayName,
		&mentor.Token,
		&mentor.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &mentor, nil
}
