package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/onboarding-service/internal/domain"
)

// ReviewerRepository handles persistence for reviewers.
type ReviewerRepository interface {
	Create(ctx context.Context, reviewer *domain.Reviewer) error
	Update(ctx context.Context, reviewer *domain.Reviewer) error
	GetByID(ctx context.Context, id string) (*domain.Reviewer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Reviewer, error)
	List(ctx context.Context, filter ReviewerFilter) ([]domain.Reviewer, error)
}

// ReviewerFilter defines query params for reviewer listing.
type ReviewerFilter struct {
	Role   *domain.ReviewerRole
	Active *bool
	Limit  int
	Offset int
}

type reviewerRepository struct {
	pool *pgxpool.Pool
}

// NewReviewerRepository instantiates the repository.
func NewReviewerRepository(pool *pgxpool.Pool) ReviewerRepository {
	return &reviewerRepository{pool: pool}
}

func (r *reviewerRepository) Create(ctx context.Context, reviewer *domain.Reviewer) error {
	const query = `
        INSERT INTO reviewers (name, email, password_hash, role, active_flag)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		reviewer.Name,
		reviewer.Email,
		reviewer.PasswordHash,
		reviewer.Role,
		reviewer.Active,
	).Scan(&reviewer.ID, &reviewer.CreatedAt, &reviewer.UpdatedAt)
}

func (r *reviewerRepository) Update(ctx context.Context, reviewer *domain.Reviewer) error {
	const query = `
        UPDATE reviewers SET name=$1, email=$2, password_hash=$3, role=$4, active_flag=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		reviewer.Name,
		reviewer.Email,
		reviewer.PasswordHash,
		reviewer.Role,
		reviewer.Active,
		reviewer.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reviewerRepository) GetByID(ctx context.Context, id string) (*domain.Reviewer, error) {
	const query = `
        SELECT id, name, email, password_hash, role, active_flag, created_at, updated_at
        FROM reviewers WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *reviewerRepository) GetByEmail(ctx context.Context, email string) (*domain.Reviewer, error) {
	const query = `
        SELECT id, name, email, password_hash, role, active_flag, created_at, updated_at
        FROM reviewers WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *reviewerRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Reviewer, error) {
	var reviewer domain.Reviewer
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&reviewer.ID,
		&reviewer.Name,
		&reviewer.Email,
		&reviewer.PasswordHash,
		&reviewer.Role,
		&reviewer.Active,
		&reviewer.CreatedAt,
		&reviewer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &reviewer, nil
}

func (r *reviewerRepository) List(ctx context.Context, filter ReviewerFilter) ([]domain.Reviewer, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
        SELECT id, name, email, password_hash, role, active_flag, created_at, updated_at
        FROM reviewers WHERE %s ORDER BY created_at ASC LIMIT %d OFFSET %d`,
		strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Reviewer
	for rows.Next() {
		var reviewer domain.Reviewer
		if err := rows.Scan(
			&reviewer.ID,
			&reviewer.Name,
			&reviewer.Email,
			&reviewer.PasswordHash,
			&reviewer.Role,
			&reviewer.Active,
			&reviewer.CreatedAt,
			&reviewer.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, reviewer)
	}
	return result, rows.Err()
}
