package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/onboarding-service/internal/domain"
)

// WorkItemCommentRepository stores reviewer comments.
type WorkItemCommentRepository interface {
	Create(ctx context.Context, workItemID string, comment *domain.Comment) error
	ListByWorkItem(ctx context.Context, workItemID string) ([]domain.Comment, error)
}

type workItemCommentRepository struct {
	pool *pgxpool.Pool
}

// NewWorkItemCommentRepository builds repository.
func NewWorkItemCommentRepository(pool *pgxpool.Pool) WorkItemCommentRepository {
	return &workItemCommentRepository{pool: pool}
}

func (r *workItemCommentRepository) Create(ctx context.Context, workItemID string, comment *domain.Comment) error {
	const query = `
        INSERT INTO work_item_comments (id, work_item_id, author_id, author_name, body, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.pool.Exec(ctx, query,
		comment.ID,
		workItemID,
		comment.AuthorID,
		comment.AuthorName,
		comment.Body,
		comment.At,
	)
	return err
}

func (r *workItemCommentRepository) ListByWorkItem(ctx context.Context, workItemID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, author_id, author_name, body, created_at
        FROM work_item_comments WHERE work_item_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, workItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.AuthorID,
			&comment.AuthorName,
			&comment.Body,
			&comment.At,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
